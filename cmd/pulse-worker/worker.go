// Package main provides the pulse dispatch worker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/atelierhq/pulse/pkg/automation"
	"github.com/atelierhq/pulse/pkg/eventbus"
	"github.com/atelierhq/pulse/pkg/models"
)

// Worker consumes domain events from the bus and feeds them to the
// dispatcher. Redeliveries are harmless: the dispatcher's idempotency guard
// turns them into skips.
type Worker struct {
	id         string
	dispatcher *automation.Dispatcher
	eventBus   eventbus.EventBus
	logger     *slog.Logger
}

func NewWorker(id string, dispatcher *automation.Dispatcher, eventBus eventbus.EventBus, logger *slog.Logger) *Worker {
	return &Worker{
		id:         id,
		dispatcher: dispatcher,
		eventBus:   eventBus,
		logger:     logger.With("module", "worker", "worker_id", id),
	}
}

// Start subscribes to the events topic and blocks until ctx is done or a
// termination signal arrives.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := w.eventBus.Subscribe(ctx, w.handleEvent)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		w.logger.InfoContext(ctx, "Shutting down worker", "signal", sig.String())
	case <-ctx.Done():
	}

	return nil
}

// handleEvent runs one delivery. Malformed events are dropped (a redelivery
// cannot fix them); infrastructure failures propagate so the bus redelivers.
func (w *Worker) handleEvent(ctx context.Context, event models.DomainEvent) error {
	result, err := w.dispatcher.Dispatch(ctx, event)
	if err != nil {
		if errors.Is(err, models.ErrUnknownEventKind) ||
			errors.Is(err, models.ErrEmptyWorkspace) ||
			errors.Is(err, models.ErrEmptyDedupKey) {
			w.logger.ErrorContext(ctx, "Dropping malformed event",
				"event_kind", event.Kind,
				"dedup_key", event.DedupKey,
				"error", err)

			return nil
		}

		return err
	}

	for _, line := range result.Workflows {
		logger := w.logger.With(
			"workflow_id", line.WorkflowID,
			"dedup_key", event.DedupKey,
			"outcome", line.Outcome,
		)

		switch line.Outcome {
		case automation.OutcomeRan:
			logger.InfoContext(ctx, "Workflow executed", "status", line.Execution.Status)
		case automation.OutcomeSkipped:
			logger.InfoContext(ctx, "Workflow skipped, event already processed")
		case automation.OutcomeError:
			logger.ErrorContext(ctx, "Workflow dispatch failed", "error", line.Error)
		}
	}

	return nil
}
