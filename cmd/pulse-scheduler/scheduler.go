// Package main provides the pulse due-date scheduler.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atelierhq/pulse/pkg/eventbus"
	"github.com/atelierhq/pulse/pkg/events"
	"github.com/robfig/cron/v3"
)

// DueTask is one open task approaching its due date.
type DueTask struct {
	WorkspaceID string    `json:"workspace_id"`
	TaskID      string    `json:"task_id"`
	ClientID    string    `json:"client_id"`
	DueAt       time.Time `json:"due_at"`
}

// TaskSource lists open tasks due within the scan horizon.
type TaskSource interface {
	UpcomingTasks(ctx context.Context, horizonDays int) ([]DueTask, error)
}

// Scheduler periodically scans for approaching due dates and emits
// due_date_approaching events. The dedup key carries the due date, so
// repeated scans of an unchanged task collapse downstream while a
// rescheduled task fires again.
type Scheduler struct {
	source      TaskSource
	publisher   eventbus.EventPublisher
	horizonDays int
	logger      *slog.Logger
}

func NewScheduler(source TaskSource, publisher eventbus.EventPublisher, horizonDays int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:      source,
		publisher:   publisher,
		horizonDays: horizonDays,
		logger:      logger.With("module", "scheduler"),
	}
}

// Start runs scans on the cron spec until a termination signal arrives.
func (s *Scheduler) Start(ctx context.Context, cronSpec string) error {
	runner := cron.New()

	_, err := runner.AddFunc(cronSpec, func() {
		s.Scan(ctx)
	})
	if err != nil {
		return err
	}

	runner.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "cron", cronSpec, "horizon_days", s.horizonDays)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		s.logger.InfoContext(ctx, "Shutting down scheduler", "signal", sig.String())
	case <-ctx.Done():
	}

	<-runner.Stop().Done()

	return nil
}

// Scan publishes one due_date_approaching event per upcoming task. A publish
// failure skips that task only; the next scan retries it.
func (s *Scheduler) Scan(ctx context.Context) {
	tasks, err := s.source.UpcomingTasks(ctx, s.horizonDays)
	if err != nil {
		s.logger.ErrorContext(ctx, "Due date scan failed", "error", err)

		return
	}

	published := 0

	for _, task := range tasks {
		daysBefore := int(time.Until(task.DueAt).Hours() / 24)
		if daysBefore < 0 {
			daysBefore = 0
		}

		event := events.NewDueDateApproaching(task.WorkspaceID, task.TaskID, task.ClientID, task.DueAt, daysBefore)

		err := s.publisher.Publish(ctx, event)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish due date event",
				"task_id", task.TaskID,
				"error", err)

			continue
		}

		published++
	}

	s.logger.InfoContext(ctx, "Due date scan completed",
		"tasks", len(tasks),
		"published", published)
}
