// Package automation implements the workflow automation engine: trigger
// matching, ordered action execution with bounded retries, and event-level
// idempotency.
package automation

import (
	"log/slog"

	"context"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/otelhelper"
	"github.com/atelierhq/pulse/pkg/persistence"
	"github.com/atelierhq/pulse/pkg/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// WorkflowOutcome says what the dispatcher did with one matched workflow.
type WorkflowOutcome string

const (
	// OutcomeRan means this dispatch performed the workflow's side effects.
	OutcomeRan WorkflowOutcome = "ran"
	// OutcomeSkipped means the event was already processed by this workflow;
	// the prior execution record is attached and no side effect ran.
	OutcomeSkipped WorkflowOutcome = "skipped"
	// OutcomeError means a dispatch-level failure (storage) prevented a
	// verdict for this workflow. Sibling workflows are unaffected.
	OutcomeError WorkflowOutcome = "error"
)

// WorkflowResult is the per-workflow line of a dispatch summary.
type WorkflowResult struct {
	WorkflowID   string                  `json:"workflow_id"`
	WorkflowName string                  `json:"workflow_name"`
	Outcome      WorkflowOutcome         `json:"outcome"`
	Execution    *models.ExecutionRecord `json:"execution,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

// DispatchResult summarizes one dispatch call. Action failures live inside
// the execution records; they are never dispatch errors.
type DispatchResult struct {
	EventKind   models.TriggerKind `json:"event_kind"`
	WorkspaceID string             `json:"workspace_id"`
	DedupKey    string             `json:"dedup_key"`
	Workflows   []WorkflowResult   `json:"workflows"`
}

// Dispatcher is the single entry point for all event producers. It resolves
// matching workflows, consults the guard, and runs first-time matches
// sequentially; one workflow's failure never touches a sibling's execution.
type Dispatcher struct {
	workflows persistence.WorkflowRepository
	guard     *Guard
	matcher   *Matcher
	runner    *Runner
	logger    *slog.Logger
}

func NewDispatcher(store persistence.Persistence, reg *registry.Registry, policy Policy, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		workflows: store.WorkflowRepository(),
		guard:     NewGuard(store.ExecutionRepository()),
		matcher:   NewMatcher(logger),
		runner:    NewRunner(reg, policy, logger),
		logger:    logger.With("module", "dispatcher"),
	}
}

// Dispatch processes one domain event. It returns an error only for input
// errors (malformed event) and for a failed candidate lookup; everything
// after that is reported per workflow in the result so the caller can
// acknowledge its own upstream regardless of automation outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.DomainEvent) (*DispatchResult, error) {
	err := event.Validate()
	if err != nil {
		return nil, err
	}

	tracer := otel.Tracer("github.com/atelierhq/pulse/pkg/automation")

	ctx, span := otelhelper.StartSpan(ctx, tracer, "automation.dispatch",
		attribute.String(otelhelper.EventKindKey, string(event.Kind)),
		attribute.String(otelhelper.WorkspaceIDKey, event.WorkspaceID),
		attribute.String(otelhelper.DedupKeyKey, event.DedupKey),
	)
	defer span.End()

	logger := d.logger.With(
		"event_kind", event.Kind,
		"workspace_id", event.WorkspaceID,
		"dedup_key", event.DedupKey,
	)

	candidates, err := d.workflows.EnabledByTrigger(ctx, event.WorkspaceID, event.Kind)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	matched := d.matcher.Match(event, candidates)

	result := &DispatchResult{
		EventKind:   event.Kind,
		WorkspaceID: event.WorkspaceID,
		DedupKey:    event.DedupKey,
		Workflows:   make([]WorkflowResult, 0, len(matched)),
	}

	if len(matched) == 0 {
		logger.Debug("No workflow matched event")

		return result, nil
	}

	for _, workflow := range matched {
		result.Workflows = append(result.Workflows, d.process(ctx, workflow, event))
	}

	logger.Info("Dispatched event", "matched", len(matched))

	return result, nil
}

func (d *Dispatcher) process(ctx context.Context, workflow *models.Workflow, event models.DomainEvent) WorkflowResult {
	result := WorkflowResult{
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
	}

	record, started, err := d.guard.Begin(ctx, workflow, event)
	if err != nil {
		d.logger.Error("Failed to reserve execution",
			"workflow_id", workflow.ID,
			"dedup_key", event.DedupKey,
			"error", err)

		result.Outcome = OutcomeError
		result.Error = err.Error()

		return result
	}

	if !started {
		d.logger.Info("Event already processed by workflow, skipping",
			"workflow_id", workflow.ID,
			"dedup_key", event.DedupKey,
			"prior_status", record.Status)

		result.Outcome = OutcomeSkipped
		result.Execution = record

		return result
	}

	status, actions := d.runner.Run(ctx, workflow, event)
	record.Finish(status, actions)

	err = d.guard.Complete(ctx, record)
	if err != nil {
		// The side effects are done; the record just failed to seal. Surface
		// it per workflow without discarding the outcome.
		d.logger.Error("Failed to seal execution record",
			"workflow_id", workflow.ID,
			"execution_id", record.ID,
			"error", err)

		result.Outcome = OutcomeError
		result.Execution = record
		result.Error = err.Error()

		return result
	}

	result.Outcome = OutcomeRan
	result.Execution = record

	return result
}
