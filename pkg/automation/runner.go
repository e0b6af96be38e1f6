package automation

import (
	"context"
	"log/slog"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/registry"
)

// Policy bounds action execution. The retry budget applies per action and
// only to transient failures; permanent failures spend exactly one attempt.
type Policy struct {
	// MaxAttempts is the total number of attempts per action, first try
	// included.
	MaxAttempts int

	// RetryDelay is slept between attempts of the same action.
	RetryDelay time.Duration

	// ActionTimeout bounds a single attempt. A timed-out attempt counts as
	// transient.
	ActionTimeout time.Duration
}

// DefaultPolicy returns the tunable defaults: one first try plus two
// immediate retries, 30s per attempt.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		RetryDelay:    250 * time.Millisecond,
		ActionTimeout: 30 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	if p.ActionTimeout <= 0 {
		p.ActionTimeout = 30 * time.Second
	}

	return p
}

// Runner executes one workflow's action list against one event. Actions run
// strictly in list order; the first failure stops the list (effects already
// made are not rolled back) and the remaining actions are recorded skipped.
type Runner struct {
	registry *registry.Registry
	policy   Policy
	logger   *slog.Logger
}

func NewRunner(reg *registry.Registry, policy Policy, logger *slog.Logger) *Runner {
	return &Runner{
		registry: reg,
		policy:   policy.normalized(),
		logger:   logger.With("module", "action_runner"),
	}
}

// Run executes the workflow's actions and reports the overall status with
// per-action results. It never returns an error: action failures are data,
// recorded in the results, not propagated.
func (r *Runner) Run(ctx context.Context, workflow *models.Workflow, event models.DomainEvent) (models.ExecutionStatus, []models.ActionResult) {
	logger := r.logger.With(
		"workflow_id", workflow.ID,
		"event_kind", event.Kind,
		"dedup_key", event.DedupKey,
	)

	results := make([]models.ActionResult, 0, len(workflow.Actions))
	succeeded := 0
	failedAt := -1

	for index, action := range workflow.Actions {
		if failedAt >= 0 {
			results = append(results, models.ActionResult{
				Index:  index,
				Kind:   action.Kind,
				Status: models.ActionSkipped,
			})

			continue
		}

		result := r.runAction(ctx, logger, index, action, event)
		results = append(results, result)

		if result.Status == models.ActionSucceeded {
			succeeded++
		} else {
			failedAt = index

			logger.Warn("Action failed, stopping workflow",
				"action_index", index,
				"action_kind", action.Kind,
				"attempts", result.Attempts,
				"error", result.Error)
		}
	}

	switch {
	case failedAt < 0:
		return models.ExecutionSucceeded, results
	case succeeded > 0:
		return models.ExecutionPartiallyFailed, results
	default:
		return models.ExecutionFailed, results
	}
}

func (r *Runner) runAction(ctx context.Context, logger *slog.Logger, index int, item models.ActionItem, event models.DomainEvent) models.ActionResult {
	result := models.ActionResult{
		Index: index,
		Kind:  item.Kind,
	}

	action, err := r.registry.CreateAction(item.Kind, item.Configuration)
	if err != nil {
		// Construction failures are configuration problems: permanent, no
		// attempt is spent on a collaborator.
		result.Status = models.ActionFailed
		result.Attempts = 1
		result.Error = err.Error()

		return result
	}

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if attempt > 1 {
			logger.Info("Retrying action",
				"action_index", index,
				"action_kind", item.Kind,
				"attempt", attempt)

			select {
			case <-time.After(r.policy.RetryDelay):
			case <-ctx.Done():
				result.Status = models.ActionFailed
				result.Error = ctx.Err().Error()

				return result
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.policy.ActionTimeout)
		output, err := action.Execute(attemptCtx, event)
		cancel()

		if err == nil {
			result.Status = models.ActionSucceeded
			result.Output = output
			result.Error = ""

			return result
		}

		result.Error = err.Error()

		if !IsTransient(err) {
			break
		}
	}

	result.Status = models.ActionFailed

	return result
}
