package automation

import (
	"context"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
)

// Guard prevents the same event instance from re-triggering a workflow's
// side effects. Correctness under concurrent dispatch rests entirely on the
// store's conditional insert, never on application-level locks: the dispatch
// that wins the insert runs the actions, every other dispatch observes the
// prior record.
type Guard struct {
	executions persistence.ExecutionRepository
}

func NewGuard(executions persistence.ExecutionRepository) *Guard {
	return &Guard{executions: executions}
}

// Begin reserves the (workflow, dedup key) pair by inserting a running
// record. When the pair is already taken it returns the prior record and
// started=false; the caller must not perform any side effect in that case.
func (g *Guard) Begin(ctx context.Context, workflow *models.Workflow, event models.DomainEvent) (record *models.ExecutionRecord, started bool, err error) {
	record = models.NewExecutionRecord(workflow.ID, workflow.WorkspaceID, event.DedupKey)

	inserted, err := g.executions.TryInsert(ctx, record)
	if err != nil {
		return nil, false, err
	}

	if inserted {
		return record, true, nil
	}

	prior, err := g.executions.GetByDedupKey(ctx, workflow.ID, event.DedupKey)
	if err != nil {
		return nil, false, err
	}

	return prior, false, nil
}

// Complete seals the winning record with its final outcome. The side effects
// have already happened; a storage failure here is surfaced to the caller
// but cannot undo them.
func (g *Guard) Complete(ctx context.Context, record *models.ExecutionRecord) error {
	return g.executions.Update(ctx, record)
}
