// Package memory provides an in-memory persistence implementation, used by
// tests and single-process setups.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
)

// Persistence keeps workflows and execution records in process memory. All
// methods are safe for concurrent use; TryInsert is atomic under the mutex,
// which is what the idempotency guard relies on.
type Persistence struct {
	mu         sync.Mutex
	workflows  map[string]*models.Workflow       // keyed by workflow ID
	executions map[string]*models.ExecutionRecord // keyed by workflowID + "\x00" + dedupKey
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows:  make(map[string]*models.Workflow),
		executions: make(map[string]*models.ExecutionRecord),
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return &workflowRepository{p: p}
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return &executionRepository{p: p}
}

func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

func (p *Persistence) Close(_ context.Context) error { return nil }

func executionKey(workflowID, dedupKey string) string {
	return workflowID + "\x00" + dedupKey
}

type workflowRepository struct {
	p *Persistence
}

func (r *workflowRepository) ListByWorkspace(_ context.Context, workspaceID string) ([]*models.Workflow, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	workflows := make([]*models.Workflow, 0)

	for _, workflow := range r.p.workflows {
		if workflow.WorkspaceID == workspaceID && workflow.DeletedAt == nil {
			workflows = append(workflows, cloneWorkflow(workflow))
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *workflowRepository) EnabledByTrigger(_ context.Context, workspaceID string, kind models.TriggerKind) ([]*models.Workflow, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	workflows := make([]*models.Workflow, 0)

	for _, workflow := range r.p.workflows {
		if workflow.WorkspaceID != workspaceID || workflow.DeletedAt != nil {
			continue
		}

		if !workflow.Enabled || workflow.Trigger.Kind != kind {
			continue
		}

		workflows = append(workflows, cloneWorkflow(workflow))
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *workflowRepository) GetByID(_ context.Context, workspaceID, id string) (*models.Workflow, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	workflow, ok := r.p.workflows[id]
	if !ok || workflow.WorkspaceID != workspaceID || workflow.DeletedAt != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return cloneWorkflow(workflow), nil
}

func (r *workflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	r.p.workflows[workflow.ID] = cloneWorkflow(workflow)

	return nil
}

func (r *workflowRepository) Delete(_ context.Context, workspaceID, id string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	workflow, ok := r.p.workflows[id]
	if !ok || workflow.WorkspaceID != workspaceID || workflow.DeletedAt != nil {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	now := time.Now().UTC()
	workflow.DeletedAt = &now

	return nil
}

type executionRepository struct {
	p *Persistence
}

func (r *executionRepository) TryInsert(_ context.Context, record *models.ExecutionRecord) (bool, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	key := executionKey(record.WorkflowID, record.DedupKey)
	if _, exists := r.p.executions[key]; exists {
		return false, nil
	}

	r.p.executions[key] = cloneExecution(record)

	return true, nil
}

func (r *executionRepository) Update(_ context.Context, record *models.ExecutionRecord) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	key := executionKey(record.WorkflowID, record.DedupKey)
	if _, exists := r.p.executions[key]; !exists {
		return persistence.NewExecutionError("Update", record.ID, persistence.ErrExecutionNotFound)
	}

	r.p.executions[key] = cloneExecution(record)

	return nil
}

func (r *executionRepository) GetByDedupKey(_ context.Context, workflowID, dedupKey string) (*models.ExecutionRecord, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	record, ok := r.p.executions[executionKey(workflowID, dedupKey)]
	if !ok {
		return nil, persistence.NewExecutionError("GetByDedupKey", dedupKey, persistence.ErrExecutionNotFound)
	}

	return cloneExecution(record), nil
}

func (r *executionRepository) ListByWorkflow(_ context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	records := make([]*models.ExecutionRecord, 0)

	for _, record := range r.p.executions {
		if record.WorkflowID == workflowID {
			records = append(records, cloneExecution(record))
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func cloneWorkflow(workflow *models.Workflow) *models.Workflow {
	clone := *workflow
	clone.Actions = append([]models.ActionItem(nil), workflow.Actions...)

	return &clone
}

func cloneExecution(record *models.ExecutionRecord) *models.ExecutionRecord {
	clone := *record
	clone.Actions = append([]models.ActionResult(nil), record.Actions...)

	return &clone
}
