// Package persistence provides the storage abstraction for workflow
// definitions and execution records.
package persistence

import (
	"context"

	"github.com/atelierhq/pulse/pkg/models"
)

// WorkflowRepository persists workflow definitions scoped to a workspace.
type WorkflowRepository interface {
	// ListByWorkspace returns all non-deleted workflows of a workspace.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.Workflow, error)

	// EnabledByTrigger returns the enabled workflows of a workspace whose
	// trigger kind matches. Fine-grained configuration matching is the
	// dispatcher's job, not the store's.
	EnabledByTrigger(ctx context.Context, workspaceID string, kind models.TriggerKind) ([]*models.Workflow, error)

	GetByID(ctx context.Context, workspaceID, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error

	// Delete soft-deletes a workflow. Past execution records are untouched.
	Delete(ctx context.Context, workspaceID, id string) error
}

// ExecutionRepository persists execution records. TryInsert is the
// idempotency primitive: it must be atomic per (workflow_id, dedup_key) so
// that concurrent dispatches for the same pair serialize on the insert.
type ExecutionRepository interface {
	// TryInsert inserts the record unless one already exists for its
	// (workflow_id, dedup_key) pair. Returns false on conflict.
	TryInsert(ctx context.Context, record *models.ExecutionRecord) (bool, error)

	// Update replaces the record identified by (workflow_id, dedup_key).
	// Only the dispatch that won TryInsert ever calls it.
	Update(ctx context.Context, record *models.ExecutionRecord) error

	GetByDedupKey(ctx context.Context, workflowID, dedupKey string) (*models.ExecutionRecord, error)
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error)
}

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
