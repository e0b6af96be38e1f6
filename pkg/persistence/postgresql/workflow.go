package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , workspace_id
  , name
  , description
  , trigger
  , actions
  , enabled
  , created_by
  , created_at
  , updated_at
  , deleted_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WorkflowRepository) scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow    models.Workflow
		triggerJSON []byte
		actionsJSON []byte
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.WorkspaceID,
		&workflow.Name,
		&workflow.Description,
		&triggerJSON,
		&actionsJSON,
		&workflow.Enabled,
		&workflow.CreatedBy,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(triggerJSON, &workflow.Trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow trigger: %w", err)
	}

	err = json.Unmarshal(actionsJSON, &workflow.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow actions: %w", err)
	}

	if deletedAt.Valid {
		workflow.DeletedAt = &deletedAt.Time
	}

	return &workflow, nil
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	return r.queryWorkflows(ctx, query, workspaceID)
}

func (r *WorkflowRepository) EnabledByTrigger(ctx context.Context, workspaceID string, kind models.TriggerKind) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE workspace_id = $1
		  AND trigger->>'kind' = $2
		  AND enabled
		  AND deleted_at IS NULL
		ORDER BY created_at ASC
	`

	return r.queryWorkflows(ctx, query, workspaceID, string(kind))
}

func (r *WorkflowRepository) GetByID(ctx context.Context, workspaceID, id string) (*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL
	`

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Save upserts a workflow.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	triggerJSON, err := json.Marshal(workflow.Trigger)
	if err != nil {
		return fmt.Errorf("failed to encode workflow trigger: %w", err)
	}

	actionsJSON, err := json.Marshal(workflow.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode workflow actions: %w", err)
	}

	query := `
		INSERT INTO workflows (
			id, workspace_id, name, description, trigger, actions,
			enabled, created_by, created_at, updated_at, deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name        = EXCLUDED.name,
			description = EXCLUDED.description,
			trigger     = EXCLUDED.trigger,
			actions     = EXCLUDED.actions,
			enabled     = EXCLUDED.enabled,
			updated_at  = EXCLUDED.updated_at,
			deleted_at  = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.WorkspaceID,
		workflow.Name,
		workflow.Description,
		triggerJSON,
		actionsJSON,
		workflow.Enabled,
		workflow.CreatedBy,
		workflow.CreatedAt,
		workflow.UpdatedAt,
		workflow.DeletedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow by setting the deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, workspaceID, id string) error {
	query := `
		UPDATE workflows
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, workspaceID)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
