package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
)

// ExecutionRepository handles execution-record database operations. The
// conditional insert maps onto ON CONFLICT DO NOTHING over the table's
// (workflow_id, dedup_key) primary key.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (r *ExecutionRepository) TryInsert(ctx context.Context, record *models.ExecutionRecord) (bool, error) {
	actionsJSON, err := json.Marshal(record.Actions)
	if err != nil {
		return false, fmt.Errorf("failed to encode execution actions: %w", err)
	}

	query := `
		INSERT INTO executions (
			id, workflow_id, workspace_id, dedup_key, status, actions, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (workflow_id, dedup_key) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.WorkflowID,
		record.WorkspaceID,
		record.DedupKey,
		string(record.Status),
		actionsJSON,
		record.StartedAt,
		record.FinishedAt,
	)
	if err != nil {
		return false, persistence.NewExecutionError("TryInsert", record.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, persistence.NewExecutionError("TryInsert", record.ID, err)
	}

	return affected == 1, nil
}

func (r *ExecutionRepository) Update(ctx context.Context, record *models.ExecutionRecord) error {
	actionsJSON, err := json.Marshal(record.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode execution actions: %w", err)
	}

	query := `
		UPDATE executions
		SET status = $1, actions = $2, finished_at = $3
		WHERE workflow_id = $4 AND dedup_key = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		string(record.Status),
		actionsJSON,
		record.FinishedAt,
		record.WorkflowID,
		record.DedupKey,
	)
	if err != nil {
		return persistence.NewExecutionError("Update", record.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Update", record.ID, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("Update", record.ID, persistence.ErrExecutionNotFound)
	}

	return nil
}

const executionColumns = `
	id
  , workflow_id
  , workspace_id
  , dedup_key
  , status
  , actions
  , started_at
  , finished_at
`

func (r *ExecutionRepository) scanExecution(row rowScanner) (*models.ExecutionRecord, error) {
	var (
		record      models.ExecutionRecord
		status      string
		actionsJSON []byte
		finishedAt  sql.NullTime
	)

	err := row.Scan(
		&record.ID,
		&record.WorkflowID,
		&record.WorkspaceID,
		&record.DedupKey,
		&status,
		&actionsJSON,
		&record.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = models.ExecutionStatus(status)

	err = json.Unmarshal(actionsJSON, &record.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode execution actions: %w", err)
	}

	if finishedAt.Valid {
		record.FinishedAt = &finishedAt.Time
	}

	return &record, nil
}

func (r *ExecutionRepository) GetByDedupKey(ctx context.Context, workflowID, dedupKey string) (*models.ExecutionRecord, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE workflow_id = $1 AND dedup_key = $2
	`

	record, err := r.scanExecution(r.db.QueryRowContext(ctx, query, workflowID, dedupKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByDedupKey", dedupKey, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution record: %w", err)
	}

	return record, nil
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE workflow_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution records: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		record, err := r.scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution records: %w", err)
	}

	return records, nil
}
