package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
)

// ExecutionRepository stores one file per (workflow, dedup key) pair. The
// conditional insert maps onto O_CREATE|O_EXCL: the file system arbitrates
// which concurrent dispatch wins.
type ExecutionRepository struct {
	root string
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir(workflowID string) string {
	return filepath.Join(er.root, "executions", workflowID)
}

func (er *ExecutionRepository) path(workflowID, dedupKey string) string {
	return filepath.Join(er.dir(workflowID), url.PathEscape(dedupKey)+".json")
}

func (er *ExecutionRepository) TryInsert(_ context.Context, record *models.ExecutionRecord) (bool, error) {
	err := os.MkdirAll(er.dir(record.WorkflowID), 0o755)
	if err != nil {
		return false, fmt.Errorf("failed to create executions directory: %w", err)
	}

	handle, err := os.OpenFile(er.path(record.WorkflowID, record.DedupKey), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to create execution file: %w", err)
	}
	defer handle.Close()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode execution record: %w", err)
	}

	_, err = handle.Write(data)
	if err != nil {
		return false, fmt.Errorf("failed to write execution record: %w", err)
	}

	return true, nil
}

func (er *ExecutionRepository) Update(_ context.Context, record *models.ExecutionRecord) error {
	path := er.path(record.WorkflowID, record.DedupKey)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return persistence.NewExecutionError("Update", record.ID, persistence.ErrExecutionNotFound)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution record: %w", err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write execution record: %w", err)
	}

	return nil
}

func (er *ExecutionRepository) GetByDedupKey(_ context.Context, workflowID, dedupKey string) (*models.ExecutionRecord, error) {
	data, err := os.ReadFile(er.path(workflowID, dedupKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("GetByDedupKey", dedupKey, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to read execution record: %w", err)
	}

	var record models.ExecutionRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to decode execution record: %w", err)
	}

	return &record, nil
}

func (er *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error) {
	root := os.DirFS(er.dir(workflowID))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		dedupKey, err := url.PathUnescape(file[:len(file)-len(".json")])
		if err != nil {
			continue
		}

		record, err := er.GetByDedupKey(ctx, workflowID, dedupKey)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}
