package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
)

// WorkflowRepository stores each workflow as <root>/workflows/<id>.json.
type WorkflowRepository struct {
	root string
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(id string) string {
	return filepath.Join(wr.dir(), id+".json")
}

func (wr *WorkflowRepository) loadAll(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(wr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-len(".json")]

		workflow, err := wr.read(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		if workflow != nil {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

func (wr *WorkflowRepository) read(_ context.Context, id string) (*models.Workflow, error) {
	data, err := os.ReadFile(wr.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow file: %w", err)
	}

	return &workflow, nil
}

func (wr *WorkflowRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.Workflow, error) {
	all, err := wr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if workflow.WorkspaceID == workspaceID && workflow.DeletedAt == nil {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (wr *WorkflowRepository) EnabledByTrigger(ctx context.Context, workspaceID string, kind models.TriggerKind) ([]*models.Workflow, error) {
	all, err := wr.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if workflow.Enabled && workflow.Trigger.Kind == kind {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (wr *WorkflowRepository) GetByID(ctx context.Context, workspaceID, id string) (*models.Workflow, error) {
	workflow, err := wr.read(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil || workflow.WorkspaceID != workspaceID || workflow.DeletedAt != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	err := os.MkdirAll(wr.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}

	err = os.WriteFile(wr.path(workflow.ID), data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write workflow file: %w", err)
	}

	return nil
}

func (wr *WorkflowRepository) Delete(ctx context.Context, workspaceID, id string) error {
	workflow, err := wr.GetByID(ctx, workspaceID, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	workflow.DeletedAt = &now

	return wr.Save(ctx, workflow)
}
