package services

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
	"github.com/atelierhq/pulse/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow is the management service for workflow definitions. Every write
// passes structural validation plus per-kind action config schema checks, so
// a workflow that saves cleanly cannot fail permanently on malformed
// configuration at dispatch time.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	validate    *validator.Validate
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry) *Workflow {
	return &Workflow{
		persistence: persistence,
		registry:    registry,
		validate:    validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves a workspace's workflows, most recent first.
func (w *Workflow) List(ctx context.Context, workspaceID string) ([]*models.Workflow, error) {
	if workspaceID == "" {
		return nil, ErrEmptyWorkspaceID
	}

	workflows, err := w.persistence.WorkflowRepository().ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID within a workspace.
func (w *Workflow) FetchByID(ctx context.Context, workspaceID, id string) (*models.Workflow, error) {
	if workspaceID == "" {
		return nil, ErrEmptyWorkspaceID
	}

	return w.persistence.WorkflowRepository().GetByID(ctx, workspaceID, id)
}

// Create validates and stores a new workflow. New workflows start disabled;
// enabling is an explicit separate step.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	err := w.validateDefinition(workflow)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	workflow.Enabled = false
	workflow.DeletedAt = nil

	for i := range workflow.Actions {
		if workflow.Actions[i].ID == "" {
			workflow.Actions[i].ID = uuid.New().String()
		}
	}

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces a workflow's definition, keeping its identity, enabled
// state, and creation time.
func (w *Workflow) Update(ctx context.Context, workspaceID, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.persistence.WorkflowRepository().GetByID(ctx, workspaceID, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.ID = existing.ID
	workflow.WorkspaceID = existing.WorkspaceID
	workflow.Enabled = existing.Enabled
	workflow.CreatedBy = existing.CreatedBy
	workflow.CreatedAt = existing.CreatedAt
	workflow.DeletedAt = nil

	err = w.validateDefinition(workflow)
	if err != nil {
		return nil, err
	}

	workflow.UpdatedAt = time.Now().UTC()

	for i := range workflow.Actions {
		if workflow.Actions[i].ID == "" {
			workflow.Actions[i].ID = uuid.New().String()
		}
	}

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// SetEnabled toggles a workflow in or out of the matching set without
// touching its definition.
func (w *Workflow) SetEnabled(ctx context.Context, workspaceID, workflowID string, enabled bool) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, workspaceID, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Enabled == enabled {
		return workflow, nil
	}

	workflow.Enabled = enabled
	workflow.UpdatedAt = time.Now().UTC()

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle workflow: %w", err)
	}

	return workflow, nil
}

// Delete soft-deletes a workflow. Past execution records stay queryable.
func (w *Workflow) Delete(ctx context.Context, workspaceID, workflowID string) error {
	err := w.persistence.WorkflowRepository().Delete(ctx, workspaceID, workflowID)
	if err != nil {
		return err
	}

	return nil
}

// ListExecutions retrieves a workflow's execution records, most recent first.
func (w *Workflow) ListExecutions(ctx context.Context, workspaceID, workflowID string, limit int) ([]*models.ExecutionRecord, error) {
	// The workflow must exist in this workspace; execution records carry no
	// workspace check of their own on this path.
	_, err := w.persistence.WorkflowRepository().GetByID(ctx, workspaceID, workflowID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	records, err := w.persistence.ExecutionRepository().ListByWorkflow(ctx, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return records, nil
}

func (w *Workflow) validateDefinition(workflow *models.Workflow) error {
	err := w.validate.Struct(workflow)
	if err != nil {
		return NewValidationError("validateDefinition", "INVALID_WORKFLOW",
			err.Error(), ErrInvalidRequest)
	}

	if !workflow.Trigger.Kind.Valid() {
		return NewValidationError("validateDefinition", "UNKNOWN_TRIGGER_KIND",
			fmt.Sprintf("unknown trigger kind %q", workflow.Trigger.Kind),
			ErrUnknownTriggerKind)
	}

	if len(workflow.Actions) == 0 {
		return ErrActionsRequired
	}

	for i, action := range workflow.Actions {
		if !action.Kind.Valid() {
			return NewValidationError("validateDefinition", "UNKNOWN_ACTION_KIND",
				fmt.Sprintf("action %d: unknown kind %q", i, action.Kind),
				ErrUnknownActionKind)
		}

		err = w.registry.ValidateConfig(action.Kind, action.Configuration)
		if err != nil {
			return NewValidationError("validateDefinition", "INVALID_ACTION_CONFIG",
				fmt.Sprintf("action %d (%s): %v", i, action.Kind, err),
				ErrInvalidActionConfig)
		}
	}

	return nil
}
