// Package models defines the core domain models for the automation engine.
package models

import "time"

// Workflow binds one trigger to an ordered, non-empty action list, scoped to
// the workspace that owns it. Enabled is soft state toggled independently of
// content edits; deleting a workflow removes it from future matching but never
// touches past execution records.
type Workflow struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"          validate:"required"`
	Name        string       `json:"name"                  validate:"required,min=3"`
	Description string       `json:"description,omitempty"`
	Trigger     TriggerItem  `json:"trigger"`
	Actions     []ActionItem `json:"actions"               validate:"required,min=1,dive"`
	Enabled     bool         `json:"enabled"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}
