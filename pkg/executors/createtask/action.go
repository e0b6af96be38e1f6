// Package createtask implements the create_task action executor.
package createtask

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/protocol"
	"github.com/atelierhq/pulse/pkg/template"
)

// Task is one task creation request for the task management collaborator.
type Task struct {
	Title       string
	Description string
	AssigneeID  string
	ClientID    string
	DueAt       *time.Time
}

// TaskService is the external task management collaborator.
type TaskService interface {
	Create(ctx context.Context, workspaceID string, task Task) (string, error)
}

// Config is the create_task action configuration.
type Config struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AssigneeID  string `json:"assignee_id,omitempty"`
	DueInDays   int    `json:"due_in_days,omitempty"`
}

const configSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"assignee_id": {"type": "string"},
		"due_in_days": {"type": "integer", "minimum": 0}
	},
	"required": ["title"],
	"additionalProperties": false
}`

type Factory struct {
	tasks TaskService
}

func NewFactory(tasks TaskService) *Factory {
	return &Factory{tasks: tasks}
}

func (f *Factory) Kind() models.ActionKind {
	return models.ActionCreateTask
}

func (f *Factory) ConfigSchema() string {
	return configSchema
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode create_task configuration: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(raw, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode create_task configuration: %w", err)
	}

	if cfg.Title == "" {
		return nil, fmt.Errorf("create_task requires a title")
	}

	return &Action{config: cfg, tasks: f.tasks}, nil
}

// Action creates one task per event.
type Action struct {
	config Config
	tasks  TaskService
}

func (a *Action) Execute(ctx context.Context, event models.DomainEvent) (map[string]any, error) {
	title, err := template.RenderWithEvent(a.config.Title, event)
	if err != nil {
		return nil, err
	}

	if title == "" {
		return nil, fmt.Errorf("create_task title rendered empty for event %s", event.DedupKey)
	}

	description, err := template.RenderWithEvent(a.config.Description, event)
	if err != nil {
		return nil, err
	}

	task := Task{
		Title:       title,
		Description: description,
		AssigneeID:  a.config.AssigneeID,
	}

	if clientID, ok := event.PayloadString("client_id"); ok {
		task.ClientID = clientID
	}

	if a.config.DueInDays > 0 {
		dueAt := time.Now().UTC().AddDate(0, 0, a.config.DueInDays)
		task.DueAt = &dueAt
	}

	taskID, err := a.tasks.Create(ctx, event.WorkspaceID, task)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"task_id": taskID,
		"title":   title,
	}, nil
}
