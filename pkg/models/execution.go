package models

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the overall outcome of one (workflow, event) processing
// attempt.
type ExecutionStatus string

const (
	ExecutionRunning         ExecutionStatus = "running"
	ExecutionSucceeded       ExecutionStatus = "succeeded"
	ExecutionPartiallyFailed ExecutionStatus = "partially_failed"
	ExecutionFailed          ExecutionStatus = "failed"
)

// ActionStatus is the outcome of a single action within an execution.
type ActionStatus string

const (
	ActionSucceeded ActionStatus = "succeeded"
	ActionFailed    ActionStatus = "failed"
	ActionSkipped   ActionStatus = "skipped"
)

// ActionResult records the outcome of one action invocation, including how
// many attempts the retry policy spent on it.
type ActionResult struct {
	Index    int            `json:"index"`
	Kind     ActionKind     `json:"kind"`
	Status   ActionStatus   `json:"status"`
	Attempts int            `json:"attempts"`
	Error    string         `json:"error,omitempty"`
	Output   map[string]any `json:"output,omitempty"`
}

// ExecutionRecord is the durable outcome of one (workflow, dedup key) pair.
// It is created in running state before any side effect, updated as actions
// complete, and immutable once the dispatch finishes. The (workflow_id,
// dedup_key) pair is the idempotency unit: inserting it is conditional and
// the losing concurrent writer treats the conflict as "already processed".
type ExecutionRecord struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	WorkspaceID string          `json:"workspace_id"`
	DedupKey    string          `json:"dedup_key"`
	Status      ExecutionStatus `json:"status"`
	Actions     []ActionResult  `json:"actions,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// NewExecutionRecord starts a running record for a matched workflow.
func NewExecutionRecord(workflowID, workspaceID, dedupKey string) *ExecutionRecord {
	return &ExecutionRecord{
		ID:          uuid.New().String(),
		WorkflowID:  workflowID,
		WorkspaceID: workspaceID,
		DedupKey:    dedupKey,
		Status:      ExecutionRunning,
		StartedAt:   time.Now().UTC(),
	}
}

// Finish seals the record with its final status.
func (r *ExecutionRecord) Finish(status ExecutionStatus, actions []ActionResult) {
	now := time.Now().UTC()
	r.Status = status
	r.Actions = actions
	r.FinishedAt = &now
}
