package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atelierhq/pulse/pkg/events"
	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/protocol"
	"github.com/atelierhq/pulse/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAction struct {
	execute func(ctx context.Context, event models.DomainEvent) (map[string]any, error)
}

func (a *scriptedAction) Execute(ctx context.Context, event models.DomainEvent) (map[string]any, error) {
	return a.execute(ctx, event)
}

type scriptedFactory struct {
	kind   models.ActionKind
	create func(config map[string]any) (protocol.Action, error)
}

func (f *scriptedFactory) Kind() models.ActionKind { return f.kind }

func (f *scriptedFactory) ConfigSchema() string { return `{"type": "object"}` }

func (f *scriptedFactory) Create(config map[string]any) (protocol.Action, error) {
	return f.create(config)
}

// callRecorder tracks executor invocations across goroutines.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, name)
}

func (r *callRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

func registerScripted(reg *registry.Registry, kind models.ActionKind, execute func(ctx context.Context, event models.DomainEvent) (map[string]any, error)) {
	reg.RegisterAction(&scriptedFactory{
		kind: kind,
		create: func(_ map[string]any) (protocol.Action, error) {
			return &scriptedAction{execute: execute}, nil
		},
	})
}

func testWorkflow(actions ...models.ActionItem) *models.Workflow {
	return &models.Workflow{
		ID:          "wf_1",
		WorkspaceID: "ws_1",
		Name:        "Invoice follow-up",
		Trigger:     models.TriggerItem{Kind: models.TriggerInvoicePaid},
		Actions:     actions,
		Enabled:     true,
	}
}

func quickPolicy() Policy {
	return Policy{MaxAttempts: 3, RetryDelay: time.Millisecond, ActionTimeout: time.Second}
}

func invoiceEvent() models.DomainEvent {
	return events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)
}

func TestRunner_RunsActionsInOrder(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	recorder := &callRecorder{}

	registerScripted(reg, models.ActionCreateTask, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		recorder.record("create_task")

		return map[string]any{"task_id": "t_1"}, nil
	})
	registerScripted(reg, models.ActionSendChatMessage, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		recorder.record("send_chat_message")

		return nil, nil
	})

	runner := NewRunner(reg, quickPolicy(), testLogger())
	workflow := testWorkflow(
		models.ActionItem{Kind: models.ActionCreateTask},
		models.ActionItem{Kind: models.ActionSendChatMessage},
	)

	status, results := runner.Run(context.Background(), workflow, invoiceEvent())

	assert.Equal(t, models.ExecutionSucceeded, status)
	assert.Equal(t, []string{"create_task", "send_chat_message"}, recorder.snapshot())

	require.Len(t, results, 2)
	assert.Equal(t, models.ActionSucceeded, results[0].Status)
	assert.Equal(t, "t_1", results[0].Output["task_id"])
	assert.Equal(t, models.ActionSucceeded, results[1].Status)
}

func TestRunner_FailFastSkipsRemainingActions(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	recorder := &callRecorder{}

	registerScripted(reg, models.ActionCreateTask, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		recorder.record("create_task")

		return nil, nil
	})
	registerScripted(reg, models.ActionSendEmail, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		recorder.record("send_email")

		return nil, errors.New("no recipient")
	})
	registerScripted(reg, models.ActionMoveCard, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		recorder.record("move_card")

		return nil, nil
	})

	runner := NewRunner(reg, quickPolicy(), testLogger())
	workflow := testWorkflow(
		models.ActionItem{Kind: models.ActionCreateTask},
		models.ActionItem{Kind: models.ActionSendEmail},
		models.ActionItem{Kind: models.ActionMoveCard},
	)

	status, results := runner.Run(context.Background(), workflow, invoiceEvent())

	assert.Equal(t, models.ExecutionPartiallyFailed, status)
	assert.Equal(t, []string{"create_task", "send_email"}, recorder.snapshot())

	require.Len(t, results, 3)
	assert.Equal(t, models.ActionSucceeded, results[0].Status)
	assert.Equal(t, models.ActionFailed, results[1].Status)
	assert.Equal(t, "no recipient", results[1].Error)
	assert.Equal(t, models.ActionSkipped, results[2].Status)
	assert.Zero(t, results[2].Attempts)
}

func TestRunner_FirstActionFailureIsFailed(t *testing.T) {
	reg := registry.NewRegistry(testLogger())

	registerScripted(reg, models.ActionSendEmail, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		return nil, errors.New("no recipient")
	})

	runner := NewRunner(reg, quickPolicy(), testLogger())
	workflow := testWorkflow(models.ActionItem{Kind: models.ActionSendEmail})

	status, results := runner.Run(context.Background(), workflow, invoiceEvent())

	assert.Equal(t, models.ExecutionFailed, status)
	require.Len(t, results, 1)
	assert.Equal(t, models.ActionFailed, results[0].Status)
}

func TestRunner_TransientFailureRetriesUpToBudget(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	attempts := 0

	registerScripted(reg, models.ActionSendEmail, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		attempts++

		return nil, Transient(errors.New("mail gateway 503"))
	})

	runner := NewRunner(reg, quickPolicy(), testLogger())
	workflow := testWorkflow(models.ActionItem{Kind: models.ActionSendEmail})

	status, results := runner.Run(context.Background(), workflow, invoiceEvent())

	assert.Equal(t, models.ExecutionFailed, status)
	assert.Equal(t, 3, attempts)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, models.ActionFailed, results[0].Status)
}

func TestRunner_TransientFailureRecoversWithinBudget(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	attempts := 0

	registerScripted(reg, models.ActionSendEmail, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		attempts++
		if attempts < 3 {
			return nil, Transient(errors.New("mail gateway 503"))
		}

		return map[string]any{"recipient": "ada@example.com"}, nil
	})

	runner := NewRunner(reg, quickPolicy(), testLogger())
	workflow := testWorkflow(models.ActionItem{Kind: models.ActionSendEmail})

	status, results := runner.Run(context.Background(), workflow, invoiceEvent())

	assert.Equal(t, models.ExecutionSucceeded, status)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, models.ActionSucceeded, results[0].Status)
	assert.Empty(t, results[0].Error)
}

func TestRunner_PermanentFailureNeverRetries(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	attempts := 0

	registerScripted(reg, models.ActionSendEmail, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		attempts++

		return nil, errors.New("no recipient")
	})

	runner := NewRunner(reg, quickPolicy(), testLogger())
	workflow := testWorkflow(models.ActionItem{Kind: models.ActionSendEmail})

	_, results := runner.Run(context.Background(), workflow, invoiceEvent())

	assert.Equal(t, 1, attempts)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Attempts)
}

func TestRunner_UnknownKindFailsPermanently(t *testing.T) {
	reg := registry.NewRegistry(testLogger())

	runner := NewRunner(reg, quickPolicy(), testLogger())
	workflow := testWorkflow(models.ActionItem{Kind: models.ActionKind("teleport")})

	status, results := runner.Run(context.Background(), workflow, invoiceEvent())

	assert.Equal(t, models.ExecutionFailed, status)
	require.Len(t, results, 1)
	assert.Equal(t, models.ActionFailed, results[0].Status)
	assert.Equal(t, 1, results[0].Attempts)
	assert.Contains(t, results[0].Error, "not registered")
}
