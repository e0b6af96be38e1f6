package automation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atelierhq/pulse/pkg/events"
	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence/memory"
	"github.com/atelierhq/pulse/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveWorkflow(t *testing.T, store *memory.Persistence, workflow *models.Workflow) {
	t.Helper()
	require.NoError(t, store.WorkflowRepository().Save(context.Background(), workflow))
}

// registryWithRecorder registers no-op create_task and send_chat_message
// executors that note each invocation on the recorder.
func registryWithRecorder(t *testing.T, recorder *callRecorder) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(testLogger())

	for _, kind := range []models.ActionKind{models.ActionCreateTask, models.ActionSendChatMessage} {
		registerScripted(reg, kind, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
			recorder.record(string(kind))

			return nil, nil
		})
	}

	return reg
}

func TestDispatcher_RunsMatchedWorkflowOnce(t *testing.T) {
	store := memory.NewPersistence()
	recorder := &callRecorder{}
	reg := registryWithRecorder(t, recorder)

	saveWorkflow(t, store, &models.Workflow{
		ID:          "wf_invoice",
		WorkspaceID: "ws_1",
		Name:        "Invoice paid follow-up",
		Trigger:     models.TriggerItem{Kind: models.TriggerInvoicePaid},
		Actions: []models.ActionItem{
			{Kind: models.ActionCreateTask},
			{Kind: models.ActionSendChatMessage},
		},
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	})

	dispatcher := NewDispatcher(store, reg, quickPolicy(), testLogger())
	event := invoiceEvent()

	result, err := dispatcher.Dispatch(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)

	line := result.Workflows[0]
	assert.Equal(t, OutcomeRan, line.Outcome)
	require.NotNil(t, line.Execution)
	assert.Equal(t, models.ExecutionSucceeded, line.Execution.Status)
	assert.Equal(t, []string{"create_task", "send_chat_message"}, recorder.snapshot())

	// A redelivery of the same logical event is skipped without side effects
	// and reports the prior execution.
	again, err := dispatcher.Dispatch(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, again.Workflows, 1)

	skipped := again.Workflows[0]
	assert.Equal(t, OutcomeSkipped, skipped.Outcome)
	require.NotNil(t, skipped.Execution)
	assert.Equal(t, line.Execution.ID, skipped.Execution.ID)
	assert.Equal(t, []string{"create_task", "send_chat_message"}, recorder.snapshot())
}

func TestDispatcher_ActionFailureIsRecordedNotThrown(t *testing.T) {
	store := memory.NewPersistence()
	reg := registryWithRecorder(t, &callRecorder{})

	registerScripted(reg, models.ActionSendEmail, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		return nil, errors.New("no recipient available")
	})

	saveWorkflow(t, store, &models.Workflow{
		ID:          "wf_due",
		WorkspaceID: "ws_1",
		Name:        "Due date reminder",
		Trigger:     models.TriggerItem{Kind: models.TriggerDueDateApproaching},
		Actions:     []models.ActionItem{{Kind: models.ActionSendEmail}},
		Enabled:     true,
		CreatedAt:   time.Now().UTC(),
	})

	dispatcher := NewDispatcher(store, reg, quickPolicy(), testLogger())
	event := events.NewDueDateApproaching("ws_1", "task_7", "c_9", time.Now().Add(48*time.Hour), 2)

	result, err := dispatcher.Dispatch(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)

	line := result.Workflows[0]
	assert.Equal(t, OutcomeRan, line.Outcome)
	require.NotNil(t, line.Execution)
	assert.Equal(t, models.ExecutionFailed, line.Execution.Status)
	require.Len(t, line.Execution.Actions, 1)
	assert.Equal(t, models.ActionFailed, line.Execution.Actions[0].Status)
	assert.Contains(t, line.Execution.Actions[0].Error, "no recipient")
}

func TestDispatcher_SiblingWorkflowsAreIsolated(t *testing.T) {
	store := memory.NewPersistence()
	recorder := &callRecorder{}
	reg := registryWithRecorder(t, recorder)

	registerScripted(reg, models.ActionSendEmail, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		return nil, errors.New("no recipient available")
	})

	base := time.Now().UTC()

	saveWorkflow(t, store, &models.Workflow{
		ID:          "wf_failing",
		WorkspaceID: "ws_1",
		Name:        "Failing sibling",
		Trigger:     models.TriggerItem{Kind: models.TriggerInvoicePaid},
		Actions:     []models.ActionItem{{Kind: models.ActionSendEmail}},
		Enabled:     true,
		CreatedAt:   base,
	})
	saveWorkflow(t, store, &models.Workflow{
		ID:          "wf_healthy",
		WorkspaceID: "ws_1",
		Name:        "Healthy sibling",
		Trigger:     models.TriggerItem{Kind: models.TriggerInvoicePaid},
		Actions:     []models.ActionItem{{Kind: models.ActionCreateTask}},
		Enabled:     true,
		CreatedAt:   base.Add(time.Second),
	})

	dispatcher := NewDispatcher(store, reg, quickPolicy(), testLogger())

	result, err := dispatcher.Dispatch(context.Background(), invoiceEvent())
	require.NoError(t, err)
	require.Len(t, result.Workflows, 2)

	byID := map[string]WorkflowResult{}
	for _, line := range result.Workflows {
		byID[line.WorkflowID] = line
	}

	assert.Equal(t, models.ExecutionFailed, byID["wf_failing"].Execution.Status)
	assert.Equal(t, models.ExecutionSucceeded, byID["wf_healthy"].Execution.Status)
	assert.Contains(t, recorder.snapshot(), "create_task")
}

func TestDispatcher_NoMatchIsNoOp(t *testing.T) {
	store := memory.NewPersistence()
	reg := registryWithRecorder(t, &callRecorder{})

	saveWorkflow(t, store, &models.Workflow{
		ID:          "wf_other_kind",
		WorkspaceID: "ws_1",
		Name:        "Task completion ping",
		Trigger:     models.TriggerItem{Kind: models.TriggerTaskCompleted},
		Actions:     []models.ActionItem{{Kind: models.ActionSendChatMessage}},
		Enabled:     true,
		CreatedAt:   time.Now().UTC(),
	})

	dispatcher := NewDispatcher(store, reg, quickPolicy(), testLogger())

	result, err := dispatcher.Dispatch(context.Background(), invoiceEvent())
	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
}

func TestDispatcher_DisabledWorkflowNeverFires(t *testing.T) {
	store := memory.NewPersistence()
	recorder := &callRecorder{}
	reg := registryWithRecorder(t, recorder)

	saveWorkflow(t, store, &models.Workflow{
		ID:          "wf_disabled",
		WorkspaceID: "ws_1",
		Name:        "Paused follow-up",
		Trigger:     models.TriggerItem{Kind: models.TriggerInvoicePaid},
		Actions:     []models.ActionItem{{Kind: models.ActionCreateTask}},
		Enabled:     false,
		CreatedAt:   time.Now().UTC(),
	})

	dispatcher := NewDispatcher(store, reg, quickPolicy(), testLogger())

	result, err := dispatcher.Dispatch(context.Background(), invoiceEvent())
	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
	assert.Empty(t, recorder.snapshot())
}

func TestDispatcher_RejectsMalformedEvents(t *testing.T) {
	store := memory.NewPersistence()
	reg := registryWithRecorder(t, &callRecorder{})
	dispatcher := NewDispatcher(store, reg, quickPolicy(), testLogger())

	_, err := dispatcher.Dispatch(context.Background(), models.DomainEvent{
		Kind:        models.TriggerKind("meteor_strike"),
		WorkspaceID: "ws_1",
		DedupKey:    "x",
	})
	assert.ErrorIs(t, err, models.ErrUnknownEventKind)

	event := invoiceEvent()
	event.DedupKey = ""

	_, err = dispatcher.Dispatch(context.Background(), event)
	assert.ErrorIs(t, err, models.ErrEmptyDedupKey)
}

func TestDispatcher_ConcurrentSameKeyDispatchRunsOnce(t *testing.T) {
	store := memory.NewPersistence()
	reg := registryWithRecorder(t, &callRecorder{})

	var sideEffects atomic.Int64

	registerScripted(reg, models.ActionMoveCard, func(_ context.Context, _ models.DomainEvent) (map[string]any, error) {
		sideEffects.Add(1)

		return nil, nil
	})

	saveWorkflow(t, store, &models.Workflow{
		ID:          "wf_concurrent",
		WorkspaceID: "ws_1",
		Name:        "Card mover",
		Trigger:     models.TriggerItem{Kind: models.TriggerInvoicePaid},
		Actions:     []models.ActionItem{{Kind: models.ActionMoveCard}},
		Enabled:     true,
		CreatedAt:   time.Now().UTC(),
	})

	dispatcher := NewDispatcher(store, reg, quickPolicy(), testLogger())
	event := invoiceEvent()

	const dispatches = 16

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []WorkflowOutcome
	)

	for range dispatches {
		wg.Add(1)

		go func() {
			defer wg.Done()

			result, err := dispatcher.Dispatch(context.Background(), event)
			require.NoError(t, err)
			require.Len(t, result.Workflows, 1)

			mu.Lock()
			outcomes = append(outcomes, result.Workflows[0].Outcome)
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1), sideEffects.Load())

	ran := 0
	for _, outcome := range outcomes {
		if outcome == OutcomeRan {
			ran++
		} else {
			assert.Equal(t, OutcomeSkipped, outcome)
		}
	}

	assert.Equal(t, 1, ran)
}
