package createtask

import (
	"context"
	"testing"

	"github.com/atelierhq/pulse/pkg/automation"
	"github.com/atelierhq/pulse/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTaskService struct {
	created []Task
	nextID  string
	err     error
}

func (s *fakeTaskService) Create(_ context.Context, _ string, task Task) (string, error) {
	if s.err != nil {
		return "", s.err
	}

	s.created = append(s.created, task)

	return s.nextID, nil
}

func TestFactory_Create_RequiresTitle(t *testing.T) {
	factory := NewFactory(&fakeTaskService{})

	_, err := factory.Create(map[string]any{"description": "no title"})
	assert.Error(t, err)
}

func TestAction_Execute_CreatesTaskFromEvent(t *testing.T) {
	tasks := &fakeTaskService{nextID: "task_100"}
	factory := NewFactory(tasks)

	action, err := factory.Create(map[string]any{
		"title":       "Kick off for invoice {{.payload.invoice_id}}",
		"assignee_id": "user-1",
		"due_in_days": 3,
	})
	require.NoError(t, err)

	event := events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	output, err := action.Execute(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, tasks.created, 1)
	created := tasks.created[0]
	assert.Equal(t, "Kick off for invoice inv_42", created.Title)
	assert.Equal(t, "user-1", created.AssigneeID)
	assert.Equal(t, "c_9", created.ClientID)
	require.NotNil(t, created.DueAt)
	assert.Equal(t, "task_100", output["task_id"])
}

func TestAction_Execute_EmptyRenderedTitleIsPermanent(t *testing.T) {
	tasks := &fakeTaskService{}
	factory := NewFactory(tasks)

	action, err := factory.Create(map[string]any{"title": "{{.payload.missing_field}}"})
	require.NoError(t, err)

	event := events.NewTaskCompleted("ws_1", "task_7", "c_9")

	_, err = action.Execute(context.Background(), event)
	require.Error(t, err)
	assert.False(t, automation.IsTransient(err))
	assert.Empty(t, tasks.created)
}

func TestAction_Execute_ServiceErrorPropagates(t *testing.T) {
	tasks := &fakeTaskService{err: automation.Transient(assert.AnError)}
	factory := NewFactory(tasks)

	action, err := factory.Create(map[string]any{"title": "Follow up"})
	require.NoError(t, err)

	event := events.NewClientCreated("ws_1", "c_9", "ada@example.com")

	_, err = action.Execute(context.Background(), event)
	require.Error(t, err)
	assert.True(t, automation.IsTransient(err))
}
