package events

import (
	"testing"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoicePaid_DedupKeyStable(t *testing.T) {
	first := NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)
	second := NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	assert.Equal(t, "invoice:inv_42:paid", first.DedupKey)
	assert.Equal(t, first.DedupKey, second.DedupKey,
		"redelivered webhook must produce the same dedup key")
	assert.Equal(t, models.TriggerInvoicePaid, first.Kind)
	require.NoError(t, first.Validate())
}

func TestNewFunnelStepCompleted(t *testing.T) {
	event := NewFunnelStepCompleted("ws_1", "fn_1", "c_9", 3)

	assert.Equal(t, "funnel:fn_1:client:c_9:step:3", event.DedupKey)

	step, ok := event.PayloadString("step")
	require.True(t, ok)
	assert.Equal(t, "3", step)
	require.NoError(t, event.Validate())
}

func TestNewDueDateApproaching_KeyTracksDueDate(t *testing.T) {
	due := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	event := NewDueDateApproaching("ws_1", "task_7", "c_9", due, 2)
	assert.Equal(t, "task:task_7:due:2026-03-14", event.DedupKey)

	rescheduled := NewDueDateApproaching("ws_1", "task_7", "c_9", due.AddDate(0, 0, 7), 2)
	assert.NotEqual(t, event.DedupKey, rescheduled.DedupKey,
		"a rescheduled due date is a new logical occurrence")
}

func TestNewClientCreated(t *testing.T) {
	event := NewClientCreated("ws_1", "c_9", "ada@example.com")

	assert.Equal(t, "client:c_9:created", event.DedupKey)

	email, ok := event.PayloadString("client_email")
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", email)
}

func TestNewTaskCompleted(t *testing.T) {
	event := NewTaskCompleted("ws_1", "task_7", "c_9")

	assert.Equal(t, "task:task_7:completed", event.DedupKey)
	assert.Equal(t, models.TriggerTaskCompleted, event.Kind)
}
