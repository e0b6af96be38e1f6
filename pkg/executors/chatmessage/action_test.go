package chatmessage

import (
	"context"
	"testing"

	"github.com/atelierhq/pulse/pkg/automation"
	"github.com/atelierhq/pulse/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	conversationID string
	resolveErr     error
	postErr        error
	posted         []string
}

func (m *fakeMessenger) ResolveConversation(_ context.Context, _, _ string) (string, error) {
	return m.conversationID, m.resolveErr
}

func (m *fakeMessenger) PostMessage(_ context.Context, conversationID, text string) (string, error) {
	if m.postErr != nil {
		return "", m.postErr
	}

	m.posted = append(m.posted, conversationID+": "+text)

	return "msg_1", nil
}

type fakeBroadcaster struct {
	calls int
	err   error
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, _, _, _ string) error {
	b.calls++

	return b.err
}

func TestFactory_Create_RequiresText(t *testing.T) {
	factory := NewFactory(&fakeMessenger{}, nil, nil)

	_, err := factory.Create(map[string]any{"conversation_id": "conv_1"})
	assert.Error(t, err)
}

func TestAction_Execute_ResolvesConversationAndPosts(t *testing.T) {
	messenger := &fakeMessenger{conversationID: "conv_1"}
	factory := NewFactory(messenger, nil, nil)

	action, err := factory.Create(map[string]any{
		"text": "Invoice {{.payload.invoice_id}} was paid, thank you!",
	})
	require.NoError(t, err)

	event := events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	output, err := action.Execute(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, messenger.posted, 1)
	assert.Equal(t, "conv_1: Invoice inv_42 was paid, thank you!", messenger.posted[0])
	assert.Equal(t, "msg_1", output["message_id"])
	assert.Equal(t, "conv_1", output["conversation_id"])
}

func TestAction_Execute_PinnedConversationSkipsResolution(t *testing.T) {
	messenger := &fakeMessenger{resolveErr: assert.AnError}
	factory := NewFactory(messenger, nil, nil)

	action, err := factory.Create(map[string]any{
		"conversation_id": "conv_pinned",
		"text":            "Welcome aboard",
	})
	require.NoError(t, err)

	event := events.NewClientCreated("ws_1", "c_9", "ada@example.com")

	_, err = action.Execute(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, messenger.posted, 1)
	assert.Equal(t, "conv_pinned: Welcome aboard", messenger.posted[0])
}

func TestAction_Execute_NoConversationIsPermanent(t *testing.T) {
	messenger := &fakeMessenger{conversationID: ""}
	factory := NewFactory(messenger, nil, nil)

	action, err := factory.Create(map[string]any{"text": "hello"})
	require.NoError(t, err)

	event := events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	_, err = action.Execute(context.Background(), event)
	require.Error(t, err)
	assert.False(t, automation.IsTransient(err))
	assert.Empty(t, messenger.posted)
}

func TestAction_Execute_PostFailurePropagatesTransient(t *testing.T) {
	messenger := &fakeMessenger{conversationID: "conv_1", postErr: automation.Transient(assert.AnError)}
	factory := NewFactory(messenger, nil, nil)

	action, err := factory.Create(map[string]any{"text": "hello"})
	require.NoError(t, err)

	event := events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	_, err = action.Execute(context.Background(), event)
	require.Error(t, err)
	assert.True(t, automation.IsTransient(err))
}

func TestAction_Execute_BroadcastFailureDoesNotFailAction(t *testing.T) {
	messenger := &fakeMessenger{conversationID: "conv_1"}
	broadcaster := &fakeBroadcaster{err: assert.AnError}
	factory := NewFactory(messenger, broadcaster, nil)

	action, err := factory.Create(map[string]any{"text": "hello"})
	require.NoError(t, err)

	event := events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	_, err = action.Execute(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, 1, broadcaster.calls)
}
