package movecard

import (
	"context"
	"testing"

	"github.com/atelierhq/pulse/pkg/automation"
	"github.com/atelierhq/pulse/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBoardService struct {
	card    *Card
	findErr error
	moveErr error
	moves   []string
}

func (s *fakeBoardService) FindCardByClient(_ context.Context, _, _ string) (*Card, error) {
	return s.card, s.findErr
}

func (s *fakeBoardService) MoveCard(_ context.Context, cardID, targetColumn string) error {
	if s.moveErr != nil {
		return s.moveErr
	}

	s.moves = append(s.moves, cardID+"->"+targetColumn)

	return nil
}

func TestFactory_Create_RequiresTargetColumn(t *testing.T) {
	factory := NewFactory(&fakeBoardService{})

	_, err := factory.Create(map[string]any{})
	assert.Error(t, err)
}

func TestAction_Execute_MovesCard(t *testing.T) {
	boards := &fakeBoardService{card: &Card{ID: "card_1", ClientID: "c_9", Column: "leads"}}
	factory := NewFactory(boards)

	action, err := factory.Create(map[string]any{"target_column": "won"})
	require.NoError(t, err)

	event := events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	output, err := action.Execute(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, boards.moves, 1)
	assert.Equal(t, "card_1->won", boards.moves[0])
	assert.Equal(t, "leads", output["from_column"])
	assert.Equal(t, "won", output["to_column"])
}

func TestAction_Execute_NoCardIsPermanent(t *testing.T) {
	boards := &fakeBoardService{card: nil}
	factory := NewFactory(boards)

	action, err := factory.Create(map[string]any{"target_column": "won"})
	require.NoError(t, err)

	event := events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	_, err = action.Execute(context.Background(), event)
	require.Error(t, err)
	assert.False(t, automation.IsTransient(err))
	assert.Empty(t, boards.moves)
}

func TestAction_Execute_NoClientIDIsPermanent(t *testing.T) {
	boards := &fakeBoardService{card: &Card{ID: "card_1"}}
	factory := NewFactory(boards)

	action, err := factory.Create(map[string]any{"target_column": "won"})
	require.NoError(t, err)

	event := events.NewClientCreated("ws_1", "c_9", "ada@example.com")
	delete(event.Payload, "client_id")

	_, err = action.Execute(context.Background(), event)
	require.Error(t, err)
	assert.False(t, automation.IsTransient(err))
}

func TestAction_Execute_TransientLookupFailure(t *testing.T) {
	boards := &fakeBoardService{findErr: automation.Transient(assert.AnError)}
	factory := NewFactory(boards)

	action, err := factory.Create(map[string]any{"target_column": "won"})
	require.NoError(t, err)

	event := events.NewInvoicePaid("ws_1", "inv_42", "c_9", 120000)

	_, err = action.Execute(context.Background(), event)
	require.Error(t, err)
	assert.True(t, automation.IsTransient(err))
}
