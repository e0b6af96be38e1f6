// Package movecard implements the move_card action executor.
package movecard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/protocol"
)

// Card is one pipeline card as known to the board collaborator.
type Card struct {
	ID       string
	BoardID  string
	ClientID string
	Column   string
}

// BoardService is the external board/pipeline collaborator. FindCardByClient
// returns nil when the client has no card; that is the executor's permanent
// failure, not the collaborator's error.
type BoardService interface {
	FindCardByClient(ctx context.Context, workspaceID, clientID string) (*Card, error)
	MoveCard(ctx context.Context, cardID, targetColumn string) error
}

// Config is the move_card action configuration.
type Config struct {
	TargetColumn string `json:"target_column"`
}

const configSchema = `{
	"type": "object",
	"properties": {
		"target_column": {"type": "string", "minLength": 1}
	},
	"required": ["target_column"],
	"additionalProperties": false
}`

type Factory struct {
	boards BoardService
}

func NewFactory(boards BoardService) *Factory {
	return &Factory{boards: boards}
}

func (f *Factory) Kind() models.ActionKind {
	return models.ActionMoveCard
}

func (f *Factory) ConfigSchema() string {
	return configSchema
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode move_card configuration: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(raw, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode move_card configuration: %w", err)
	}

	if cfg.TargetColumn == "" {
		return nil, fmt.Errorf("move_card requires a target_column")
	}

	return &Action{config: cfg, boards: f.boards}, nil
}

// Action relocates the event subject's pipeline card.
type Action struct {
	config Config
	boards BoardService
}

func (a *Action) Execute(ctx context.Context, event models.DomainEvent) (map[string]any, error) {
	clientID, ok := event.PayloadString("client_id")
	if !ok {
		return nil, fmt.Errorf("event %s carries no client_id to locate a card", event.DedupKey)
	}

	card, err := a.boards.FindCardByClient(ctx, event.WorkspaceID, clientID)
	if err != nil {
		return nil, err
	}

	if card == nil {
		return nil, fmt.Errorf("no card found for client %s", clientID)
	}

	err = a.boards.MoveCard(ctx, card.ID, a.config.TargetColumn)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"card_id":     card.ID,
		"from_column": card.Column,
		"to_column":   a.config.TargetColumn,
	}, nil
}
