// Package chatmessage implements the send_chat_message action executor.
package chatmessage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/protocol"
	"github.com/atelierhq/pulse/pkg/template"
)

// Messenger posts messages into workspace conversations. ResolveConversation
// returns the conversation for the event's client, or empty when none exists.
type Messenger interface {
	ResolveConversation(ctx context.Context, workspaceID, clientID string) (string, error)
	PostMessage(ctx context.Context, conversationID, text string) (string, error)
}

// Broadcaster fans a posted message out to connected clients. Broadcast
// failures are logged and swallowed; delivery to the conversation already
// happened by the time it runs.
type Broadcaster interface {
	Broadcast(ctx context.Context, workspaceID, conversationID, text string) error
}

// Config is the send_chat_message action configuration.
type Config struct {
	// ConversationID pins the destination; when empty the conversation is
	// resolved from the event's client_id.
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

const configSchema = `{
	"type": "object",
	"properties": {
		"conversation_id": {"type": "string"},
		"text": {"type": "string", "minLength": 1}
	},
	"required": ["text"],
	"additionalProperties": false
}`

type Factory struct {
	messenger   Messenger
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewFactory wires the messenger and an optional broadcaster. A nil
// broadcaster disables fan-out.
func NewFactory(messenger Messenger, broadcaster Broadcaster, logger *slog.Logger) *Factory {
	return &Factory{messenger: messenger, broadcaster: broadcaster, logger: logger}
}

func (f *Factory) Kind() models.ActionKind {
	return models.ActionSendChatMessage
}

func (f *Factory) ConfigSchema() string {
	return configSchema
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode send_chat_message configuration: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(raw, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode send_chat_message configuration: %w", err)
	}

	if cfg.Text == "" {
		return nil, fmt.Errorf("send_chat_message requires a text template")
	}

	return &Action{
		config:      cfg,
		messenger:   f.messenger,
		broadcaster: f.broadcaster,
		logger:      f.logger,
	}, nil
}

// Action posts a templated message into the client's conversation.
type Action struct {
	config      Config
	messenger   Messenger
	broadcaster Broadcaster
	logger      *slog.Logger
}

func (a *Action) Execute(ctx context.Context, event models.DomainEvent) (map[string]any, error) {
	conversationID := a.config.ConversationID
	if conversationID == "" {
		clientID, ok := event.PayloadString("client_id")
		if !ok {
			return nil, fmt.Errorf("event %s carries no client_id to resolve a conversation", event.DedupKey)
		}

		resolved, err := a.messenger.ResolveConversation(ctx, event.WorkspaceID, clientID)
		if err != nil {
			return nil, err
		}

		if resolved == "" {
			return nil, fmt.Errorf("no conversation found for client %s", clientID)
		}

		conversationID = resolved
	}

	text, err := template.RenderWithEvent(a.config.Text, event)
	if err != nil {
		return nil, fmt.Errorf("failed to render message text: %w", err)
	}

	messageID, err := a.messenger.PostMessage(ctx, conversationID, text)
	if err != nil {
		return nil, err
	}

	if a.broadcaster != nil {
		berr := a.broadcaster.Broadcast(ctx, event.WorkspaceID, conversationID, text)
		if berr != nil && a.logger != nil {
			a.logger.WarnContext(ctx, "Chat message broadcast failed",
				"conversation_id", conversationID, "error", berr)
		}
	}

	return map[string]any{
		"message_id":      messageID,
		"conversation_id": conversationID,
	}, nil
}
