// Package sendemail implements the send_email action executor.
package sendemail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/protocol"
	"github.com/atelierhq/pulse/pkg/template"
)

// Message is one rendered email handed to the delivery collaborator.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer is the external email delivery collaborator. Implementations wrap
// retryable delivery failures with automation.Transient; anything else is
// treated as permanent.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config is the send_email action configuration. Recipient resolution order:
// a fixed To address wins, otherwise the configured payload field (default
// "client_email") is read from the event.
type Config struct {
	To             string `json:"to,omitempty"`
	RecipientField string `json:"recipient_field,omitempty"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

const configSchema = `{
	"type": "object",
	"properties": {
		"to": {"type": "string"},
		"recipient_field": {"type": "string"},
		"subject": {"type": "string", "minLength": 1},
		"body": {"type": "string"}
	},
	"required": ["subject"],
	"additionalProperties": false
}`

// Factory builds send_email actions bound to one mailer.
type Factory struct {
	mailer Mailer
}

func NewFactory(mailer Mailer) *Factory {
	return &Factory{mailer: mailer}
}

func (f *Factory) Kind() models.ActionKind {
	return models.ActionSendEmail
}

func (f *Factory) ConfigSchema() string {
	return configSchema
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode send_email configuration: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(raw, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode send_email configuration: %w", err)
	}

	if cfg.Subject == "" {
		return nil, fmt.Errorf("send_email requires a subject")
	}

	if cfg.RecipientField == "" {
		cfg.RecipientField = "client_email"
	}

	return &Action{config: cfg, mailer: f.mailer}, nil
}

// Action sends one templated email per event.
type Action struct {
	config Config
	mailer Mailer
}

func (a *Action) Execute(ctx context.Context, event models.DomainEvent) (map[string]any, error) {
	recipient := a.config.To
	if recipient == "" {
		recipient, _ = event.PayloadString(a.config.RecipientField)
	}

	if recipient == "" {
		// No resolvable recipient: retrying cannot fix this.
		return nil, fmt.Errorf("no resolvable recipient for event %s", event.DedupKey)
	}

	subject, err := template.RenderWithEvent(a.config.Subject, event)
	if err != nil {
		return nil, err
	}

	body, err := template.RenderWithEvent(a.config.Body, event)
	if err != nil {
		return nil, err
	}

	err = a.mailer.Send(ctx, Message{To: recipient, Subject: subject, Body: body})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"recipient": recipient,
		"subject":   subject,
	}, nil
}
