package models

import (
	"errors"
	"fmt"
	"time"
)

// Event input errors, rejected before any workflow lookup.
var (
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrEmptyWorkspace   = errors.New("event workspace id is empty")
	ErrEmptyDedupKey    = errors.New("event dedup key is empty")
)

// DomainEvent is one logical business occurrence handed to the dispatcher.
// DedupKey must be stable across retried deliveries of the same underlying
// event (derived from the business entity, never from a delivery attempt id).
type DomainEvent struct {
	Kind        TriggerKind    `json:"kind"`
	WorkspaceID string         `json:"workspace_id"`
	DedupKey    string         `json:"dedup_key"`
	Payload     map[string]any `json:"payload,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func (e DomainEvent) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventKind, e.Kind)
	}

	if e.WorkspaceID == "" {
		return ErrEmptyWorkspace
	}

	if e.DedupKey == "" {
		return ErrEmptyDedupKey
	}

	return nil
}

// PayloadString returns a payload field rendered as a string. Numeric values
// are formatted, so "step": 3 and "step": "3" compare equal during matching.
func (e DomainEvent) PayloadString(key string) (string, bool) {
	value, ok := e.Payload[key]
	if !ok || value == nil {
		return "", false
	}

	return fmt.Sprintf("%v", value), true
}
