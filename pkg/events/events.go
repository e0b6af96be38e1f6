// Package events defines domain event constructors and their dedup keys.
//
// Every producer (webhook handlers, the due-date scanner, synchronous
// completion code) builds events through these constructors so that dedup
// keys stay stable across retried deliveries of the same business event.
package events

import (
	"fmt"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
)

// Topic is the bus topic domain events travel on.
const Topic = "pulse.automation.events"

// Metadata keys on bus messages.
const (
	EventKeyMetadataKey  = "key"
	EventKindMetadataKey = "event_kind"
)

// NewInvoicePaid builds the event emitted when an invoice is marked paid.
// The dedup key is derived from the invoice, not the webhook delivery, so
// gateway redeliveries collapse onto one logical occurrence.
func NewInvoicePaid(workspaceID, invoiceID, clientID string, amountCents int64) models.DomainEvent {
	return models.DomainEvent{
		Kind:        models.TriggerInvoicePaid,
		WorkspaceID: workspaceID,
		DedupKey:    fmt.Sprintf("invoice:%s:paid", invoiceID),
		Payload: map[string]any{
			"invoice_id":   invoiceID,
			"client_id":    clientID,
			"amount_cents": amountCents,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewFunnelStepCompleted builds the event emitted when a client finishes one
// step of a funnel.
func NewFunnelStepCompleted(workspaceID, funnelID, clientID string, step int) models.DomainEvent {
	return models.DomainEvent{
		Kind:        models.TriggerFunnelStepCompleted,
		WorkspaceID: workspaceID,
		DedupKey:    fmt.Sprintf("funnel:%s:client:%s:step:%d", funnelID, clientID, step),
		Payload: map[string]any{
			"funnel_id": funnelID,
			"client_id": clientID,
			"step":      step,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewClientCreated builds the event emitted when a workspace gains a client.
func NewClientCreated(workspaceID, clientID, clientEmail string) models.DomainEvent {
	return models.DomainEvent{
		Kind:        models.TriggerNewClientCreated,
		WorkspaceID: workspaceID,
		DedupKey:    fmt.Sprintf("client:%s:created", clientID),
		Payload: map[string]any{
			"client_id":    clientID,
			"client_email": clientEmail,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewTaskCompleted builds the event emitted when a task is closed.
func NewTaskCompleted(workspaceID, taskID, clientID string) models.DomainEvent {
	return models.DomainEvent{
		Kind:        models.TriggerTaskCompleted,
		WorkspaceID: workspaceID,
		DedupKey:    fmt.Sprintf("task:%s:completed", taskID),
		Payload: map[string]any{
			"task_id":   taskID,
			"client_id": clientID,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewDueDateApproaching builds the event emitted by the due-date scan. The
// due date is part of the key: rescheduling a task produces a new logical
// occurrence, while repeated scans of the same date do not.
func NewDueDateApproaching(workspaceID, taskID, clientID string, dueAt time.Time, daysBefore int) models.DomainEvent {
	return models.DomainEvent{
		Kind:        models.TriggerDueDateApproaching,
		WorkspaceID: workspaceID,
		DedupKey:    fmt.Sprintf("task:%s:due:%s", taskID, dueAt.UTC().Format("2006-01-02")),
		Payload: map[string]any{
			"task_id":     taskID,
			"client_id":   clientID,
			"due_at":      dueAt.UTC().Format(time.RFC3339),
			"days_before": daysBefore,
		},
		OccurredAt: time.Now().UTC(),
	}
}
