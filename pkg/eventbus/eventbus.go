// Package eventbus moves domain events from producers (API, scheduler) to the
// dispatch workers over a message channel.
package eventbus

import (
	"context"

	"github.com/atelierhq/pulse/pkg/models"
)

// EventHandler processes one delivered domain event. A non-nil error nacks
// the message so the channel can redeliver it; the idempotency guard makes
// redelivery safe.
type EventHandler func(ctx context.Context, event models.DomainEvent) error

type EventPublisher interface {
	Publish(ctx context.Context, event models.DomainEvent) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, handler EventHandler) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
