package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/atelierhq/pulse/pkg/events"
	"github.com/atelierhq/pulse/pkg/models"
)

// WatermillEventBus carries domain events over any watermill channel (kafka
// in deployment, gochannel in tests and single-process setups).
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "eventbus"),
	}
}

// Publisher exposes the underlying watermill publisher for components that
// publish raw messages on their own topics.
func (eb *WatermillEventBus) Publisher() message.Publisher {
	return eb.publisher
}

func (eb *WatermillEventBus) Publish(_ context.Context, event models.DomainEvent) error {
	err := event.Validate()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := message.NewMessage("msg-"+watermill.NewULID(), payload)
	msg.Metadata.Set(events.EventKeyMetadataKey, event.DedupKey)
	msg.Metadata.Set(events.EventKindMetadataKey, string(event.Kind))

	return eb.publisher.Publish(events.Topic, msg)
}

// Subscribe consumes the events topic until ctx is done. Messages that fail
// to decode are acked and dropped; handler failures nack for redelivery.
func (eb *WatermillEventBus) Subscribe(ctx context.Context, handler EventHandler) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event models.DomainEvent

			err := json.Unmarshal(msg.Payload, &event)
			if err != nil {
				eb.logger.Error("Dropping undecodable event message",
					"message_id", msg.UUID,
					"error", err)
				msg.Ack()

				continue
			}

			err = handler(ctx, event)
			if err != nil {
				eb.logger.Warn("Event handler failed, message will be redelivered",
					"message_id", msg.UUID,
					"event_kind", event.Kind,
					"dedup_key", event.DedupKey,
					"error", err)
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
