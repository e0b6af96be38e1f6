package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/atelierhq/pulse/pkg/channels/gochannel"
	"github.com/atelierhq/pulse/pkg/channels/kafka"
	"github.com/atelierhq/pulse/pkg/eventbus"
)

// NewEventBus creates the event bus for a service. kafka is the deployment
// channel; gochannel keeps everything in-process for local runs.
func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create gochannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
