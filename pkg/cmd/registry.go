package cmd

import (
	"log/slog"

	"github.com/atelierhq/pulse/pkg/eventbus"
	"github.com/atelierhq/pulse/pkg/executors/chatmessage"
	"github.com/atelierhq/pulse/pkg/executors/createtask"
	"github.com/atelierhq/pulse/pkg/executors/movecard"
	"github.com/atelierhq/pulse/pkg/executors/sendemail"
	"github.com/atelierhq/pulse/pkg/registry"
)

// ExecutorConfig carries the base URLs of the platform services the action
// executors call.
type ExecutorConfig struct {
	EmailServiceURL string
	TaskServiceURL  string
	BoardServiceURL string
	ChatServiceURL  string
}

// NewRegistry builds the action registry with every executor wired to its
// platform service. The bus, when present, fans posted chat messages out to
// realtime gateways; nil disables the broadcast.
func NewRegistry(logger *slog.Logger, cfg ExecutorConfig, bus eventbus.EventBus) *registry.Registry {
	reg := registry.NewRegistry(logger)

	var broadcaster chatmessage.Broadcaster

	if wm, ok := bus.(*eventbus.WatermillEventBus); ok {
		broadcaster = chatmessage.NewBusBroadcaster(wm.Publisher())
	}

	reg.RegisterAction(sendemail.NewFactory(sendemail.NewHTTPMailer(cfg.EmailServiceURL)))
	reg.RegisterAction(createtask.NewFactory(createtask.NewHTTPTaskService(cfg.TaskServiceURL)))
	reg.RegisterAction(movecard.NewFactory(movecard.NewHTTPBoardService(cfg.BoardServiceURL)))
	reg.RegisterAction(chatmessage.NewFactory(chatmessage.NewHTTPMessenger(cfg.ChatServiceURL), broadcaster, logger))

	return reg
}
