package main

import (
	"context"
	"os"

	"github.com/atelierhq/pulse/pkg/cmd"
	"github.com/atelierhq/pulse/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "pulse-api",
		Usage:                 "Manage workflows and receive inbound webhooks",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "email-service-url",
				Usage:   "Base URL of the email delivery service",
				Value:   "http://localhost:8091",
				Sources: cli.EnvVars("EMAIL_SERVICE_URL"),
			},
			&cli.StringFlag{
				Name:    "task-service-url",
				Usage:   "Base URL of the task service",
				Value:   "http://localhost:8092",
				Sources: cli.EnvVars("TASK_SERVICE_URL"),
			},
			&cli.StringFlag{
				Name:    "board-service-url",
				Usage:   "Base URL of the board service",
				Value:   "http://localhost:8093",
				Sources: cli.EnvVars("BOARD_SERVICE_URL"),
			},
			&cli.StringFlag{
				Name:    "chat-service-url",
				Usage:   "Base URL of the chat service",
				Value:   "http://localhost:8094",
				Sources: cli.EnvVars("CHAT_SERVICE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Pulse API")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "pulse-api", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger, cmd.ExecutorConfig{
				EmailServiceURL: command.String("email-service-url"),
				TaskServiceURL:  command.String("task-service-url"),
				BoardServiceURL: command.String("board-service-url"),
				ChatServiceURL:  command.String("chat-service-url"),
			}, eventBus)

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			api := NewAPI(logger, persistence, registry, eventBus)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
