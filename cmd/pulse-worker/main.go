package main

import (
	"context"
	"os"
	"time"

	"github.com/atelierhq/pulse/pkg/automation"
	"github.com/atelierhq/pulse/pkg/cmd"
	"github.com/atelierhq/pulse/pkg/log"
	"github.com/atelierhq/pulse/pkg/otelhelper"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "pulse-worker",
		Usage:                 "Consume domain events and run matching workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "idempotency-url",
				Usage:   "Optional redis URL for execution records (defaults to the primary store)",
				Value:   "",
				Sources: cli.EnvVars("IDEMPOTENCY_URL"),
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
			&cli.IntFlag{
				Name:    "max-attempts",
				Usage:   "Attempts per action, first try included",
				Value:   3,
				Sources: cli.EnvVars("MAX_ATTEMPTS"),
			},
			&cli.DurationFlag{
				Name:    "retry-delay",
				Usage:   "Delay between attempts of the same action",
				Value:   250 * time.Millisecond,
				Sources: cli.EnvVars("RETRY_DELAY"),
			},
			&cli.DurationFlag{
				Name:    "action-timeout",
				Usage:   "Timeout for a single action attempt",
				Value:   30 * time.Second,
				Sources: cli.EnvVars("ACTION_TIMEOUT"),
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

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("pulse-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Pulse Worker")

			_, err := otelhelper.NewTracer(ctx, "pulse-worker")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), "pulse-worker", logger)
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

			store := cmd.WithExecutionStore(ctx, persistence, command.String("idempotency-url"))

			policy := automation.Policy{
				MaxAttempts:   command.Int("max-attempts"),
				RetryDelay:    command.Duration("retry-delay"),
				ActionTimeout: command.Duration("action-timeout"),
			}

			dispatcher := automation.NewDispatcher(store, registry, policy, logger)

			worker := NewWorker(workerID, dispatcher, eventBus, logger)

			err = worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
