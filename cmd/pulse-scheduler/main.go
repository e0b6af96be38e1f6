package main

import (
	"context"
	"os"

	"github.com/atelierhq/pulse/pkg/cmd"
	"github.com/atelierhq/pulse/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "pulse-scheduler",
		Usage:                 "Scan for approaching due dates and emit domain events",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Cron spec for due date scans",
				Value:   "@hourly",
				Sources: cli.EnvVars("SCAN_CRON"),
			},
			&cli.IntFlag{
				Name:    "horizon-days",
				Usage:   "How many days ahead a due date counts as approaching",
				Value:   2,
				Sources: cli.EnvVars("HORIZON_DAYS"),
			},
			&cli.StringFlag{
				Name:    "task-service-url",
				Usage:   "Base URL of the task service",
				Value:   "http://localhost:8092",
				Sources: cli.EnvVars("TASK_SERVICE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
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

			logger := log.WithModule("pulse-scheduler")

			logger.InfoContext(ctx, "Initializing Pulse Scheduler")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "pulse-scheduler", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			source := NewHTTPTaskSource(command.String("task-service-url"))

			scheduler := NewScheduler(source, eventBus, command.Int("horizon-days"), logger)

			err := scheduler.Start(ctx, command.String("cron"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start scheduler", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
