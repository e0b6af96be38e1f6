// Package cmd holds the bootstrap helpers shared by the pulse binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atelierhq/pulse/pkg/persistence"
	"github.com/atelierhq/pulse/pkg/persistence/file"
	"github.com/atelierhq/pulse/pkg/persistence/memory"
	"github.com/atelierhq/pulse/pkg/persistence/postgresql"
	"github.com/atelierhq/pulse/pkg/persistence/redis"
)

// NewPersistence selects a persistence backend from the database URL scheme:
// postgres:// for deployments, file:// (or a bare path) for local setups, and
// memory:// for throwaway runs.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic("failed to initialize postgres persistence: " + err.Error())
		}

		return store
	case strings.HasPrefix(databaseURL, "memory://"):
		return memory.NewPersistence()
	default:
		return file.NewPersistence(databaseURL)
	}
}

// guardOverride serves workflows from the primary store while keeping
// execution records in a dedicated store.
type guardOverride struct {
	persistence.Persistence
	executions persistence.ExecutionRepository
}

func (p *guardOverride) ExecutionRepository() persistence.ExecutionRepository {
	return p.executions
}

// WithExecutionStore routes execution records to a separate redis store when
// idempotencyURL is set; the guard's conditional insert then runs on redis
// SETNX instead of the primary store. An empty URL keeps everything in the
// primary.
func WithExecutionStore(ctx context.Context, base persistence.Persistence, idempotencyURL string) persistence.Persistence {
	if idempotencyURL == "" {
		return base
	}

	executions, err := redis.NewExecutionRepositoryFromURL(ctx, idempotencyURL)
	if err != nil {
		panic("failed to initialize redis execution store: " + err.Error())
	}

	return &guardOverride{Persistence: base, executions: executions}
}
