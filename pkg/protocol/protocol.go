// Package protocol defines the contracts between the dispatch core and the
// action executors. New action kinds implement these interfaces; the
// dispatcher and the execution policy never change for them.
package protocol

import (
	"context"

	"github.com/atelierhq/pulse/pkg/models"
)

// Action is one configured, ready-to-run workflow step. Implementations wrap
// exactly one external collaborator and classify their own failures as
// transient or permanent (see package automation); that classification is the
// only retry input the execution policy uses.
type Action interface {
	// Execute performs the side effect for the given event. The returned map
	// is recorded as the action's output in the execution record.
	Execute(ctx context.Context, event models.DomainEvent) (map[string]any, error)
}

// ActionFactory builds actions of one kind from their raw configuration.
// Configuration problems are permanent failures: Create must reject them
// without touching any collaborator.
type ActionFactory interface {
	Kind() models.ActionKind
	Create(config map[string]any) (Action, error)

	// ConfigSchema returns the JSON schema document the kind's configuration
	// is validated against when a workflow is saved.
	ConfigSchema() string
}
