// Package registry holds the action factories the dispatch core creates
// executors from, plus per-kind configuration schema validation.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.ActionKind]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[models.ActionKind]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.factories[factory.Kind()] = factory
	r.logger.Debug("Registered action factory", "kind", factory.Kind())
}

// CreateAction builds an executor for one configured workflow step.
func (r *Registry) CreateAction(kind models.ActionKind, config map[string]any) (protocol.Action, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("action kind %q not registered", kind)
	}

	return factory.Create(config)
}

// RegisteredKinds returns the kinds with a registered factory.
func (r *Registry) RegisteredKinds() []models.ActionKind {
	kinds := make([]models.ActionKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}

	return kinds
}

// ValidateConfig checks an action configuration against its kind's JSON
// schema. Used by the management surface on save, so a misconfigured action
// is rejected before it can ever fail permanently at dispatch time.
func (r *Registry) ValidateConfig(kind models.ActionKind, config map[string]any) error {
	factory, ok := r.factories[kind]
	if !ok {
		return fmt.Errorf("action kind %q not registered", kind)
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(factory.ConfigSchema()),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate %s configuration: %w", kind, err)
	}

	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			if detail != "" {
				detail += "; "
			}

			detail += desc.String()
		}

		return fmt.Errorf("invalid %s configuration: %s", kind, detail)
	}

	return nil
}
