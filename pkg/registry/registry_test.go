package registry

import (
	"io"
	"log/slog"
	"testing"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFactory struct {
	kind   models.ActionKind
	schema string
}

func (f *stubFactory) Kind() models.ActionKind { return f.kind }

func (f *stubFactory) ConfigSchema() string { return f.schema }

func (f *stubFactory) Create(_ map[string]any) (protocol.Action, error) { return nil, nil }

func testRegistry() *Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := NewRegistry(logger)
	reg.RegisterAction(&stubFactory{
		kind: models.ActionSendEmail,
		schema: `{
			"type": "object",
			"properties": {
				"subject": {"type": "string", "minLength": 1},
				"to": {"type": "string"}
			},
			"required": ["subject"],
			"additionalProperties": false
		}`,
	})

	return reg
}

func TestRegistry_ValidateConfig(t *testing.T) {
	reg := testRegistry()

	err := reg.ValidateConfig(models.ActionSendEmail, map[string]any{
		"subject": "Invoice paid",
		"to":      "ada@example.com",
	})
	assert.NoError(t, err)
}

func TestRegistry_ValidateConfigRejectsMissingRequired(t *testing.T) {
	reg := testRegistry()

	err := reg.ValidateConfig(models.ActionSendEmail, map[string]any{"to": "ada@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")
}

func TestRegistry_ValidateConfigRejectsUnknownFields(t *testing.T) {
	reg := testRegistry()

	err := reg.ValidateConfig(models.ActionSendEmail, map[string]any{
		"subject": "Invoice paid",
		"cc":      "someone@example.com",
	})
	assert.Error(t, err)
}

func TestRegistry_ValidateConfigUnknownKind(t *testing.T) {
	reg := testRegistry()

	err := reg.ValidateConfig(models.ActionKind("teleport"), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_CreateActionUnknownKind(t *testing.T) {
	reg := testRegistry()

	_, err := reg.CreateAction(models.ActionKind("teleport"), nil)
	assert.Error(t, err)
}

func TestRegistry_RegisteredKinds(t *testing.T) {
	reg := testRegistry()

	assert.Equal(t, []models.ActionKind{models.ActionSendEmail}, reg.RegisteredKinds())
}
