package automation

import (
	"io"
	"log/slog"
	"testing"

	"github.com/atelierhq/pulse/pkg/events"
	"github.com/atelierhq/pulse/pkg/models"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func funnelWorkflow(configuration map[string]any) *models.Workflow {
	return &models.Workflow{
		ID:          "wf_funnel",
		WorkspaceID: "ws_1",
		Name:        "Funnel follow-up",
		Trigger: models.TriggerItem{
			Kind:          models.TriggerFunnelStepCompleted,
			Configuration: configuration,
		},
		Actions: []models.ActionItem{{Kind: models.ActionCreateTask}},
		Enabled: true,
	}
}

func TestMatcher_KindMismatchNeverFires(t *testing.T) {
	matcher := NewMatcher(testLogger())

	event := events.NewInvoicePaid("ws_1", "inv_1", "c_1", 5000)
	workflow := funnelWorkflow(nil)

	assert.False(t, matcher.Matches(event, workflow))
}

func TestMatcher_ConfiguredFieldMustEqual(t *testing.T) {
	matcher := NewMatcher(testLogger())

	workflow := funnelWorkflow(map[string]any{"funnel_id": "f_1", "step": 3})

	matching := events.NewFunnelStepCompleted("ws_1", "f_1", "c_1", 3)
	assert.True(t, matcher.Matches(matching, workflow))

	wrongStep := events.NewFunnelStepCompleted("ws_1", "f_1", "c_1", 1)
	assert.False(t, matcher.Matches(wrongStep, workflow))

	wrongFunnel := events.NewFunnelStepCompleted("ws_1", "f_2", "c_1", 3)
	assert.False(t, matcher.Matches(wrongFunnel, workflow))
}

func TestMatcher_NumericConfigMatchesAcrossTypes(t *testing.T) {
	matcher := NewMatcher(testLogger())

	// JSON round-trips turn 3 into "3" or float64(3) depending on the path;
	// matching is string-rendered so all of them agree.
	event := events.NewFunnelStepCompleted("ws_1", "f_1", "c_1", 3)

	assert.True(t, matcher.Matches(event, funnelWorkflow(map[string]any{"step": "3"})))
	assert.True(t, matcher.Matches(event, funnelWorkflow(map[string]any{"step": 3})))
}

func TestMatcher_UnsetFieldsAreWildcards(t *testing.T) {
	matcher := NewMatcher(testLogger())

	event := events.NewFunnelStepCompleted("ws_1", "f_9", "c_1", 7)

	assert.True(t, matcher.Matches(event, funnelWorkflow(nil)))
	assert.True(t, matcher.Matches(event, funnelWorkflow(map[string]any{"funnel_id": ""})))
	assert.True(t, matcher.Matches(event, funnelWorkflow(map[string]any{"funnel_id": nil})))
	assert.True(t, matcher.Matches(event, funnelWorkflow(map[string]any{"funnel_id": "f_9", "step": ""})))
}

func TestMatcher_ConfiguredFieldAbsentFromPayload(t *testing.T) {
	matcher := NewMatcher(testLogger())

	workflow := funnelWorkflow(map[string]any{"campaign": "spring"})
	event := events.NewFunnelStepCompleted("ws_1", "f_1", "c_1", 1)

	assert.False(t, matcher.Matches(event, workflow))
}

func TestMatcher_MatchFiltersCandidates(t *testing.T) {
	matcher := NewMatcher(testLogger())

	event := events.NewFunnelStepCompleted("ws_1", "f_1", "c_1", 3)

	wildcard := funnelWorkflow(nil)
	pinned := funnelWorkflow(map[string]any{"step": 3})
	other := funnelWorkflow(map[string]any{"step": 5})

	matched := matcher.Match(event, []*models.Workflow{wildcard, pinned, other})

	assert.Equal(t, []*models.Workflow{wildcard, pinned}, matched)
}
