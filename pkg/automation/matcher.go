package automation

import (
	"fmt"
	"log/slog"

	"github.com/atelierhq/pulse/pkg/models"
)

// Matcher decides which workflows fire for an event. Kind matching happens
// in the store query; the matcher handles the fine-grained configuration
// match on top of it.
type Matcher struct {
	logger *slog.Logger
}

func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{
		logger: logger.With("module", "trigger_matcher"),
	}
}

// Match filters candidates down to the workflows whose trigger matches the
// event.
func (m *Matcher) Match(event models.DomainEvent, candidates []*models.Workflow) []*models.Workflow {
	matched := make([]*models.Workflow, 0, len(candidates))

	for _, workflow := range candidates {
		if m.Matches(event, workflow) {
			matched = append(matched, workflow)
		}
	}

	m.logger.Debug("Completed trigger matching",
		"event_kind", event.Kind,
		"dedup_key", event.DedupKey,
		"candidates", len(candidates),
		"matches", len(matched))

	return matched
}

// Matches reports whether one workflow's trigger matches the event. Every
// configured trigger field must equal the corresponding payload value; a
// field left unset matches any value (wildcard semantics). Comparison is
// string-rendered so numeric payloads match numeric configuration regardless
// of JSON decoding type.
func (m *Matcher) Matches(event models.DomainEvent, workflow *models.Workflow) bool {
	if workflow.Trigger.Kind != event.Kind {
		return false
	}

	for field, expected := range workflow.Trigger.Configuration {
		if expected == nil {
			continue
		}

		if s, ok := expected.(string); ok && s == "" {
			continue
		}

		actual, ok := event.PayloadString(field)
		if !ok {
			return false
		}

		if fmt.Sprintf("%v", expected) != actual {
			return false
		}
	}

	return true
}
