// Package template renders configured action text (email subjects and
// bodies, task titles, chat messages) against the triggering event.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/atelierhq/pulse/pkg/models"
)

// RenderWithEvent renders input with the event's payload exposed both as
// {{.payload.<field>}} and under {{.event}} metadata.
func RenderWithEvent(input string, event models.DomainEvent) (string, error) {
	data := map[string]any{
		"payload": event.Payload,
		"event": map[string]any{
			"kind":         string(event.Kind),
			"workspace_id": event.WorkspaceID,
			"dedup_key":    event.DedupKey,
			"occurred_at":  event.OccurredAt.UTC().Format(time.RFC3339),
		},
	}

	return Render(input, data)
}

// Render executes input as a text/template against data.
func Render(input string, data any) (string, error) {
	tmpl, err := template.
		New("action").
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		}).
		Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", input, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", input, err)
	}

	// text/template renders missing map keys as "<no value>" even with
	// missingkey=zero when the lookup is chained; normalize to empty.
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}
