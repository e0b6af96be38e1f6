package models

// TriggerKind identifies the domain event a workflow listens for.
type TriggerKind string

const (
	TriggerInvoicePaid         TriggerKind = "invoice_paid"
	TriggerFunnelStepCompleted TriggerKind = "funnel_step_completed"
	TriggerNewClientCreated    TriggerKind = "new_client_created"
	TriggerDueDateApproaching  TriggerKind = "due_date_approaching"
	TriggerTaskCompleted       TriggerKind = "task_completed"
)

// TriggerKinds lists every recognized trigger kind. The set is closed: new
// kinds require a new executor-facing contract, not runtime registration.
var TriggerKinds = []TriggerKind{
	TriggerInvoicePaid,
	TriggerFunnelStepCompleted,
	TriggerNewClientCreated,
	TriggerDueDateApproaching,
	TriggerTaskCompleted,
}

func (k TriggerKind) Valid() bool {
	for _, known := range TriggerKinds {
		if k == known {
			return true
		}
	}

	return false
}

// TriggerItem is the trigger half of a workflow definition. Configuration
// carries kind-specific match fields (e.g. "step" for funnel_step_completed);
// a key left unset matches any event value.
type TriggerItem struct {
	Kind          TriggerKind    `json:"kind"                    validate:"required"`
	Configuration map[string]any `json:"configuration,omitempty"`
}
