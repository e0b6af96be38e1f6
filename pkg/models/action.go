package models

// ActionKind identifies one step type of a workflow's configured response.
type ActionKind string

const (
	ActionSendEmail       ActionKind = "send_email"
	ActionCreateTask      ActionKind = "create_task"
	ActionMoveCard        ActionKind = "move_card"
	ActionSendChatMessage ActionKind = "send_chat_message"
)

// ActionKinds lists every registered action kind.
var ActionKinds = []ActionKind{
	ActionSendEmail,
	ActionCreateTask,
	ActionMoveCard,
	ActionSendChatMessage,
}

func (k ActionKind) Valid() bool {
	for _, known := range ActionKinds {
		if k == known {
			return true
		}
	}

	return false
}

// ActionItem is one ordered step of a workflow. Configuration shape depends on
// the kind and is validated against the kind's schema on save; executors decode
// it into their own typed config.
type ActionItem struct {
	ID            string         `json:"id"`
	Kind          ActionKind     `json:"kind"           validate:"required"`
	Name          string         `json:"name,omitempty"`
	Configuration map[string]any `json:"configuration"`
}
