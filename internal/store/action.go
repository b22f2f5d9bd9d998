package store

// ActionType tags one command from the closed action set.
type ActionType string

const (
	// ActionIncrementCounter adds one to the counter field.
	ActionIncrementCounter ActionType = "incrementCounter"
	// ActionResetApp returns every field to its schema default.
	ActionResetApp ActionType = "resetApp"
)

// Action is a tagged command requesting a state mutation. Actions in this
// system carry no payload beyond their type.
type Action struct {
	Type ActionType `json:"type"`
}

// IncrementCounter returns the increment action.
func IncrementCounter() Action {
	return Action{Type: ActionIncrementCounter}
}

// ResetApp returns the reset action.
func ResetApp() Action {
	return Action{Type: ActionResetApp}
}

// ParseActionType maps a raw tag to a known action type. The second return
// is false for tags outside the closed set.
func ParseActionType(raw string) (ActionType, bool) {
	switch ActionType(raw) {
	case ActionIncrementCounter:
		return ActionIncrementCounter, true
	case ActionResetApp:
		return ActionResetApp, true
	default:
		return "", false
	}
}
