// Package remote makes a store backend usable across a process boundary.
// Four logical operations (dispatch, state/value, subscribe, unsubscribe)
// map to NATS request/reply exchanges; field updates travel on a separate
// push subject allocated per subscription. Only serializable identifiers
// cross the boundary — callbacks stay in the process that owns the engine.
//
// Core NATS is used deliberately: the contract promises no replay of changes
// that precede a subscribe and no buffering across outages, which is exactly
// core delivery semantics.
package remote

// Subjects derives every request and push subject from one prefix.
type Subjects struct {
	prefix string
}

// NewSubjects returns the subject namespace for the given prefix.
func NewSubjects(prefix string) Subjects {
	return Subjects{prefix: prefix}
}

func (s Subjects) Dispatch() string    { return s.prefix + ".dispatch" }
func (s Subjects) State() string       { return s.prefix + ".state" }
func (s Subjects) Value() string       { return s.prefix + ".value" }
func (s Subjects) Subscribe() string   { return s.prefix + ".subscribe" }
func (s Subjects) Unsubscribe() string { return s.prefix + ".unsubscribe" }

// Update is the push subject for one subscription identifier.
func (s Subjects) Update(sid string) string { return s.prefix + ".update." + sid }

// DispatchRequest asks the bridge to apply one action.
type DispatchRequest struct {
	Type string `json:"type"`
}

// OKReply acknowledges an operation with no result payload.
type OKReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// StateReply carries a full record snapshot.
type StateReply struct {
	State map[string]int64 `json:"state,omitempty"`
	Error string           `json:"error,omitempty"`
}

// ValueRequest asks for the current value of one field.
type ValueRequest struct {
	Field string `json:"field"`
}

// ValueReply carries one field's current value.
type ValueReply struct {
	Value int64  `json:"value"`
	Error string `json:"error,omitempty"`
}

// SubscribeRequest registers remote interest in one field.
type SubscribeRequest struct {
	Field string `json:"field"`
}

// SubscribeReply carries the opaque subscription identifier used for the
// push subject and the later unsubscribe call.
type SubscribeReply struct {
	SID   string `json:"sid,omitempty"`
	Error string `json:"error,omitempty"`
}

// UnsubscribeRequest cancels a remote subscription by identifier.
type UnsubscribeRequest struct {
	SID string `json:"sid"`
}

// UpdateEvent is pushed to a subscription's update subject on every change
// to its field.
type UpdateEvent struct {
	Field string `json:"field"`
	Value int64  `json:"value"`
}
