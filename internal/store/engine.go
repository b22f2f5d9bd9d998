package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/statebus/internal/metrics"
)

// Engine is the in-memory backend. It exclusively owns the state record and
// the subscription registry; all access goes through the Backend contract.
//
// Dispatches are serialized by a single mutex: mutation and registry reads
// happen under the lock, callbacks are invoked after release from a copied
// list. A callback therefore never observes a half-applied record, and a
// dispatch issued from inside a callback runs as an ordinary follow-up
// dispatch rather than re-entering the notification pass.
type Engine struct {
	schema   Schema
	logger   *slog.Logger
	recorder metrics.Recorder

	mu    sync.Mutex
	state State
	subs  map[Field][]*subscription
}

// subscription is one registered callback slot. Slots are kept per field in
// insertion order; duplicates by callback are allowed and get distinct ids.
type subscription struct {
	id    uuid.UUID
	field Field
	fn    func(int64)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRecorder sets the metrics recorder. Defaults to the noop recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = recorder }
}

// NewEngine creates an engine managing the given schema, with every field at
// its default value. The field set is fixed for the engine's lifetime.
func NewEngine(schema Schema, opts ...Option) *Engine {
	e := &Engine{
		schema:   schema,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		state:    schema.Defaults(),
		subs:     make(map[Field][]*subscription, len(schema)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the field set this engine manages.
func (e *Engine) Schema() Schema {
	return e.schema
}

// Dispatch applies one action and synchronously delivers every resulting
// notification before returning. Unknown actions are logged and ignored;
// the returned error is always nil for the in-memory engine.
func (e *Engine) Dispatch(ctx context.Context, action Action) error {
	e.mu.Lock()
	next, known := e.apply(action)
	if !known {
		e.mu.Unlock()
		e.logger.Warn("Ignoring unrecognized action", "type", action.Type)
		e.recorder.IncDispatch(string(action.Type), metrics.ResultIgnored)
		return nil
	}

	type pending struct {
		fn    func(int64)
		value int64
	}
	var notifications []pending
	for _, spec := range e.schema {
		if next[spec.Name] == e.state[spec.Name] {
			continue
		}
		for _, sub := range e.subs[spec.Name] {
			notifications = append(notifications, pending{fn: sub.fn, value: next[spec.Name]})
		}
	}
	e.state = next
	e.mu.Unlock()

	start := time.Now()
	for _, n := range notifications {
		n.fn(n.value)
	}
	if len(notifications) > 0 {
		e.recorder.ObserveNotifyDuration(time.Since(start))
	}
	e.recorder.IncDispatch(string(action.Type), metrics.ResultApplied)
	return nil
}

// apply computes the successor record for one action. It returns the current
// record unchanged and false for actions outside the closed set. Callers hold
// the engine lock.
func (e *Engine) apply(action Action) (State, bool) {
	switch action.Type {
	case ActionIncrementCounter:
		next := e.state.Clone()
		next[FieldCounter]++
		return next, true
	case ActionResetApp:
		return e.schema.Defaults(), true
	default:
		return e.state, false
	}
}

// State returns a snapshot copy of the full record.
func (e *Engine) State(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), nil
}

// Select binds a selection to one field. The field must be declared by the
// engine's schema; anything else is a programming error and panics.
func (e *Engine) Select(field Field) Selection {
	if !e.schema.Has(field) {
		panic(fmt.Sprintf("store: select on undeclared field %q", field))
	}
	return &engineSelection{engine: e, field: field}
}

// subscribe registers a callback slot for a field and returns its id.
func (e *Engine) subscribe(field Field, fn func(int64)) uuid.UUID {
	sub := &subscription{id: uuid.New(), field: field, fn: fn}
	e.mu.Lock()
	e.subs[field] = append(e.subs[field], sub)
	count := len(e.subs[field])
	e.mu.Unlock()
	e.recorder.SetActiveSubscriptions(string(field), count)
	return sub.id
}

// unsubscribe drops the slot with the given id. Unknown ids are ignored, so
// cancel funcs stay idempotent.
func (e *Engine) unsubscribe(field Field, id uuid.UUID) {
	e.mu.Lock()
	slots := e.subs[field]
	for i, sub := range slots {
		if sub.id == id {
			e.subs[field] = append(slots[:i], slots[i+1:]...)
			break
		}
	}
	count := len(e.subs[field])
	e.mu.Unlock()
	e.recorder.SetActiveSubscriptions(string(field), count)
}

var _ Backend = (*Engine)(nil)
