package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/statebus/internal/metrics"
	"git.home.luguber.info/inful/statebus/internal/store"
)

// Bridge exposes one backend over the cross-process channel. It owns the
// registry mapping subscription identifiers to engine cancel funcs; the
// identifier is the only thing that ever crosses the boundary.
type Bridge struct {
	conn     Conn
	backend  store.Backend
	subjects Subjects
	logger   *slog.Logger
	recorder metrics.Recorder

	// fields is the backend's declared field set, captured at Start. Remote
	// input is data, not code: an unknown field yields an error reply, never
	// a panic.
	fields map[store.Field]struct{}

	mu       sync.Mutex
	cancels  map[string]store.CancelFunc
	handlers []Subscription
	started  bool
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the bridge logger.
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = logger }
}

// WithBridgeRecorder sets the bridge metrics recorder.
func WithBridgeRecorder(recorder metrics.Recorder) BridgeOption {
	return func(b *Bridge) { b.recorder = recorder }
}

// NewBridge creates a bridge serving the backend on subjects under prefix.
func NewBridge(conn Conn, backend store.Backend, prefix string, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		conn:     conn,
		backend:  backend,
		subjects: NewSubjects(prefix),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		cancels:  make(map[string]store.CancelFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start registers the request handlers. The backend's field set is captured
// once here; it is fixed for the backend's lifetime.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return fmt.Errorf("bridge already started")
	}

	snapshot, err := b.backend.State(ctx)
	if err != nil {
		return fmt.Errorf("read backend field set: %w", err)
	}
	b.fields = make(map[store.Field]struct{}, len(snapshot))
	for field := range snapshot {
		b.fields[field] = struct{}{}
	}

	for subject, handler := range map[string]nats.MsgHandler{
		b.subjects.Dispatch():    b.handleDispatch,
		b.subjects.State():       b.handleState,
		b.subjects.Value():       b.handleValue,
		b.subjects.Subscribe():   b.handleSubscribe,
		b.subjects.Unsubscribe(): b.handleUnsubscribe,
	} {
		sub, err := b.conn.Subscribe(subject, handler)
		if err != nil {
			b.teardownLocked()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		b.handlers = append(b.handlers, sub)
	}

	b.started = true
	b.logger.Info("Bridge started", "prefix", b.subjects.prefix, "fields", len(b.fields))
	return nil
}

// Close drains the request handlers and cancels every live remote
// subscription against the backend.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardownLocked()
	b.started = false
}

func (b *Bridge) teardownLocked() {
	for _, sub := range b.handlers {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Error("Error unsubscribing bridge handler", "error", err)
		}
	}
	b.handlers = nil
	for sid, cancel := range b.cancels {
		cancel()
		delete(b.cancels, sid)
	}
}

// reply publishes a response payload to the request's reply subject.
func (b *Bridge) reply(msg *nats.Msg, payload any) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("Failed to marshal reply", "subject", msg.Subject, "error", err)
		return
	}
	if err := b.conn.Publish(msg.Reply, data); err != nil {
		b.logger.Error("Failed to publish reply", "subject", msg.Subject, "error", err)
	}
}

func (b *Bridge) handleDispatch(msg *nats.Msg) {
	var req DispatchRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.recorder.IncBridgeRequest("dispatch", metrics.ResultError)
		b.reply(msg, OKReply{Error: fmt.Sprintf("malformed dispatch request: %v", err)})
		return
	}

	// Unrecognized action tags still complete successfully: the engine logs
	// the diagnostic and leaves state untouched.
	if err := b.backend.Dispatch(context.Background(), store.Action{Type: store.ActionType(req.Type)}); err != nil {
		b.recorder.IncBridgeRequest("dispatch", metrics.ResultError)
		b.reply(msg, OKReply{Error: err.Error()})
		return
	}
	b.recorder.IncBridgeRequest("dispatch", metrics.ResultApplied)
	b.reply(msg, OKReply{OK: true})
}

func (b *Bridge) handleState(msg *nats.Msg) {
	snapshot, err := b.backend.State(context.Background())
	if err != nil {
		b.recorder.IncBridgeRequest("state", metrics.ResultError)
		b.reply(msg, StateReply{Error: err.Error()})
		return
	}
	out := make(map[string]int64, len(snapshot))
	for field, value := range snapshot {
		out[string(field)] = value
	}
	b.recorder.IncBridgeRequest("state", metrics.ResultApplied)
	b.reply(msg, StateReply{State: out})
}

func (b *Bridge) handleValue(msg *nats.Msg) {
	var req ValueRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.recorder.IncBridgeRequest("value", metrics.ResultError)
		b.reply(msg, ValueReply{Error: fmt.Sprintf("malformed value request: %v", err)})
		return
	}
	field := store.Field(req.Field)
	if _, ok := b.fields[field]; !ok {
		b.recorder.IncBridgeRequest("value", metrics.ResultError)
		b.reply(msg, ValueReply{Error: fmt.Sprintf("unknown field %q", req.Field)})
		return
	}

	value, err := b.backend.Select(field).Value(context.Background())
	if err != nil {
		b.recorder.IncBridgeRequest("value", metrics.ResultError)
		b.reply(msg, ValueReply{Error: err.Error()})
		return
	}
	b.recorder.IncBridgeRequest("value", metrics.ResultApplied)
	b.reply(msg, ValueReply{Value: value})
}

func (b *Bridge) handleSubscribe(msg *nats.Msg) {
	var req SubscribeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.recorder.IncBridgeRequest("subscribe", metrics.ResultError)
		b.reply(msg, SubscribeReply{Error: fmt.Sprintf("malformed subscribe request: %v", err)})
		return
	}
	field := store.Field(req.Field)
	if _, ok := b.fields[field]; !ok {
		b.recorder.IncBridgeRequest("subscribe", metrics.ResultError)
		b.reply(msg, SubscribeReply{Error: fmt.Sprintf("unknown field %q", req.Field)})
		return
	}

	sid := uuid.NewString()
	pushSubject := b.subjects.Update(sid)
	cancel, err := b.backend.Select(field).Subscribe(func(value int64) {
		b.pushUpdate(pushSubject, field, value)
	})
	if err != nil {
		b.recorder.IncBridgeRequest("subscribe", metrics.ResultError)
		b.reply(msg, SubscribeReply{Error: err.Error()})
		return
	}

	b.mu.Lock()
	b.cancels[sid] = cancel
	b.mu.Unlock()

	b.logger.Debug("Remote subscription registered", "field", field, "sid", sid)
	b.recorder.IncBridgeRequest("subscribe", metrics.ResultApplied)
	b.reply(msg, SubscribeReply{SID: sid})
}

func (b *Bridge) handleUnsubscribe(msg *nats.Msg) {
	var req UnsubscribeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.recorder.IncBridgeRequest("unsubscribe", metrics.ResultError)
		b.reply(msg, OKReply{Error: fmt.Sprintf("malformed unsubscribe request: %v", err)})
		return
	}

	// Idempotent: an unknown or already-cancelled identifier is a no-op.
	b.mu.Lock()
	cancel, ok := b.cancels[req.SID]
	if ok {
		delete(b.cancels, req.SID)
	}
	b.mu.Unlock()
	if ok {
		cancel()
		b.logger.Debug("Remote subscription cancelled", "sid", req.SID)
	}
	b.recorder.IncBridgeRequest("unsubscribe", metrics.ResultApplied)
	b.reply(msg, OKReply{OK: true})
}

// pushUpdate publishes one field change to a subscription's update subject.
// Delivery is fire-and-forget; a downed channel is the remote caller's
// problem to detect, not ours to buffer.
func (b *Bridge) pushUpdate(subject string, field store.Field, value int64) {
	data, err := json.Marshal(UpdateEvent{Field: string(field), Value: value})
	if err != nil {
		b.logger.Error("Failed to marshal update event", "field", field, "error", err)
		return
	}
	if err := b.conn.Publish(subject, data); err != nil {
		b.logger.Warn("Failed to push update", "field", field, "error", err)
		return
	}
	b.recorder.IncPushDelivered(string(field))
}
