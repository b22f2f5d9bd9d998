package remote

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	derrors "git.home.luguber.info/inful/statebus/internal/errors"
	"git.home.luguber.info/inful/statebus/internal/store"
)

const defaultRequestTimeout = 5 * time.Second

// Client implements the store backend contract over the cross-process
// channel. Every operation is a single request/reply exchange; there is no
// retry and no buffering, so a downed channel fails the calling operation
// with a transport-category error.
type Client struct {
	conn     Conn
	subjects Subjects
	timeout  time.Duration
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRequestTimeout bounds each request/reply exchange.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a remote backend speaking to a bridge under prefix.
func NewClient(conn Conn, prefix string, opts ...ClientOption) *Client {
	c := &Client{
		conn:     conn,
		subjects: NewSubjects(prefix),
		timeout:  defaultRequestTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request performs one JSON request/reply exchange and decodes the reply
// into out.
func (c *Client) request(ctx context.Context, subject string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryInternal, derrors.SeverityError, "marshal request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.Request(ctx, subject, data)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryTransport, derrors.SeverityError, "request failed").
			WithContext("subject", subject)
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return derrors.Wrap(err, derrors.CategoryTransport, derrors.SeverityError, "malformed reply").
			WithContext("subject", subject)
	}
	return nil
}

// remoteError converts a bridge-reported error string into a typed error.
func remoteError(message string) error {
	return derrors.New(derrors.CategoryRuntime, derrors.SeverityError, message)
}

// Dispatch sends one action to the engine's process. Unrecognized actions
// complete successfully there; only channel failures surface here.
func (c *Client) Dispatch(ctx context.Context, action store.Action) error {
	var reply OKReply
	if err := c.request(ctx, c.subjects.Dispatch(), DispatchRequest{Type: string(action.Type)}, &reply); err != nil {
		return err
	}
	if reply.Error != "" {
		return remoteError(reply.Error)
	}
	return nil
}

// State fetches a snapshot of the full record.
func (c *Client) State(ctx context.Context) (store.State, error) {
	var reply StateReply
	if err := c.request(ctx, c.subjects.State(), struct{}{}, &reply); err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, remoteError(reply.Error)
	}
	snapshot := make(store.State, len(reply.State))
	for field, value := range reply.State {
		snapshot[store.Field(field)] = value
	}
	return snapshot, nil
}

// Select binds a remote selection to one field. Field validity is only
// known to the process owning the engine, so an undeclared field surfaces
// as an error from Value or Subscribe rather than a local panic.
func (c *Client) Select(field store.Field) store.Selection {
	return &remoteSelection{client: c, field: field}
}

// remoteSelection proxies one field's reads and subscriptions.
type remoteSelection struct {
	client *Client
	field  store.Field
}

// Value fetches the field's current value from the engine's process.
func (s *remoteSelection) Value(ctx context.Context) (int64, error) {
	var reply ValueReply
	if err := s.client.request(ctx, s.client.subjects.Value(), ValueRequest{Field: string(s.field)}, &reply); err != nil {
		return 0, err
	}
	if reply.Error != "" {
		return 0, remoteError(reply.Error)
	}
	return reply.Value, nil
}

// Subscribe registers remote interest in the field. The bridge allocates the
// subscription identifier; the callback runs on this side whenever an update
// event arrives on the identifier's push subject.
func (s *remoteSelection) Subscribe(fn func(int64)) (store.CancelFunc, error) {
	var reply SubscribeReply
	if err := s.client.request(context.Background(), s.client.subjects.Subscribe(), SubscribeRequest{Field: string(s.field)}, &reply); err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, remoteError(reply.Error)
	}

	sub, err := s.client.conn.Subscribe(s.client.subjects.Update(reply.SID), func(msg *nats.Msg) {
		var event UpdateEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.client.logger.Warn("Dropping malformed update event", "field", s.field, "error", err)
			return
		}
		fn(event.Value)
	})
	if err != nil {
		// Best effort: release the server-side registration we just made.
		s.client.cancelRemote(reply.SID)
		return nil, derrors.Wrap(err, derrors.CategoryTransport, derrors.SeverityError, "subscribe to update subject")
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil {
				s.client.logger.Warn("Error unsubscribing from update subject", "sid", reply.SID, "error", err)
			}
			s.client.cancelRemote(reply.SID)
		})
	}
	return cancel, nil
}

// cancelRemote tells the bridge to drop a subscription registration.
func (c *Client) cancelRemote(sid string) {
	var reply OKReply
	if err := c.request(context.Background(), c.subjects.Unsubscribe(), UnsubscribeRequest{SID: sid}, &reply); err != nil {
		c.logger.Warn("Remote unsubscribe failed", "sid", sid, "error", err)
	}
}

var _ store.Backend = (*Client)(nil)
var _ store.Selection = (*remoteSelection)(nil)
