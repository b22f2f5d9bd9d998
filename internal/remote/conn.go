package remote

import (
	"context"

	"github.com/nats-io/nats.go"
)

// Conn is the slice of the NATS connection the bridge and the client use.
// Tests substitute an in-process loopback implementation.
type Conn interface {
	Request(ctx context.Context, subject string, data []byte) (*nats.Msg, error)
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler nats.MsgHandler) (Subscription, error)
}

// Subscription is a cancellable NATS-side subscription.
type Subscription interface {
	Unsubscribe() error
}

// natsConn adapts *nats.Conn to Conn.
type natsConn struct {
	nc *nats.Conn
}

// WrapConn wraps an established NATS connection for use with the bridge and
// the client.
func WrapConn(nc *nats.Conn) Conn {
	return &natsConn{nc: nc}
}

func (c *natsConn) Request(ctx context.Context, subject string, data []byte) (*nats.Msg, error) {
	return c.nc.RequestWithContext(ctx, subject, data)
}

func (c *natsConn) Publish(subject string, data []byte) error {
	return c.nc.Publish(subject, data)
}

func (c *natsConn) Subscribe(subject string, handler nats.MsgHandler) (Subscription, error) {
	return c.nc.Subscribe(subject, handler)
}
