package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// loopbackConn is an in-process Conn connecting a Client to a Bridge without
// a NATS server. Handlers run synchronously on the caller's goroutine, which
// mirrors the engine-side serialization the bridge relies on.
type loopbackConn struct {
	mu       sync.Mutex
	handlers map[string]nats.MsgHandler
	replies  map[string]chan []byte
	inboxSeq int
	down     bool
}

func newLoopbackConn() *loopbackConn {
	return &loopbackConn{
		handlers: make(map[string]nats.MsgHandler),
		replies:  make(map[string]chan []byte),
	}
}

// setDown simulates a lost channel: every subsequent operation fails.
func (c *loopbackConn) setDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

func (c *loopbackConn) Request(ctx context.Context, subject string, data []byte) (*nats.Msg, error) {
	c.mu.Lock()
	if c.down {
		c.mu.Unlock()
		return nil, nats.ErrConnectionClosed
	}
	handler, ok := c.handlers[subject]
	if !ok {
		c.mu.Unlock()
		return nil, nats.ErrNoResponders
	}
	c.inboxSeq++
	inbox := fmt.Sprintf("_INBOX.loopback.%d", c.inboxSeq)
	replyCh := make(chan []byte, 1)
	c.replies[inbox] = replyCh
	c.mu.Unlock()

	handler(&nats.Msg{Subject: subject, Reply: inbox, Data: data})

	c.mu.Lock()
	delete(c.replies, inbox)
	c.mu.Unlock()

	select {
	case reply := <-replyCh:
		return &nats.Msg{Subject: inbox, Data: reply}, nil
	default:
		return nil, nats.ErrTimeout
	}
}

func (c *loopbackConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	if c.down {
		c.mu.Unlock()
		return nats.ErrConnectionClosed
	}
	if replyCh, ok := c.replies[subject]; ok {
		c.mu.Unlock()
		replyCh <- data
		return nil
	}
	handler, ok := c.handlers[subject]
	c.mu.Unlock()
	if ok {
		handler(&nats.Msg{Subject: subject, Data: data})
	}
	return nil
}

func (c *loopbackConn) Subscribe(subject string, handler nats.MsgHandler) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return nil, nats.ErrConnectionClosed
	}
	c.handlers[subject] = handler
	return &loopbackSubscription{conn: c, subject: subject}, nil
}

type loopbackSubscription struct {
	conn    *loopbackConn
	subject string
}

func (s *loopbackSubscription) Unsubscribe() error {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	delete(s.conn.handlers, s.subject)
	return nil
}
