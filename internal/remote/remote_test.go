package remote

import (
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/statebus/internal/errors"
	"git.home.luguber.info/inful/statebus/internal/store"
)

const testPrefix = "statebus.test"

// newLinkedPair wires a client to a bridge over the loopback conn.
func newLinkedPair(t *testing.T) (*Client, *Bridge, *store.Engine, *loopbackConn) {
	t.Helper()
	conn := newLoopbackConn()
	engine := store.NewEngine(store.DefaultSchema())

	bridge := NewBridge(conn, engine, testPrefix)
	require.NoError(t, bridge.Start(t.Context()))
	t.Cleanup(bridge.Close)

	client := NewClient(conn, testPrefix)
	return client, bridge, engine, conn
}

func TestDispatchOverChannelMutatesEngine(t *testing.T) {
	client, _, engine, _ := newLinkedPair(t)
	ctx := t.Context()

	require.NoError(t, client.Dispatch(ctx, store.IncrementCounter()))
	require.NoError(t, client.Dispatch(ctx, store.IncrementCounter()))

	snapshot, err := engine.State(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), snapshot[store.FieldCounter])
}

func TestDispatchUnknownActionCompletesOverChannel(t *testing.T) {
	client, _, engine, _ := newLinkedPair(t)
	ctx := t.Context()

	require.NoError(t, client.Dispatch(ctx, store.Action{Type: "bogus"}))

	snapshot, err := engine.State(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), snapshot[store.FieldCounter])
}

func TestStateSnapshotOverChannel(t *testing.T) {
	client, _, engine, _ := newLinkedPair(t)
	ctx := t.Context()

	require.NoError(t, engine.Dispatch(ctx, store.IncrementCounter()))

	snapshot, err := client.State(ctx)
	require.NoError(t, err)
	require.Equal(t, store.State{store.FieldCounter: 1}, snapshot)
}

func TestValueOverChannel(t *testing.T) {
	client, _, engine, _ := newLinkedPair(t)
	ctx := t.Context()

	selection := client.Select(store.FieldCounter)
	value, err := selection.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), value)

	require.NoError(t, engine.Dispatch(ctx, store.IncrementCounter()))
	value, err = selection.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), value)
}

func TestValueUnknownFieldIsErrorReplyNotPanic(t *testing.T) {
	client, _, _, _ := newLinkedPair(t)

	_, err := client.Select("missing").Value(t.Context())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
	require.Equal(t, derrors.CategoryRuntime, derrors.CategoryOf(err))
}

func TestSubscribeUnknownFieldIsErrorReply(t *testing.T) {
	client, _, _, _ := newLinkedPair(t)

	_, err := client.Select("missing").Subscribe(func(int64) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestSubscribePushesUpdatesUntilCancelled(t *testing.T) {
	client, _, engine, _ := newLinkedPair(t)
	ctx := t.Context()

	var received []int64
	cancel, err := client.Select(store.FieldCounter).Subscribe(func(v int64) {
		received = append(received, v)
	})
	require.NoError(t, err)

	require.NoError(t, client.Dispatch(ctx, store.IncrementCounter()))
	require.NoError(t, client.Dispatch(ctx, store.IncrementCounter()))
	require.Equal(t, []int64{1, 2}, received)

	cancel()
	require.NoError(t, engine.Dispatch(ctx, store.IncrementCounter()))
	require.Equal(t, []int64{1, 2}, received)

	// Idempotent on both sides of the boundary.
	require.NotPanics(t, func() { cancel() })
}

func TestSubscribeAllocatesDistinctIdentifiers(t *testing.T) {
	client, bridge, _, _ := newLinkedPair(t)

	var a, b int
	cancelA, err := client.Select(store.FieldCounter).Subscribe(func(int64) { a++ })
	require.NoError(t, err)
	defer cancelA()
	cancelB, err := client.Select(store.FieldCounter).Subscribe(func(int64) { b++ })
	require.NoError(t, err)
	defer cancelB()

	bridge.mu.Lock()
	require.Len(t, bridge.cancels, 2)
	bridge.mu.Unlock()

	require.NoError(t, client.Dispatch(t.Context(), store.IncrementCounter()))
	require.Equal(t, 1, a)
	require.Equal(t, 1, b)
}

func TestUnsubscribeDropsBridgeRegistration(t *testing.T) {
	client, bridge, _, _ := newLinkedPair(t)

	cancel, err := client.Select(store.FieldCounter).Subscribe(func(int64) {})
	require.NoError(t, err)

	bridge.mu.Lock()
	require.Len(t, bridge.cancels, 1)
	bridge.mu.Unlock()

	cancel()

	bridge.mu.Lock()
	require.Empty(t, bridge.cancels)
	bridge.mu.Unlock()
}

func TestDownedChannelFailsAllOperations(t *testing.T) {
	client, _, _, conn := newLinkedPair(t)
	ctx := t.Context()
	conn.setDown(true)

	err := client.Dispatch(ctx, store.IncrementCounter())
	require.True(t, derrors.IsTransport(err), "dispatch: %v", err)

	_, err = client.State(ctx)
	require.True(t, derrors.IsTransport(err), "state: %v", err)

	_, err = client.Select(store.FieldCounter).Value(ctx)
	require.True(t, derrors.IsTransport(err), "value: %v", err)

	_, err = client.Select(store.FieldCounter).Subscribe(func(int64) {})
	require.True(t, derrors.IsTransport(err), "subscribe: %v", err)
}

func TestBridgeCloseCancelsRemoteSubscriptions(t *testing.T) {
	client, bridge, engine, _ := newLinkedPair(t)

	var calls int
	_, err := client.Select(store.FieldCounter).Subscribe(func(int64) { calls++ })
	require.NoError(t, err)

	bridge.Close()

	require.NoError(t, engine.Dispatch(t.Context(), store.IncrementCounter()))
	require.Zero(t, calls)
}

func TestBridgeStartTwiceFails(t *testing.T) {
	_, bridge, _, _ := newLinkedPair(t)
	require.Error(t, bridge.Start(t.Context()))
}

func TestSubjects(t *testing.T) {
	subjects := NewSubjects("statebus")
	require.Equal(t, "statebus.dispatch", subjects.Dispatch())
	require.Equal(t, "statebus.state", subjects.State())
	require.Equal(t, "statebus.value", subjects.Value())
	require.Equal(t, "statebus.subscribe", subjects.Subscribe())
	require.Equal(t, "statebus.unsubscribe", subjects.Unsubscribe())
	require.Equal(t, "statebus.update.abc", subjects.Update("abc"))
}
