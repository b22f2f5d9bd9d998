package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueReflectsLatestDispatch(t *testing.T) {
	engine := NewEngine(DefaultSchema())
	ctx := t.Context()
	selection := engine.Select(FieldCounter)

	value, err := selection.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), value)

	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	value, err = selection.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), value)

	require.NoError(t, engine.Dispatch(ctx, ResetApp()))
	value, err = selection.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), value)
}

func TestSubscribeDeliversNewValueOncePerChange(t *testing.T) {
	engine := NewEngine(DefaultSchema())
	ctx := t.Context()

	var received []int64
	cancel, err := engine.Select(FieldCounter).Subscribe(func(v int64) {
		received = append(received, v)
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))

	require.Equal(t, []int64{1, 2, 3}, received)
}

func TestSubscribeDoesNotReplayPriorChanges(t *testing.T) {
	engine := NewEngine(DefaultSchema())
	ctx := t.Context()

	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))

	var received []int64
	cancel, err := engine.Select(FieldCounter).Subscribe(func(v int64) {
		received = append(received, v)
	})
	require.NoError(t, err)
	defer cancel()

	require.Empty(t, received)
}

func TestCallbacksFireInSubscriptionOrder(t *testing.T) {
	engine := NewEngine(DefaultSchema())
	ctx := t.Context()

	var order []string
	first, err := engine.Select(FieldCounter).Subscribe(func(int64) {
		order = append(order, "first")
	})
	require.NoError(t, err)
	defer first()
	second, err := engine.Select(FieldCounter).Subscribe(func(int64) {
		order = append(order, "second")
	})
	require.NoError(t, err)
	defer second()

	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	require.Equal(t, []string{"first", "second"}, order)
}

func TestDuplicateCallbackGetsDistinctSlots(t *testing.T) {
	engine := NewEngine(DefaultSchema())
	ctx := t.Context()

	var calls int
	fn := func(int64) { calls++ }
	selection := engine.Select(FieldCounter)

	cancelA, err := selection.Subscribe(fn)
	require.NoError(t, err)
	cancelB, err := selection.Subscribe(fn)
	require.NoError(t, err)

	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	require.Equal(t, 2, calls)

	// Cancelling one slot leaves the other live.
	cancelA()
	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	require.Equal(t, 3, calls)

	cancelB()
	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	require.Equal(t, 3, calls)
}

func TestCancelIsIdempotent(t *testing.T) {
	engine := NewEngine(DefaultSchema())
	ctx := t.Context()

	var calls int
	cancel, err := engine.Select(FieldCounter).Subscribe(func(int64) { calls++ })
	require.NoError(t, err)

	cancel()
	require.NotPanics(t, func() { cancel() })

	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	require.Zero(t, calls)
}

func TestCancelDropsRegistryEntry(t *testing.T) {
	engine := NewEngine(DefaultSchema())

	cancel, err := engine.Select(FieldCounter).Subscribe(func(int64) {})
	require.NoError(t, err)

	engine.mu.Lock()
	require.Len(t, engine.subs[FieldCounter], 1)
	engine.mu.Unlock()

	cancel()

	engine.mu.Lock()
	require.Empty(t, engine.subs[FieldCounter])
	engine.mu.Unlock()
}

func TestDispatchFromCallbackDoesNotDeadlock(t *testing.T) {
	engine := NewEngine(DefaultSchema())
	ctx := t.Context()

	var values []int64
	cancel, err := engine.Select(FieldCounter).Subscribe(func(v int64) {
		values = append(values, v)
		if v == 1 {
			// Follow-up dispatch from inside a notification runs as an
			// ordinary sequential dispatch.
			require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
		}
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, engine.Dispatch(ctx, IncrementCounter()))
	require.Equal(t, []int64{1, 2}, values)
}
