// Package store defines the backend contract for an observable state record
// and provides the in-memory reference implementation. A backend owns the
// record and its subscription registry; consumers hold only the interface and
// never a copy of state. The remote package provides the NATS-proxied
// implementation of the same contract.
package store

import "context"

// CancelFunc tears down one subscription. Calling it more than once is a
// no-op, never an error.
type CancelFunc func()

// Backend is the contract every store implementation satisfies. Views and
// CLI verbs receive a Backend explicitly; there is no ambient global.
type Backend interface {
	// Dispatch applies one action and returns after every resulting
	// notification has been delivered. Unrecognized actions leave state
	// untouched and still return nil.
	Dispatch(ctx context.Context, action Action) error

	// State returns a snapshot copy of the full record.
	State(ctx context.Context) (State, error)

	// Select binds a selection to one field. Field names are compile-time
	// constants; selecting a field the schema does not declare is a
	// programming error and panics in the in-memory implementation.
	Select(field Field) Selection
}

// Selection is a live handle on one field of a backend's record.
type Selection interface {
	// Value resolves the field's value at call time, not at bind time.
	Value(ctx context.Context) (int64, error)

	// Subscribe registers a callback invoked with the new value on every
	// future change to the bound field. Changes that precede the subscribe
	// are not replayed. Within one field, callbacks fire in subscription
	// order.
	Subscribe(fn func(int64)) (CancelFunc, error)
}
