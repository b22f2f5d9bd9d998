package store

import (
	"context"
	"sync"
)

// engineSelection is the in-memory selection. It holds only the field name
// and a reference back into the engine's registry, never its own copy of
// state.
type engineSelection struct {
	engine *Engine
	field  Field
}

// Value resolves the field's current value at call time.
func (s *engineSelection) Value(ctx context.Context) (int64, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.engine.state[s.field], nil
}

// Subscribe registers the callback for every future change to the bound
// field. The returned cancel func drops the registration immediately and is
// safe to call more than once.
func (s *engineSelection) Subscribe(fn func(int64)) (CancelFunc, error) {
	id := s.engine.subscribe(s.field, fn)
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.engine.unsubscribe(s.field, id)
		})
	}
	return cancel, nil
}

var _ Selection = (*engineSelection)(nil)
