// Package ui is the demo counter view. It owns no state: reads, mutations,
// and change notifications all go through an injected store backend, which
// may be the in-memory engine or the remote client.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"git.home.luguber.info/inful/statebus/internal/store"
)

const backendCallTimeout = 5 * time.Second

// ---------------------------------------------------------------------------
// Bubble Tea messages
// ---------------------------------------------------------------------------

// connectedMsg carries the initial value and the live subscription handle.
type connectedMsg struct {
	value  int64
	cancel store.CancelFunc
}

// updateMsg carries one pushed counter change.
type updateMsg struct {
	value int64
}

// dispatchedMsg reports the outcome of a dispatch issued from a key press.
type dispatchedMsg struct {
	err error
}

// errMsg reports a failed backend call.
type errMsg struct {
	err error
}

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

// KeyMap defines the view's key bindings.
type KeyMap struct {
	Increment key.Binding
	Reset     key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Increment: key.NewBinding(
			key.WithKeys("+", "i", " "),
			key.WithHelp("+/i/space", "increment"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Model renders the counter and forwards key presses as dispatches.
type Model struct {
	backend store.Backend
	keys    KeyMap

	value   int64
	ready   bool
	err     error
	cancel  store.CancelFunc
	updates chan int64
}

// New creates the counter view over the given backend.
func New(backend store.Backend) Model {
	return Model{
		backend: backend,
		keys:    DefaultKeyMap(),
		updates: make(chan int64, 32),
	}
}

// Init connects to the backend.
func (m Model) Init() tea.Cmd {
	return m.connect
}

// connect reads the current value and registers the change subscription.
func (m Model) connect() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), backendCallTimeout)
	defer cancel()

	selection := m.backend.Select(store.FieldCounter)
	value, err := selection.Value(ctx)
	if err != nil {
		return errMsg{err: err}
	}

	updates := m.updates
	cancelSub, err := selection.Subscribe(func(v int64) {
		updates <- v
	})
	if err != nil {
		return errMsg{err: err}
	}

	return connectedMsg{value: value, cancel: cancelSub}
}

// waitForUpdate blocks until the subscription pushes the next change.
func (m Model) waitForUpdate() tea.Msg {
	return updateMsg{value: <-m.updates}
}

// dispatch issues one action against the backend.
func (m Model) dispatch(action store.Action) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), backendCallTimeout)
		defer cancel()
		return dispatchedMsg{err: backend.Dispatch(ctx, action)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		m.value = msg.value
		m.cancel = msg.cancel
		m.ready = true
		return m, m.waitForUpdate

	case updateMsg:
		m.value = msg.value
		return m, m.waitForUpdate

	case dispatchedMsg:
		m.err = msg.err
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Increment):
			if !m.ready {
				return m, nil
			}
			return m, m.dispatch(store.IncrementCounter())
		case key.Matches(msg, m.keys.Reset):
			if !m.ready {
				return m, nil
			}
			return m, m.dispatch(store.ResetApp())
		case key.Matches(msg, m.keys.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}
