package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yolodolo42/ethconnect/internal/session"
)

// stateChangedMsg tells the model to re-read the wallet snapshot
type stateChangedMsg struct{}

// reloadMsg asks the model to reset after a chain change
type reloadMsg struct{}

// Events carries session notifications into the bubbletea loop. Its Observe
// method is a session observer and the value itself is a session.Reloader.
type Events struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewEvents creates an open event bridge
func NewEvents() *Events {
	return &Events{
		ch:   make(chan tea.Msg, 64),
		done: make(chan struct{}),
	}
}

// Observe records that the session changed. Notifications are coalesced when
// the UI falls behind; the model always reads the latest snapshot.
func (e *Events) Observe(session.Snapshot) {
	select {
	case e.ch <- stateChangedMsg{}:
	default:
	}
}

// Reload forwards a chain change to the model
func (e *Events) Reload() {
	select {
	case e.ch <- reloadMsg{}:
	case <-e.done:
	}
}

// Close releases senders blocked on a model that stopped reading
func (e *Events) Close() {
	e.once.Do(func() { close(e.done) })
}

func (e *Events) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-e.ch:
			return msg
		case <-e.done:
			return nil
		}
	}
}

var _ session.Reloader = (*Events)(nil)
