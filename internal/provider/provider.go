package provider

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Event names emitted by an injected provider
type Event string

const (
	// EventAccountsChanged carries the new ordered account list as []string
	EventAccountsChanged Event = "accountsChanged"
	// EventChainChanged carries the new chain id as a hex string
	EventChainChanged Event = "chainChanged"
)

var (
	ErrNoAccounts     = errors.New("no accounts available")
	ErrNoUpstream     = errors.New("no upstream node configured")
	ErrUnknownAccount = errors.New("account not found in keystore")
)

// Injected is the capability a wallet exposes to its host: a generic request
// dispatcher plus account/chain change notifications.
type Injected interface {
	// Request dispatches a JSON-RPC method and returns the raw result
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)

	// On registers a listener for an event
	On(event Event, l *Listener)

	// RemoveListener deregisters a listener previously passed to On
	RemoveListener(event Event, l *Listener)
}

// Listener wraps a callback so it can be identified when removed.
// Function values are not comparable in Go, the pointer is the identity.
type Listener struct {
	fn func(payload any)
}

// NewListener creates a listener around fn
func NewListener(fn func(payload any)) *Listener {
	return &Listener{fn: fn}
}

// Notify invokes the callback
func (l *Listener) Notify(payload any) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(payload)
}

// Emitter is a listener registry that providers embed to implement On and
// RemoveListener.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[Event][]*Listener
}

// On registers l for event. Registering the same listener twice is a no-op.
func (e *Emitter) On(event Event, l *Listener) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[Event][]*Listener)
	}
	for _, existing := range e.listeners[event] {
		if existing == l {
			return
		}
	}
	e.listeners[event] = append(e.listeners[event], l)
}

// RemoveListener deregisters l for event
func (e *Emitter) RemoveListener(event Event, l *Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.listeners[event]
	for i, existing := range current {
		if existing == l {
			e.listeners[event] = append(current[:i:i], current[i+1:]...)
			break
		}
	}
	if len(e.listeners[event]) == 0 {
		delete(e.listeners, event)
	}
}

// ListenerCount returns the number of listeners registered for event
func (e *Emitter) ListenerCount(event Event) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}

// Emit delivers payload to every listener of event on the calling goroutine.
// The listener set is copied first so callbacks may add or remove listeners.
func (e *Emitter) Emit(event Event, payload any) {
	e.mu.RLock()
	targets := make([]*Listener, len(e.listeners[event]))
	copy(targets, e.listeners[event])
	e.mu.RUnlock()

	for _, l := range targets {
		l.Notify(payload)
	}
}
