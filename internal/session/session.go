// Package session keeps a wallet connection in sync with an injected provider.
//
// A Session owns the connected account, its balance and the active chain. All
// operations are safe for concurrent use. Every state write is tagged with the
// generation the operation started against and is dropped if a later connect
// or disconnect has advanced the generation in the meantime.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/yolodolo42/ethconnect/internal/chain"
	"github.com/yolodolo42/ethconnect/internal/provider"
	"go.uber.org/zap"
)

var (
	ErrNoProvider          = errors.New("no injected wallet provider available")
	ErrProviderUnavailable = errors.New("provider not available")
	ErrInvalidAddress      = errors.New("invalid Ethereum address")
	ErrStale               = errors.New("session changed while the operation was in flight")
)

// Session is a single wallet connection
type Session struct {
	id        string
	injected  provider.Injected
	newClient ClientFactory
	reloader  Reloader
	observer  func(Snapshot)
	log       *zap.SugaredLogger

	mu         sync.Mutex
	state      state
	errMsg     string
	inflight   int
	connecting int
	generation uint64
	subscribed bool
	closed     bool

	onAccounts *provider.Listener
	onChain    *provider.Listener

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for lifecycle events
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClientFactory replaces the chain client built on connect
func WithClientFactory(f ClientFactory) Option {
	return func(s *Session) {
		if f != nil {
			s.newClient = f
		}
	}
}

// WithReloader sets what happens when the provider reports a chain change.
// Without one the session simply disconnects.
func WithReloader(r Reloader) Option {
	return func(s *Session) {
		s.reloader = r
	}
}

// WithObserver registers a callback that receives a snapshot after every
// state change. It is called without the session lock held.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// New creates a disconnected session. injected may be nil when no wallet is
// present in the environment; Connect then fails with ErrNoProvider.
func New(injected provider.Injected, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		injected:  injected,
		newClient: NewBrowserClient,
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reloader == nil {
		s.reloader = ReloadFunc(s.Disconnect)
	}
	s.log = s.log.With("session_id", s.id)

	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())
	s.onAccounts = provider.NewListener(s.handleAccountsChanged)
	s.onChain = provider.NewListener(s.handleChainChanged)

	return s
}

// ID identifies the session in logs
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := s.state.snapshot()
	snap.Loading = s.inflight > 0
	snap.Err = s.errMsg
	return snap
}

func (s *Session) notify() {
	if s.observer != nil {
		s.observer(s.Snapshot())
	}
}

// op is one in-flight operation
type op struct {
	s    *Session
	gen  uint64
	done bool
}

// startLocked registers an operation, clears the last error and returns the
// operation tagged with the current generation. bump starts a new generation
// first, invalidating every operation already in flight.
func (s *Session) startLocked(bump bool) *op {
	if bump {
		s.generation++
	}
	s.inflight++
	s.errMsg = ""
	return &op{s: s, gen: s.generation}
}

// commit finishes the operation. apply runs under the lock only if no newer
// generation started; commit reports whether it ran.
func (o *op) commit(apply func()) bool {
	s := o.s
	s.mu.Lock()
	current := o.gen == s.generation
	if current && apply != nil {
		apply()
	}
	if !o.done {
		o.done = true
		s.inflight--
	}
	s.mu.Unlock()
	s.notify()
	return current
}

// release ends an operation that never committed
func (o *op) release() {
	if !o.done {
		o.commit(nil)
	}
}

// Connect requests account access and loads the address, balance and chain.
// On success the whole connected state is replaced at once; on any failure the
// session is reset to empty and the error message recorded.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.connecting++
	o := s.startLocked(true)
	s.mu.Unlock()
	s.notify()
	defer func() {
		s.mu.Lock()
		s.connecting--
		s.mu.Unlock()
	}()
	defer o.release()

	next, err := s.resolve(ctx)
	if err != nil {
		s.log.Warnw("wallet connect failed", "error", err)
		if !o.commit(func() {
			s.state = state{}
			s.errMsg = err.Error()
		}) {
			return ErrStale
		}
		return err
	}

	if !o.commit(func() { s.state = next }) {
		s.log.Debugw("discarding superseded connect", "address", next.address)
		return ErrStale
	}

	s.log.Infow("wallet connected",
		"address", next.address,
		"chain_id", next.chainID,
		"network", next.network,
	)
	return nil
}

func (s *Session) resolve(ctx context.Context) (state, error) {
	if s.injected == nil {
		return state{}, ErrNoProvider
	}

	client := s.newClient(s.injected)

	signer, err := client.GetSigner(ctx)
	if err != nil {
		return state{}, fmt.Errorf("failed to get signer: %w", err)
	}

	address, err := signer.GetAddress(ctx)
	if err != nil {
		return state{}, fmt.Errorf("failed to get address: %w", err)
	}

	balance, err := client.GetBalance(ctx, address)
	if err != nil {
		return state{}, fmt.Errorf("failed to get balance: %w", err)
	}

	network, err := client.GetNetwork(ctx)
	if err != nil {
		return state{}, fmt.Errorf("failed to get network: %w", err)
	}
	if network == nil || network.ChainID == nil || !network.ChainID.IsUint64() {
		return state{}, errors.New("failed to get network: invalid chain id")
	}

	return state{
		connected: true,
		address:   address,
		balance:   chain.FormatEther(balance),
		chainID:   network.ChainID.Uint64(),
		network:   network.Name,
		currency:  network.Currency,
		client:    client,
		signer:    signer,
	}, nil
}

// Disconnect resets the session to empty. Operations still in flight will
// not write their results.
func (s *Session) Disconnect() {
	s.mu.Lock()
	was := s.state.address
	s.generation++
	s.state = state{}
	s.errMsg = ""
	s.mu.Unlock()

	if was != "" {
		s.log.Infow("wallet disconnected", "address", was)
	}
	s.notify()
}

// RefreshBalance re-reads the balance of the connected account. It is a no-op
// when not connected. A failure is recorded but keeps the connection.
func (s *Session) RefreshBalance(ctx context.Context) error {
	s.mu.Lock()
	client, address := s.state.client, s.state.address
	if client == nil || address == "" {
		s.mu.Unlock()
		return nil
	}
	o := s.startLocked(false)
	s.mu.Unlock()
	s.notify()
	defer o.release()

	balance, err := client.GetBalance(ctx, address)
	if err != nil {
		err = fmt.Errorf("failed to refresh balance: %w", err)
		s.log.Warnw("balance refresh failed", "address", address, "error", err)
		if !o.commit(func() { s.errMsg = err.Error() }) {
			return ErrStale
		}
		return err
	}

	if !o.commit(func() { s.state.balance = chain.FormatEther(balance) }) {
		return ErrStale
	}
	return nil
}

// IsValidAddress reports whether candidate is a well formed address with a
// valid checksum when mixed case. It has no side effects.
func (s *Session) IsValidAddress(candidate string) bool {
	_, err := chain.GetAddress(candidate)
	return err == nil
}

// FetchBalance looks up the balance of any address through the connected
// provider without touching the session's own account state.
func (s *Session) FetchBalance(ctx context.Context, candidate string) (string, error) {
	if !s.IsValidAddress(candidate) {
		s.mu.Lock()
		s.errMsg = ErrInvalidAddress.Error()
		s.mu.Unlock()
		s.notify()
		return "", ErrInvalidAddress
	}

	s.mu.Lock()
	client := s.state.client
	o := s.startLocked(false)
	s.mu.Unlock()
	s.notify()
	defer o.release()

	if client == nil {
		o.commit(func() { s.errMsg = ErrProviderUnavailable.Error() })
		return "", ErrProviderUnavailable
	}

	balance, err := client.GetBalance(ctx, candidate)
	if err != nil {
		err = fmt.Errorf("failed to fetch balance: %w", err)
		o.commit(func() { s.errMsg = err.Error() })
		return "", err
	}

	o.commit(nil)
	return chain.FormatEther(balance), nil
}

// Subscribe registers the account and chain change listeners on the injected
// provider. Calling it again before Unsubscribe is a no-op.
func (s *Session) Subscribe() {
	s.mu.Lock()
	if s.subscribed || s.closed || s.injected == nil {
		s.mu.Unlock()
		return
	}
	s.subscribed = true
	s.mu.Unlock()

	s.injected.On(provider.EventAccountsChanged, s.onAccounts)
	s.injected.On(provider.EventChainChanged, s.onChain)
}

// Unsubscribe removes exactly the listeners Subscribe registered
func (s *Session) Unsubscribe() {
	s.mu.Lock()
	if !s.subscribed {
		s.mu.Unlock()
		return
	}
	s.subscribed = false
	s.mu.Unlock()

	s.injected.RemoveListener(provider.EventAccountsChanged, s.onAccounts)
	s.injected.RemoveListener(provider.EventChainChanged, s.onChain)
}

// Close unsubscribes and waits for reconnects started by notifications
func (s *Session) Close() {
	s.Unsubscribe()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.bgCancel()
	s.bg.Wait()
}

func (s *Session) handleAccountsChanged(payload any) {
	accounts, ok := payload.([]string)
	if !ok {
		s.log.Warnw("ignoring malformed accountsChanged payload", "payload", payload)
		return
	}

	s.mu.Lock()
	connected, connecting, current := s.state.connected, s.connecting > 0, s.state.address
	s.mu.Unlock()

	// a connect in flight may still commit the account the wallet just left
	if !connected && !connecting {
		return
	}

	if len(accounts) == 0 {
		s.log.Infow("wallet revoked all accounts")
		s.Disconnect()
		return
	}

	if connected && (accounts[0] == current || chain.SameAddress(accounts[0], current)) {
		return
	}

	s.log.Infow("wallet account changed", "from", current, "to", accounts[0])
	s.reconnect()
}

func (s *Session) handleChainChanged(payload any) {
	s.log.Infow("wallet chain changed, reloading", "chain_id", payload)
	s.reloader.Reload()
}

// reconnect runs Connect off the notifying goroutine
func (s *Session) reconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.bg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.bg.Done()
		_ = s.Connect(s.bgCtx)
	}()
}
