package provider

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Keystore is an injected provider that exposes one account from a local
// go-ethereum keystore and forwards every other request to an upstream node,
// the way a browser extension wallet sits in front of its RPC endpoint.
//
// Account permission methods are answered locally. Selecting or revoking the
// exposed account emits accountsChanged; chainChanged from the upstream is
// re-emitted unchanged.
type Keystore struct {
	Emitter

	ks       *keystore.KeyStore
	upstream Injected
	forward  *Listener

	mu       sync.RWMutex
	selected *common.Address

	events chan accounts.WalletEvent
	sub    event.Subscription
	done   chan struct{}
	closed sync.Once
}

// NewKeystore creates a keystore provider. upstream may be nil, in which case
// only the account methods are served.
func NewKeystore(ks *keystore.KeyStore, upstream Injected) *Keystore {
	k := &Keystore{
		ks:       ks,
		upstream: upstream,
		events:   make(chan accounts.WalletEvent, 8),
		done:     make(chan struct{}),
	}

	if upstream != nil {
		k.forward = NewListener(func(payload any) {
			k.Emit(EventChainChanged, payload)
		})
		upstream.On(EventChainChanged, k.forward)
	}

	k.sub = ks.Subscribe(k.events)
	go k.walletLoop()

	return k
}

// walletLoop revokes the exposed account when its key file disappears
func (k *Keystore) walletLoop() {
	defer close(k.done)

	for {
		select {
		case ev := <-k.events:
			if ev.Kind != accounts.WalletDropped {
				continue
			}
			for _, acc := range ev.Wallet.Accounts() {
				if k.isSelected(acc.Address) {
					k.Revoke()
				}
			}
		case <-k.sub.Err():
			return
		}
	}
}

// Request implements Injected
func (k *Keystore) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case "eth_accounts":
		return json.Marshal(k.exposed())
	case "eth_requestAccounts":
		addr, err := k.authorize()
		if err != nil {
			return nil, err
		}
		return json.Marshal([]string{addr.Hex()})
	}

	if k.upstream == nil {
		return nil, ErrNoUpstream
	}
	return k.upstream.Request(ctx, method, params...)
}

// authorize returns the exposed account, exposing the first keystore account
// when none has been selected yet.
func (k *Keystore) authorize() (common.Address, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.selected != nil {
		return *k.selected, nil
	}

	accs := k.ks.Accounts()
	if len(accs) == 0 {
		return common.Address{}, ErrNoAccounts
	}
	addr := accs[0].Address
	k.selected = &addr
	return addr, nil
}

func (k *Keystore) exposed() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.selected == nil {
		return []string{}
	}
	return []string{k.selected.Hex()}
}

func (k *Keystore) isSelected(addr common.Address) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.selected != nil && *k.selected == addr
}

// Accounts lists every account in the keystore
func (k *Keystore) Accounts() []common.Address {
	accs := k.ks.Accounts()
	out := make([]common.Address, 0, len(accs))
	for _, acc := range accs {
		out = append(out, acc.Address)
	}
	return out
}

// Selected returns the exposed account, if any
func (k *Keystore) Selected() (common.Address, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.selected == nil {
		return common.Address{}, false
	}
	return *k.selected, true
}

// Select exposes addr and emits accountsChanged if it differs from the
// currently exposed account.
func (k *Keystore) Select(addr common.Address) error {
	if !k.ks.HasAddress(addr) {
		return ErrUnknownAccount
	}

	k.mu.Lock()
	changed := k.selected == nil || *k.selected != addr
	k.selected = &addr
	k.mu.Unlock()

	if changed {
		k.Emit(EventAccountsChanged, []string{addr.Hex()})
	}
	return nil
}

// Revoke stops exposing any account and emits an empty accountsChanged
func (k *Keystore) Revoke() {
	k.mu.Lock()
	had := k.selected != nil
	k.selected = nil
	k.mu.Unlock()

	if had {
		k.Emit(EventAccountsChanged, []string{})
	}
}

// Close stops watching the keystore and detaches from the upstream
func (k *Keystore) Close() {
	k.closed.Do(func() {
		k.sub.Unsubscribe()
		<-k.done
		if k.upstream != nil {
			k.upstream.RemoveListener(EventChainChanged, k.forward)
		}
	})
}
