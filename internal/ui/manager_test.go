package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/ethconnect/internal/session"
)

const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

type fakeWallet struct {
	mu          sync.Mutex
	snap        session.Snapshot
	connectErr  error
	fetchErr    error
	balances    map[string]string
	connects    int
	refreshes   int
	disconnects int
}

func (w *fakeWallet) Snapshot() session.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

func (w *fakeWallet) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connects++
	if w.connectErr != nil {
		w.snap = session.Snapshot{Err: w.connectErr.Error()}
		return w.connectErr
	}
	w.snap = session.Snapshot{
		Connected: true,
		Address:   testAddress,
		Balance:   "1.5",
		ChainID:   1,
		Network:   "Ethereum Mainnet",
		Currency:  "ETH",
	}
	return nil
}

func (w *fakeWallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.disconnects++
	w.snap = session.Snapshot{}
}

func (w *fakeWallet) RefreshBalance(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refreshes++
	return nil
}

func (w *fakeWallet) IsValidAddress(candidate string) bool {
	return candidate == testAddress
}

func (w *fakeWallet) FetchBalance(ctx context.Context, candidate string) (string, error) {
	if !w.IsValidAddress(candidate) {
		w.mu.Lock()
		w.snap.Err = session.ErrInvalidAddress.Error()
		w.mu.Unlock()
		return "", session.ErrInvalidAddress
	}
	if w.fetchErr != nil {
		return "", w.fetchErr
	}
	return w.balances[candidate], nil
}

type fakeSwitcher struct {
	addrs    []common.Address
	selected []common.Address
	revoked  int
}

func (f *fakeSwitcher) Accounts() []common.Address { return f.addrs }

func (f *fakeSwitcher) Select(addr common.Address) error {
	f.selected = append(f.selected, addr)
	return nil
}

func (f *fakeSwitcher) Revoke() { f.revoked++ }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msg to the model and runs the returned command once
func press(t *testing.T, m WalletManager, msg tea.Msg) (WalletManager, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	wm, ok := next.(WalletManager)
	require.True(t, ok)
	if cmd == nil {
		return wm, nil
	}
	return wm, cmd()
}

func feed(t *testing.T, m WalletManager, msg tea.Msg) WalletManager {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(WalletManager)
}

func newTestManager(w *fakeWallet, opts ...ManagerOption) WalletManager {
	return NewWalletManager(w, NewEvents(), opts...)
}

func TestWalletManager_Connect(t *testing.T) {
	w := &fakeWallet{}
	m := newTestManager(w)
	assert.Contains(t, m.View(), "Not connected")

	m, msg := press(t, m, key("c"))
	require.IsType(t, opDoneMsg{}, msg)
	m = feed(t, m, msg)

	assert.Equal(t, 1, w.connects)
	assert.True(t, m.snap.Connected)
	view := m.View()
	assert.Contains(t, view, "Connected")
	assert.Contains(t, view, testAddress)
	assert.Contains(t, view, "1.5 ETH")
	assert.Contains(t, view, "Ethereum Mainnet (chain 1)")
}

func TestWalletManager_ConnectFailure(t *testing.T) {
	w := &fakeWallet{connectErr: session.ErrNoProvider}
	m := newTestManager(w)

	m, msg := press(t, m, key("c"))
	m = feed(t, m, msg)

	assert.False(t, m.snap.Connected)
	assert.Contains(t, m.View(), session.ErrNoProvider.Error())
}

func TestWalletManager_DisconnectAndRefresh(t *testing.T) {
	w := &fakeWallet{}
	require.NoError(t, w.Connect(context.Background()))
	m := newTestManager(w)

	m, msg := press(t, m, key("r"))
	m = feed(t, m, msg)
	assert.Equal(t, 1, w.refreshes)

	m, _ = press(t, m, key("d"))
	assert.Equal(t, 1, w.disconnects)
	assert.False(t, m.snap.Connected)
}

func TestWalletManager_Lookup(t *testing.T) {
	w := &fakeWallet{balances: map[string]string{testAddress: "2.25"}}
	require.NoError(t, w.Connect(context.Background()))
	m := newTestManager(w)

	m = feed(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.input.Focused())

	m = feed(t, m, key(testAddress))
	assert.Contains(t, m.View(), SymbolCheck)

	m, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.IsType(t, lookupMsg{}, msg)
	m = feed(t, m, msg)
	assert.Contains(t, m.View(), testAddress+" holds 2.25 ETH")

	t.Run("invalid address", func(t *testing.T) {
		m := m
		m.input.Reset()
		m = feed(t, m, key("0x123"))
		assert.Contains(t, m.View(), SymbolCross)

		m, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		m = feed(t, m, msg)
		assert.Empty(t, m.lookup)
		assert.Equal(t, session.ErrInvalidAddress.Error(), m.lookupErr)
		assert.Equal(t, 1, strings.Count(m.View(), session.ErrInvalidAddress.Error()))
	})

	t.Run("editing clears the result", func(t *testing.T) {
		require.NotEmpty(t, m.lookup)
		m := feed(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
		assert.Empty(t, m.lookup)
		assert.NotContains(t, m.View(), "holds")
	})

	t.Run("result for an edited field is dropped", func(t *testing.T) {
		m := feed(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
		m = feed(t, m, lookupMsg{address: testAddress, balance: "9"})
		assert.Empty(t, m.lookup)
	})
}

func TestWalletManager_LookupError(t *testing.T) {
	w := &fakeWallet{fetchErr: errors.New("failed to fetch balance: rpc down")}
	require.NoError(t, w.Connect(context.Background()))
	m := newTestManager(w)

	m = feed(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = feed(t, m, key(testAddress))
	m, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = feed(t, m, msg)

	assert.Equal(t, "failed to fetch balance: rpc down", m.lookupErr)
	assert.Contains(t, m.View(), SymbolCross+" failed to fetch balance: rpc down")
	assert.True(t, m.snap.Connected)

	m = feed(t, m, key("0"))
	assert.Empty(t, m.lookupErr)
	assert.NotContains(t, m.View(), "rpc down")
}

func TestWalletManager_SwitchAccount(t *testing.T) {
	other := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	sw := &fakeSwitcher{addrs: []common.Address{common.HexToAddress(testAddress), other}}
	w := &fakeWallet{}
	require.NoError(t, w.Connect(context.Background()))
	m := newTestManager(w, WithAccountSwitcher(sw))

	m = feed(t, m, key("s"))
	require.NotNil(t, m.picker)
	assert.Contains(t, m.View(), "Switch account")

	m = feed(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.picker)
	require.IsType(t, opDoneMsg{}, msg)
	assert.Equal(t, []common.Address{other}, sw.selected)

	_, msg = press(t, m, key("x"))
	require.IsType(t, opDoneMsg{}, msg)
	assert.Equal(t, 1, sw.revoked)
}

func TestWalletManager_SwitchUnsupported(t *testing.T) {
	m := newTestManager(&fakeWallet{})
	m = feed(t, m, key("s"))
	assert.Nil(t, m.picker)
	assert.Contains(t, m.View(), "not supported")
}

func TestWalletManager_Events(t *testing.T) {
	w := &fakeWallet{}
	events := NewEvents()
	m := NewWalletManager(w, events)

	require.NoError(t, w.Connect(context.Background()))
	events.Observe(w.Snapshot())

	msg := events.wait()()
	require.IsType(t, stateChangedMsg{}, msg)
	m = feed(t, m, msg)
	assert.True(t, m.snap.Connected)

	go events.Reload()
	msg = events.wait()()
	require.IsType(t, reloadMsg{}, msg)
	m = feed(t, m, msg)
	assert.False(t, m.snap.Connected)
	assert.Equal(t, 1, w.disconnects)
	assert.Contains(t, m.View(), "Network changed")
}

func TestWalletManager_Quit(t *testing.T) {
	events := NewEvents()
	m := NewWalletManager(&fakeWallet{}, events)

	next, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Goodbye!\n", next.View())

	// a closed bridge no longer blocks reloads
	done := make(chan struct{})
	go func() {
		for range 100 {
			events.Reload()
		}
		close(done)
	}()
	<-done
}

func TestEvents_ObserveCoalesces(t *testing.T) {
	events := NewEvents()
	for range 200 {
		events.Observe(session.Snapshot{})
	}
	assert.Len(t, events.ch, cap(events.ch))
}
