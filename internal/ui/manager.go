package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/yolodolo42/ethconnect/internal/session"
)

// Wallet is the session surface the manager drives
type Wallet interface {
	Snapshot() session.Snapshot
	Connect(ctx context.Context) error
	Disconnect()
	RefreshBalance(ctx context.Context) error
	IsValidAddress(candidate string) bool
	FetchBalance(ctx context.Context, candidate string) (string, error)
}

// AccountSwitcher is implemented by providers that let the user pick the
// exposed account, such as the keystore provider
type AccountSwitcher interface {
	Accounts() []common.Address
	Select(addr common.Address) error
	Revoke()
}

// opDoneMsg is sent when a session operation returns
type opDoneMsg struct {
	err error
}

// lookupMsg is sent when a balance lookup returns
type lookupMsg struct {
	address string
	balance string
	err     error
}

// WalletManager is the interactive wallet screen
type WalletManager struct {
	wallet   Wallet
	accounts AccountSwitcher
	events   *Events
	timeout  time.Duration
	title    string

	snap      session.Snapshot
	spinner   spinner.Model
	input     AddressInput
	picker    *Picker
	lookup    string
	lookupErr string
	status    string
	width     int
	quitting  bool
}

// ManagerOption configures a WalletManager
type ManagerOption func(*WalletManager)

// WithAccountSwitcher enables the account switching and revoke keys
func WithAccountSwitcher(a AccountSwitcher) ManagerOption {
	return func(m *WalletManager) {
		m.accounts = a
	}
}

// WithTimeout bounds every session operation started from the UI
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *WalletManager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithTitle sets the header line
func WithTitle(title string) ManagerOption {
	return func(m *WalletManager) {
		m.title = title
	}
}

// NewWalletManager creates the model. events must be the observer and
// reloader the wallet session was built with.
func NewWalletManager(w Wallet, events *Events, opts ...ManagerOption) WalletManager {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	m := WalletManager{
		wallet:  w,
		events:  events,
		timeout: 30 * time.Second,
		title:   "ethconnect",
		snap:    w.Snapshot(),
		spinner: sp,
		input:   NewAddressInput(w.IsValidAddress),
		width:   80,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and the session event pump
func (m WalletManager) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.events.wait())
}

// Update handles messages and updates state
func (m WalletManager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(msg.Width)
		if m.picker != nil {
			m.picker.SetWidth(msg.Width)
		}
		return m, nil

	case stateChangedMsg:
		m.snap = m.wallet.Snapshot()
		return m, m.events.wait()

	case reloadMsg:
		m.wallet.Disconnect()
		m.snap = m.wallet.Snapshot()
		m.clearLookup()
		m.input.Reset()
		m.status = "Network changed, session reset. Press c to reconnect."
		return m, m.events.wait()

	case opDoneMsg:
		m.snap = m.wallet.Snapshot()
		if msg.err != nil && !errors.Is(msg.err, session.ErrStale) && m.snap.Err == "" {
			m.status = msg.err.Error()
		}
		return m, nil

	case lookupMsg:
		m.snap = m.wallet.Snapshot()
		if msg.address != m.input.Address() {
			// the field was edited while the lookup ran
			return m, nil
		}
		m.clearLookup()
		if msg.err == nil {
			m.lookup = fmt.Sprintf("%s holds %s %s", msg.address, msg.balance, m.currency())
		} else {
			m.lookupErr = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if m.picker != nil {
			return m.updatePicker(msg)
		}
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m WalletManager) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.events.Close()
	return m, tea.Quit
}

func (m WalletManager) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "q":
		return m.quit()

	case "c":
		return m, m.run(m.wallet.Connect)

	case "d":
		m.wallet.Disconnect()
		m.snap = m.wallet.Snapshot()
		m.clearLookup()
		return m, nil

	case "r":
		return m, m.run(m.wallet.RefreshBalance)

	case "s":
		if m.accounts == nil {
			m.status = "Account switching is not supported by this provider."
			return m, nil
		}
		return m.openPicker()

	case "x":
		if m.accounts == nil {
			m.status = "Revoking access is not supported by this provider."
			return m, nil
		}
		accounts := m.accounts
		return m, func() tea.Msg {
			accounts.Revoke()
			return opDoneMsg{}
		}

	case "tab", "/":
		return m, m.input.Focus()
	}

	return m, nil
}

func (m WalletManager) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyTab:
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		candidate := m.input.Address()
		if candidate == "" {
			return m, nil
		}
		return m, m.fetch(candidate)
	}

	before := m.input.Address()
	cmd := m.input.Update(msg)
	if m.input.Address() != before {
		m.clearLookup()
	}
	return m, cmd
}

func (m *WalletManager) clearLookup() {
	m.lookup = ""
	m.lookupErr = ""
}

func (m WalletManager) openPicker() (tea.Model, tea.Cmd) {
	addrs := m.accounts.Accounts()
	if len(addrs) == 0 {
		m.status = "No accounts in the keystore. Run 'ethconnect wallet create'."
		return m, nil
	}

	options := make([]PickerOption, 0, len(addrs))
	for _, addr := range addrs {
		options = append(options, PickerOption{
			Value:   addr.Hex(),
			Current: addr.Hex() == m.snap.Address,
		})
	}

	p := NewPicker("Switch account", options)
	p.SetWidth(m.width)
	m.picker = &p
	return m, nil
}

func (m WalletManager) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.picker.HandleKey(msg)
	if !m.picker.Done() {
		return m, nil
	}

	choice, ok := m.picker.Choice()
	m.picker = nil
	if !ok {
		return m, nil
	}

	accounts := m.accounts
	return m, func() tea.Msg {
		return opDoneMsg{err: accounts.Select(common.HexToAddress(choice))}
	}
}

// run executes a session operation off the update loop
func (m WalletManager) run(fn func(ctx context.Context) error) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return opDoneMsg{err: fn(ctx)}
	}
}

func (m WalletManager) fetch(candidate string) tea.Cmd {
	w, timeout := m.wallet, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		balance, err := w.FetchBalance(ctx, candidate)
		return lookupMsg{address: candidate, balance: balance, err: err}
	}
}

func (m WalletManager) currency() string {
	if m.snap.Currency != "" {
		return m.snap.Currency
	}
	return "ETH"
}

// View renders the UI
func (m WalletManager) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render("  "+m.title) + "\n\n")

	if m.snap.Connected {
		b.WriteString("  " + ConnectedStyle.Render(SymbolBullet+" Connected") + "\n\n")
		b.WriteString(m.row("Account", ValueStyle.Render(m.snap.Address)))
		b.WriteString(m.row("Balance", BalanceStyle.Render(m.snap.Balance+" "+m.currency())))
		b.WriteString(m.row("Network", ValueStyle.Render(fmt.Sprintf("%s (chain %d)", m.snap.Network, m.snap.ChainID))))
	} else {
		b.WriteString("  " + DisconnectedStyle.Render(SymbolBullet+" Not connected") + "\n")
	}
	b.WriteString("\n")

	if m.snap.Loading {
		b.WriteString(fmt.Sprintf("  %s Working...\n\n", m.spinner.View()))
	}
	if m.snap.Err != "" && m.snap.Err != m.lookupErr {
		b.WriteString("  " + ErrorStyle.Render(SymbolCross+" "+m.snap.Err) + "\n\n")
	}
	if m.status != "" {
		b.WriteString("  " + SystemStyle.Render(m.status) + "\n\n")
	}

	if m.picker != nil {
		b.WriteString(m.picker.View())
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("  " + HelpStyle.Render("Look up balance") + "\n")
	b.WriteString("  " + m.input.View() + "\n")
	if m.lookup != "" {
		b.WriteString("  " + ValueStyle.Render(m.lookup) + "\n")
	}
	if m.lookupErr != "" {
		b.WriteString("  " + ErrorStyle.Render(SymbolCross+" "+m.lookupErr) + "\n")
	}
	b.WriteString("\n")

	help := "c connect • d disconnect • r refresh • tab address"
	if m.accounts != nil {
		help += " • s switch account • x revoke"
	}
	help += " • q quit"
	b.WriteString(HelpStyle.Render("  "+help) + "\n")

	return b.String()
}

func (m WalletManager) row(label, value string) string {
	return "  " + LabelStyle.Render(label) + value + "\n"
}
