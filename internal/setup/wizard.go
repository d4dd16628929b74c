package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/yolodolo42/ethconnect/internal/ui"
	"github.com/yolodolo42/ethconnect/internal/wallet"
)

// WizardStep is a screen of the setup wizard
type WizardStep int

const (
	StepWelcome WizardStep = iota
	StepSource
	StepSecret
	StepPassword
	StepDone
)

// walletSource is where the first account comes from
type walletSource string

const (
	sourceNew      walletSource = "new"
	sourceKey      walletSource = "key"
	sourceMnemonic walletSource = "mnemonic"
	sourceNone     walletSource = "none"
)

// SetupResult contains the result of the setup wizard
type SetupResult struct {
	WalletCreated bool
	WalletAddress string
	Cancelled     bool
}

// WizardModel is the first run wizard that puts an account in the keystore
type WizardModel struct {
	step         WizardStep
	dataDir      string
	keystoreOpts []wallet.Option

	picker     ui.Picker
	source     walletSource
	secret     textinput.Model
	password   textinput.Model
	confirm    textinput.Model
	confirming bool
	saving     bool
	errMsg     string
	address    string

	spinner  spinner.Model
	progress progress.Model

	result *SetupResult
}

type walletSavedMsg struct {
	address string
	err     error
}

func sourcePicker() ui.Picker {
	return ui.NewPicker("Set up a wallet", []ui.PickerOption{
		{Value: string(sourceNew), Title: "Create a new wallet", Hint: "fresh key, encrypted on disk"},
		{Value: string(sourceKey), Title: "Import a private key", Hint: "hex key, with or without 0x"},
		{Value: string(sourceMnemonic), Title: "Import a recovery phrase", Hint: "12 or 24 words, first account"},
		{Value: string(sourceNone), Title: "Continue without wallet", Hint: "connect will report no accounts"},
	})
}

func hiddenInput(placeholder string, limit, width int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = limit
	ti.Width = width
	return ti
}

// NewWizard creates the wizard. opts are passed to the keystore manager.
func NewWizard(dataDir string, opts ...wallet.Option) *WizardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.SpinnerStyle

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &WizardModel{
		step:         StepWelcome,
		dataDir:      dataDir,
		keystoreOpts: opts,
		picker:       sourcePicker(),
		secret:       hiddenInput("", 66, 66),
		password:     hiddenInput("Enter password (8+ chars)", 100, 40),
		confirm:      hiddenInput("Confirm password", 100, 40),
		spinner:      sp,
		progress:     prog,
	}
}

// Init initializes the wizard
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// Update handles messages
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.finish(&SetupResult{Cancelled: true})
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.progress.Width = min(40, msg.Width-20)
		m.picker.SetWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case walletSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.clearPasswords()
			m.errMsg = msg.err.Error()
			return m, m.password.Focus()
		}
		m.address = msg.address
		m.step = StepDone
		return m, nil
	}

	return m, nil
}

func (m WizardModel) finish(result *SetupResult) (tea.Model, tea.Cmd) {
	m.result = result
	return m, tea.Quit
}

func (m WizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.step {
	case StepWelcome:
		if msg.Type == tea.KeyEnter {
			m.step = StepSource
		}
		return m, nil

	case StepSource:
		return m.chooseSource(msg)

	case StepSecret:
		switch msg.Type {
		case tea.KeyEsc:
			m.toSource()
			return m, nil
		case tea.KeyEnter:
			return m.submitSecret()
		}
		var cmd tea.Cmd
		m.secret, cmd = m.secret.Update(msg)
		return m, cmd

	case StepPassword:
		if m.saving {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEsc:
			m.clearPasswords()
			if m.source == sourceNew {
				m.toSource()
				return m, nil
			}
			m.step = StepSecret
			return m, m.secret.Focus()
		case tea.KeyEnter:
			return m.submitPassword()
		}
		var cmd tea.Cmd
		if m.confirming {
			m.confirm, cmd = m.confirm.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
		return m, cmd

	case StepDone:
		if msg.Type == tea.KeyEnter {
			return m.finish(&SetupResult{
				WalletCreated: m.address != "",
				WalletAddress: m.address,
			})
		}
	}
	return m, nil
}

func (m *WizardModel) toSource() {
	m.step = StepSource
	m.source = ""
	m.errMsg = ""
	m.secret.Reset()
	m.secret.Blur()
	m.picker = sourcePicker()
}

func (m *WizardModel) clearPasswords() {
	m.confirming = false
	m.errMsg = ""
	m.password.Reset()
	m.confirm.Reset()
	m.confirm.Blur()
}

func (m WizardModel) chooseSource(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.picker.HandleKey(msg)
	if !m.picker.Done() {
		return m, nil
	}

	choice, ok := m.picker.Choice()
	if !ok {
		return m.finish(&SetupResult{Cancelled: true})
	}

	m.source = walletSource(choice)
	switch m.source {
	case sourceNew:
		m.step = StepPassword
		return m, m.password.Focus()
	case sourceKey:
		m.secret.Placeholder = "Paste private key (hex)"
		m.secret.CharLimit = 66
	case sourceMnemonic:
		m.secret.Placeholder = "Enter recovery phrase"
		m.secret.CharLimit = 256
	default:
		m.step = StepDone
		return m, nil
	}
	m.step = StepSecret
	return m, m.secret.Focus()
}

func (m WizardModel) submitSecret() (tea.Model, tea.Cmd) {
	var err error
	if m.source == sourceMnemonic {
		err = wallet.ValidateMnemonic(m.secret.Value())
	} else if wallet.ValidateKey(m.secret.Value()) != nil {
		err = fmt.Errorf("that is not a valid private key")
	}
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}

	m.errMsg = ""
	m.secret.Blur()
	m.step = StepPassword
	return m, m.password.Focus()
}

func (m WizardModel) submitPassword() (tea.Model, tea.Cmd) {
	if !m.confirming {
		if len(m.password.Value()) < 8 {
			m.errMsg = "password must be at least 8 characters"
			return m, nil
		}
		m.confirming = true
		m.errMsg = ""
		m.password.Blur()
		return m, m.confirm.Focus()
	}

	if m.password.Value() != m.confirm.Value() {
		m.errMsg = "passwords do not match, try again"
		m.confirm.Reset()
		return m, m.confirm.Focus()
	}

	m.saving = true
	return m, m.saveWallet()
}

// View renders the wizard
func (m WizardModel) View() string {
	if m.result != nil {
		if m.result.Cancelled {
			return ui.SystemStyle.Render("\n  Setup cancelled.\n\n")
		}
		return ""
	}

	switch m.step {
	case StepWelcome:
		return m.boxed(
			ui.TitleStyle.Render("Welcome to ethconnect")+"\n\n"+
				"Your keystore has no accounts yet.\n"+
				ui.SystemStyle.Render("Create or import one so the wallet can connect."),
			"Press Enter to continue • Ctrl+C to quit",
		)
	case StepSource:
		return m.progressBar() + "\n" + m.picker.View()
	case StepSecret:
		title := "Import Private Key"
		if m.source == sourceMnemonic {
			title = "Import Recovery Phrase"
		}
		return m.progressBar() + m.form(title, "", m.secret.View())
	case StepPassword:
		body := m.password.View()
		if m.confirming {
			body = "Password: " + ui.ConnectedStyle.Render(ui.SymbolCheck+" set") + "\n\n  " + m.confirm.View()
		}
		if m.saving {
			body += fmt.Sprintf("\n\n  %s Encrypting key...", m.spinner.View())
		}
		return m.progressBar() + m.form("Wallet Password", "This encrypts your key on disk. Requirements: 8+ characters", body)
	default:
		account := ui.SystemStyle.Render("Not configured")
		if m.address != "" {
			account = m.address
		}
		return m.boxed(
			ui.TitleStyle.Render("You're all set!")+"\n\nWallet: "+account+"\n\n"+
				ui.SystemStyle.Render("Back up the keystore directory and remember your password."),
			"Press Enter to start ethconnect...",
		)
	}
}

func (m WizardModel) boxed(content, help string) string {
	return "\n\n" + ui.BoxStyle.Render(content) + "\n\n" + ui.HelpStyle.Render("  "+help)
}

func (m WizardModel) form(title, note, body string) string {
	var b strings.Builder
	b.WriteString("\n" + ui.TitleStyle.Render("  "+title) + "\n\n")
	if note != "" {
		b.WriteString(ui.SystemStyle.Render("  "+note) + "\n\n")
	}
	b.WriteString("  " + body + "\n")
	if m.errMsg != "" {
		b.WriteString("\n  " + ui.ErrorStyle.Render(ui.SymbolCross+" "+m.errMsg) + "\n")
	}
	b.WriteString("\n" + ui.HelpStyle.Render("  Enter to continue • Esc back"))
	return b.String()
}

// progressBar shows how far through choose, secret and password the user is
func (m WizardModel) progressBar() string {
	done := map[WizardStep]float64{StepSource: 1, StepSecret: 2, StepPassword: 3}[m.step]
	return "\n  " + m.progress.ViewAs(done/4) + "\n"
}

// RunWizard runs the setup wizard and returns the result
func RunWizard(dataDir string) (*SetupResult, error) {
	final, err := tea.NewProgram(*NewWizard(dataDir), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(WizardModel).result, nil
}
