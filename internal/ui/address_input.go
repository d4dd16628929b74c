package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// AddressInput is the lookup field. While text is present it is marked with a
// check or a cross according to valid.
type AddressInput struct {
	field textinput.Model
	valid func(string) bool
}

// NewAddressInput creates an unfocused address field
func NewAddressInput(valid func(string) bool) AddressInput {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "0x... address to look up"
	ti.CharLimit = 64 // room for surrounding whitespace in pastes
	ti.Width = 44

	return AddressInput{field: ti, valid: valid}
}

func (a *AddressInput) Focus() tea.Cmd { return a.field.Focus() }
func (a *AddressInput) Blur()          { a.field.Blur() }
func (a *AddressInput) Focused() bool  { return a.field.Focused() }
func (a *AddressInput) Reset()         { a.field.Reset() }

// SetWidth fits the field into w columns next to the prompt symbol and mark
func (a *AddressInput) SetWidth(w int) {
	a.field.Width = max(10, min(44, w-6))
}

// Address returns the typed text without surrounding whitespace
func (a *AddressInput) Address() string {
	return strings.TrimSpace(a.field.Value())
}

// Update forwards msg to the text field
func (a *AddressInput) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	a.field, cmd = a.field.Update(msg)
	return cmd
}

// View renders the prompt symbol, the field and the validity mark
func (a *AddressInput) View() string {
	prompt := PickerDim.Render(SymbolPrompt)
	if a.field.Focused() {
		prompt = PromptStyle.Render(SymbolPrompt)
	}

	view := prompt + " " + a.field.View()
	if addr := a.Address(); addr != "" && a.valid != nil {
		if a.valid(addr) {
			view += " " + ConnectedStyle.Render(SymbolCheck)
		} else {
			view += " " + ErrorStyle.Render(SymbolCross)
		}
	}
	return view
}
