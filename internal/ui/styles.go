package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary   = lipgloss.Color("205") // Pink/magenta
	ColorSuccess   = lipgloss.Color("35")  // Green
	ColorWarning   = lipgloss.Color("214") // Gold/yellow
	ColorError     = lipgloss.Color("196") // Red
	ColorDim       = lipgloss.Color("241") // Gray
	ColorAccent    = lipgloss.Color("39")  // Blue
	ColorHighlight = lipgloss.Color("212") // Light pink
	ColorBorder    = lipgloss.Color("62")  // Purple
)

const (
	SymbolPrompt = "❯"
	SymbolBullet = "●"
	SymbolArrow  = "▸"
	SymbolCheck  = "✓"
	SymbolCross  = "✗"
)

var (
	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorDim).
			Width(10)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	ConnectedStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	DisconnectedStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	BalanceStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	SystemStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	PickerCursor = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	PickerItem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	PickerDim = lipgloss.NewStyle().
			Foreground(ColorDim)

	PickerActive = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	// BoxStyle frames the setup welcome and completion screens
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)
)
