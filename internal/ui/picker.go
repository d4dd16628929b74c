package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// PickerOption is one entry of a Picker
type PickerOption struct {
	Value   string
	Title   string
	Hint    string
	Current bool
}

func (o PickerOption) label() string {
	if o.Title != "" {
		return o.Title
	}
	return o.Value
}

// Picker is a single choice list. Up/down wrap around, 1-9 pick directly,
// enter confirms and esc cancels.
type Picker struct {
	title   string
	options []PickerOption
	cursor  int
	chosen  int
	done    bool
	width   int
}

// NewPicker creates a picker with the cursor on the current option
func NewPicker(title string, options []PickerOption) Picker {
	cursor := 0
	for i, o := range options {
		if o.Current {
			cursor = i
			break
		}
	}
	return Picker{
		title:   title,
		options: options,
		cursor:  cursor,
		chosen:  -1,
		width:   80,
	}
}

// SetWidth bounds rendered lines to w columns
func (p *Picker) SetWidth(w int) {
	if w > 0 {
		p.width = w
	}
}

// Done reports whether an option was picked or the picker was cancelled
func (p *Picker) Done() bool {
	return p.done
}

// Choice returns the picked value. ok is false while open or after cancel.
func (p *Picker) Choice() (value string, ok bool) {
	if !p.done || p.chosen < 0 {
		return "", false
	}
	return p.options[p.chosen].Value, true
}

// HandleKey applies one key press
func (p *Picker) HandleKey(msg tea.KeyMsg) {
	if p.done {
		return
	}

	key := msg.String()
	if key == "esc" || key == "q" {
		p.done = true
		return
	}

	n := len(p.options)
	if n == 0 {
		return
	}

	switch key {
	case "up", "k", "shift+tab":
		p.cursor = (p.cursor - 1 + n) % n
	case "down", "j", "tab":
		p.cursor = (p.cursor + 1) % n
	case "home", "g":
		p.cursor = 0
	case "end", "G":
		p.cursor = n - 1
	case "enter":
		p.chosen, p.done = p.cursor, true
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < n {
				p.cursor = i
				p.chosen, p.done = i, true
			}
		}
	}
}

// View renders the open picker, or nothing once done
func (p *Picker) View() string {
	if p.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(HelpStyle.Render(p.title + " (↑/↓ move, 1-9 or enter pick, esc cancel)"))
	b.WriteString("\n\n")

	for i, o := range p.options {
		line := fmt.Sprintf("%d. %s", i+1, o.label())
		if o.Current {
			line += " (current)"
		}
		if o.Hint != "" {
			line += "  " + PickerDim.Render(o.Hint)
		}
		line = ansi.Truncate(line, p.width-2, "…")

		if i == p.cursor {
			b.WriteString(PickerCursor.Render(SymbolArrow) + " " + PickerActive.Render(line))
		} else {
			b.WriteString("  " + PickerItem.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}
