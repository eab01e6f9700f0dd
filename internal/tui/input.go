package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// maxNameLen caps the name field; certificate layout wraps beyond that anyway.
const maxNameLen = 60

// maxEmailLen caps the email field.
const maxEmailLen = 254

// newTextInput builds a single-line field in the kiosk style.
func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = "> "
	ti.PromptStyle = inputPromptStyle
	ti.PlaceholderStyle = inputPlaceholderStyle
	ti.TextStyle = normalStyle
	ti.Cursor.Style = goldStyle
	return ti
}

// newWishArea builds the wish field. Enter submits instead of inserting a
// newline, and input stops at domain.MaxWishLen runes.
func newWishArea() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Esim. matka Lappiin, lisää lunta, rauhallinen joulu..."
	ta.CharLimit = domain.MaxWishLen
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.SetWidth(60)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = inputPlaceholderStyle
	ta.BlurredStyle.Placeholder = inputPlaceholderStyle
	return ta
}
