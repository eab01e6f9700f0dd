package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

type wishModel struct {
	area textarea.Model
}

func newWishModel() wishModel {
	m := wishModel{area: newWishArea()}
	m.area.Focus()
	return m
}

func (m *wishModel) prefill(wish string) {
	m.area.SetValue(wish)
}

func (m wishModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m wishModel) Update(msg tea.Msg) (wishModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.area.SetWidth(min(max(msg.Width-4, 20), 80))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			wish := strings.TrimSpace(m.area.Value())
			return m, func() tea.Msg { return wishSubmittedMsg{wish: wish} }
		case "esc":
			return m, func() tea.Msg { return backMsg{} }
		}
	}

	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	return m, cmd
}

func (m wishModel) View() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("Mikä on joulutoiveesi?") + "\n")
	b.WriteString(dimStyle.Render("Toive on vapaaehtoinen. Tonttu kuiskaa sen todistukseesi.") + "\n\n")
	b.WriteString(m.area.View() + "\n")

	count := utf8.RuneCountInString(m.area.Value())
	counter := fmt.Sprintf("%d/%d", count, domain.MaxWishLen)
	if count >= domain.MaxWishLen {
		b.WriteString(goldStyle.Render(counter))
	} else {
		b.WriteString(metaStyle.Render(counter))
	}
	return b.String()
}
