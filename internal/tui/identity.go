package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	identityName = iota
	identityEmail
	numIdentityFields
)

type identityModel struct {
	fields [numIdentityFields]textinput.Model
	focus  int
	errMsg string
}

func newIdentityModel() identityModel {
	m := identityModel{}
	m.fields[identityName] = newTextInput("Etu- ja sukunimi", maxNameLen)
	m.fields[identityEmail] = newTextInput("nimi@esimerkki.fi (vapaaehtoinen)", maxEmailLen)
	m.fields[identityName].Focus()
	return m
}

// prefill restores values after navigating back.
func (m *identityModel) prefill(name, email string) {
	m.fields[identityName].SetValue(name)
	m.fields[identityEmail].SetValue(email)
}

func (m identityModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *identityModel) setError(msg string) {
	m.errMsg = msg
}

func (m identityModel) Update(msg tea.Msg) (identityModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return m.setFocus((m.focus + 1) % numIdentityFields), nil
		case "shift+tab", "up":
			return m.setFocus((m.focus - 1 + numIdentityFields) % numIdentityFields), nil
		case "enter":
			if m.focus == identityName {
				return m.setFocus(identityEmail), nil
			}
			name := strings.TrimSpace(m.fields[identityName].Value())
			email := strings.TrimSpace(m.fields[identityEmail].Value())
			return m, func() tea.Msg { return identitySubmittedMsg{name: name, email: email} }
		}
		m.errMsg = ""
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m identityModel) setFocus(i int) identityModel {
	for f := range m.fields {
		if f == i {
			m.fields[f].Focus()
		} else {
			m.fields[f].Blur()
		}
	}
	m.focus = i
	return m
}

func (m identityModel) View() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("Kuka sinä olet?") + "\n")
	b.WriteString(dimStyle.Render("Nimesi tulee todistukseen. Sähköpostiin voidaan lähettää osaamismerkki.") + "\n\n")

	labels := [numIdentityFields]string{"Nimi", "Sähköposti"}
	for i, f := range m.fields {
		style := labelStyle
		if i == m.focus {
			style = focusedLabelStyle
		}
		fmt.Fprintf(&b, "%s %s\n", style.Render(labels[i]), f.View())
	}

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}
	return b.String()
}
