package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var generatingLines = []string{
	"Tontut sekoittavat glögiä...",
	"Poro etsii sopivaa hattua...",
	"Joulupukki tarkistaa listaa...",
	"Revontulet maalaavat kuvaa...",
}

type generatingModel struct {
	spinner spinner.Model
	name    string
	ticks   int
}

func newGeneratingModel(name string) generatingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = goldStyle
	return generatingModel{spinner: sp, name: name}
}

func (m generatingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m generatingModel) Update(msg tea.Msg) (generatingModel, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok {
		m.ticks++
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m generatingModel) View() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("Tonttutaikaa tekeillä, "+truncStr(m.name, 40)) + "\n\n")
	line := generatingLines[(m.ticks/20)%len(generatingLines)]
	b.WriteString(m.spinner.View() + " " + dimStyle.Render(line) + "\n")
	return b.String()
}
