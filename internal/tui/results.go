package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/akio-byte/joulun-tonttu-me/internal/certificate"
	"github.com/akio-byte/joulun-tonttu-me/pkg/badge"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

type resultsAction string

const (
	actionNone   resultsAction = ""
	actionRender resultsAction = "render"
	actionOpen   resultsAction = "open"
	actionCopy   resultsAction = "copy"
	actionBadge  resultsAction = "badge"
)

// resultsModel shows the personalization and runs the follow-up actions. At
// most one action is in flight; keys are ignored until it settles.
type resultsModel struct {
	deps      *Deps
	record    domain.WizardRecord
	certPath  string
	busy      resultsAction
	status    string
	errMsg    string
	badgeSent bool
	width     int
}

func newResultsModel(rec domain.WizardRecord, deps *Deps, width int) resultsModel {
	return resultsModel{deps: deps, record: rec, width: width}
}

// badgeAvailable reports whether the badge action is offered.
func (m resultsModel) badgeAvailable() bool {
	return m.deps.Issuer != nil && m.record.ParticipantEmail != "" && !m.badgeSent
}

func (m resultsModel) Update(msg tea.Msg) (resultsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case certificateRenderedMsg:
		m.busy = actionNone
		if msg.err != nil {
			m.errMsg = "Todistuksen tallennus epäonnistui: " + msg.err.Error()
			return m, nil
		}
		m.certPath = msg.path
		m.status = "Todistus tallennettu: " + msg.path
		return m, nil

	case certificateOpenedMsg:
		m.busy = actionNone
		if msg.err != nil {
			m.errMsg = "Todistusta ei voitu avata: " + msg.err.Error()
			return m, nil
		}
		m.status = "Todistus avattu."
		return m, nil

	case pathCopiedMsg:
		m.busy = actionNone
		if msg.err != nil {
			m.errMsg = "Leikepöydälle kopiointi epäonnistui."
			return m, nil
		}
		m.status = "Polku kopioitu leikepöydälle."
		return m, nil

	case badgeIssuedMsg:
		m.busy = actionNone
		if !msg.result.OK() {
			m.errMsg = badgeError(msg.result)
			return m, nil
		}
		m.badgeSent = true
		m.status = "Osaamismerkki lähetetty osoitteeseen " + m.record.ParticipantEmail + "."
		return m, nil

	case tea.KeyMsg:
		if m.busy != actionNone {
			return m, nil
		}
		m.status = ""
		m.errMsg = ""
		switch msg.String() {
		case "p":
			return m.start(actionRender, m.renderCmd())
		case "o":
			if m.certPath == "" {
				m.errMsg = "Tallenna todistus ensin (p)."
				return m, nil
			}
			return m.start(actionOpen, m.openCmd())
		case "c":
			if m.certPath == "" {
				m.errMsg = "Tallenna todistus ensin (p)."
				return m, nil
			}
			return m.start(actionCopy, m.copyCmd())
		case "b":
			if !m.badgeAvailable() {
				return m, nil
			}
			return m.start(actionBadge, m.badgeCmd())
		case "r":
			return m, func() tea.Msg { return restartMsg{} }
		}
	}
	return m, nil
}

func (m resultsModel) start(a resultsAction, cmd tea.Cmd) (resultsModel, tea.Cmd) {
	m.busy = a
	m.status = busyText[a]
	return m, cmd
}

var busyText = map[resultsAction]string{
	actionRender: "Piirretään todistusta...",
	actionOpen:   "Avataan todistusta...",
	actionCopy:   "Kopioidaan...",
	actionBadge:  "Lähetetään osaamismerkkiä...",
}

func (m resultsModel) renderCmd() tea.Cmd {
	rec := m.record
	d := m.deps
	return func() tea.Msg {
		if d.Renderer == nil {
			return certificateRenderedMsg{err: certificate.ErrRenderFailed}
		}
		data, err := certificate.DataFromRecord(rec, d.Now())
		if err != nil {
			return certificateRenderedMsg{err: err}
		}
		path, err := d.Renderer.Save(d.OutputDir, data)
		return certificateRenderedMsg{path: path, err: err}
	}
}

func (m resultsModel) openCmd() tea.Cmd {
	path, open := m.certPath, m.deps.Open
	return func() tea.Msg {
		return certificateOpenedMsg{err: open(path)}
	}
}

func (m resultsModel) copyCmd() tea.Cmd {
	path, cp := m.certPath, m.deps.Copy
	return func() tea.Msg {
		return pathCopiedMsg{err: cp(path)}
	}
}

func (m resultsModel) badgeCmd() tea.Cmd {
	issuer := m.deps.Issuer
	rcpt := badge.Recipient{Email: m.record.ParticipantEmail, Name: m.record.ParticipantName}
	return func() tea.Msg {
		return badgeIssuedMsg{result: issuer.Issue(context.Background(), rcpt)}
	}
}

func badgeError(r badge.Result) string {
	err := r.Err()
	switch {
	case errors.Is(err, badge.ErrAuthFailed):
		return "Merkkipalveluun kirjautuminen epäonnistui."
	case errors.Is(err, badge.ErrNoTemplate):
		return "Osaamismerkin pohjaa ei löytynyt."
	case errors.Is(err, badge.ErrInvalidRecipient):
		return "Merkkiä ei voi lähettää ilman nimeä ja sähköpostia."
	case errors.Is(err, badge.ErrNotConfigured):
		return "Osaamismerkit eivät ole käytössä."
	}
	return "Osaamismerkin lähetys epäonnistui. Voit yrittää uudelleen."
}

func (m resultsModel) View() string {
	res := m.record.Result
	if res == nil {
		return errorStyle.Render("Tulosta ei ole.")
	}

	width := min(max(m.width-6, 30), 76)
	wrap := lipgloss.NewStyle().Width(width)

	var card strings.Builder
	card.WriteString(goldStyle.Bold(true).Render(res.Title))
	if res.IsFallback {
		card.WriteString(" " + metaStyle.Render("(varatulos)"))
	}
	card.WriteString("\n\n")
	card.WriteString(wrap.Render(normalStyle.Render(res.Description)) + "\n")
	if res.MysticalPhrase != "" {
		card.WriteString("\n" + wrap.Render(phraseStyle.Render(res.MysticalPhrase)) + "\n")
	}
	card.WriteString("\n" + redStyle.Render(fmt.Sprintf("Tonttupisteet: %d/%d", res.Score, domain.MaxScore)) +
		" " + goldStyle.Render(strings.Repeat("★", res.Score)) + metaStyle.Render(strings.Repeat("☆", domain.MaxScore-res.Score)))

	var b strings.Builder
	b.WriteString(selectedStyle.Render("Onneksi olkoon, "+truncStr(m.record.ParticipantName, 40)+"!") + "\n\n")
	b.WriteString(cardStyle.Render(card.String()) + "\n")
	b.WriteString(dimStyle.Render("Kuva: "+describeImage(res.Image)) + "\n")

	if m.status != "" {
		style := dimStyle
		if m.busy == actionNone {
			style = successStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}
	return b.String()
}

func (m resultsModel) helpKeys() string {
	pairs := []string{"p", "tallenna todistus"}
	if m.certPath != "" {
		pairs = append(pairs, "o", "avaa", "c", "kopioi polku")
	}
	if m.badgeAvailable() {
		pairs = append(pairs, "b", "lähetä merkki")
	}
	pairs = append(pairs, "r", "uusi osallistuja")
	return helpBar(pairs...)
}
