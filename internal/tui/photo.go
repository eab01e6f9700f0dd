package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/google/uuid"

	"github.com/akio-byte/joulun-tonttu-me/internal/capture"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// photoModel drives the capture device. The device is held only while this
// step is on screen: every way out of the step releases it.
type photoModel struct {
	session *capture.Session
	owner   uuid.UUID
	photo   domain.Image
	busy    bool
	status  string
	errMsg  string
}

func newPhotoModel(s *capture.Session) photoModel {
	return photoModel{session: s}
}

// enter starts the step for the wizard session owner.
func (m *photoModel) enter(owner uuid.UUID) tea.Cmd {
	m.owner = owner
	return m.activate()
}

// activate acquires the device.
func (m *photoModel) activate() tea.Cmd {
	m.errMsg = ""
	m.status = "Kamera käynnistyy..."
	m.busy = true
	s, owner := m.session, m.owner
	return func() tea.Msg {
		if s == nil {
			return captureAcquiredMsg{owner: owner, err: capture.ErrUnavailable}
		}
		return captureAcquiredMsg{owner: owner, err: s.Acquire(context.Background())}
	}
}

// release frees the device. Safe to call when nothing is held.
func (m *photoModel) release() {
	if m.session == nil {
		return
	}
	_ = m.session.Release() //nolint:errcheck // release is best-effort on exit
}

func (m *photoModel) setError(msg string) {
	m.errMsg = msg
}

func (m photoModel) capture() (photoModel, tea.Cmd) {
	m.busy = true
	m.errMsg = ""
	m.status = "Hymyile!"
	s, owner := m.session, m.owner
	return m, func() tea.Msg {
		if s == nil {
			return photoCapturedMsg{owner: owner, err: capture.ErrUnavailable}
		}
		img, err := s.Capture(context.Background())
		return photoCapturedMsg{owner: owner, photo: img, err: err}
	}
}

func (m photoModel) Update(msg tea.Msg) (photoModel, tea.Cmd) {
	switch msg := msg.(type) {
	case captureAcquiredMsg:
		m.busy = false
		if msg.err != nil {
			m.status = ""
			m.errMsg = cameraError(msg.err)
			return m, nil
		}
		m.status = "Kamera valmiina."
		return m, nil

	case photoCapturedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = ""
			m.errMsg = cameraError(msg.err)
			return m, nil
		}
		m.photo = msg.photo
		m.status = "Kuva otettu: " + describeImage(msg.photo)
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case " ", "k":
			if m.photo.IsZero() {
				return m.capture()
			}
		case "r":
			if !m.photo.IsZero() {
				m.photo = domain.Image{}
				m.release()
				return m, m.activate()
			}
		case "enter":
			if m.photo.IsZero() {
				return m.capture()
			}
			photo := m.photo
			m.release()
			return m, func() tea.Msg { return photoConfirmedMsg{photo: photo} }
		case "esc":
			m.release()
			return m, func() tea.Msg { return backMsg{} }
		}
	}
	return m, nil
}

func cameraError(err error) string {
	switch {
	case errors.Is(err, capture.ErrUnavailable):
		return "Kameraa ei löydy. Pyydä apua henkilökunnalta."
	case errors.Is(err, capture.ErrNoFrame):
		return "Kuvaa ei saatu. Yritä uudelleen."
	}
	return "Kamera ei vastaa: " + err.Error()
}

func (m photoModel) View() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("Otetaan tonttukuva") + "\n")
	b.WriteString(dimStyle.Render("Katso kameraan ja paina välilyöntiä.") + "\n\n")

	if m.photo.IsZero() {
		b.WriteString(cardStyle.Render(metaStyle.Render("[ ei kuvaa vielä ]")) + "\n")
	} else {
		b.WriteString(cardStyle.Render(successStyle.Render("📸 "+describeImage(m.photo))) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + dimStyle.Render(m.status) + "\n")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}
	return b.String()
}

func (m photoModel) helpKeys() string {
	if m.photo.IsZero() {
		return helpBar("space", "ota kuva", "esc", "takaisin")
	}
	return helpBar("enter", "jatka", "r", "ota uusi", "esc", "takaisin")
}
