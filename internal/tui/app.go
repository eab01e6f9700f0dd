package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/akio-byte/joulun-tonttu-me/internal/browser"
	"github.com/akio-byte/joulun-tonttu-me/internal/capture"
	"github.com/akio-byte/joulun-tonttu-me/internal/certificate"
	"github.com/akio-byte/joulun-tonttu-me/internal/logging"
	"github.com/akio-byte/joulun-tonttu-me/internal/wizard"
	"github.com/akio-byte/joulun-tonttu-me/pkg/badge"
	"github.com/akio-byte/joulun-tonttu-me/pkg/client"
)

// BadgeIssuer sends an Open Badge to a participant.
type BadgeIssuer interface {
	Issue(ctx context.Context, r badge.Recipient) badge.Result
}

// Deps are the collaborators the kiosk drives. Issuer is nil when badge
// issuing is not ready, which hides the badge action.
type Deps struct {
	Generator wizard.Generator
	Capture   *capture.Session
	Renderer  *certificate.Renderer
	Issuer    BadgeIssuer
	OutputDir string
	Log       *logging.Logger

	Open func(path string) error
	Copy func(text string) error
	Now  func() time.Time
}

// App is the root Bubbletea model. It owns the wizard machine and shows the
// step view matching the machine's state.
type App struct {
	machine *wizard.Machine
	deps    *Deps
	log     *logging.Logger

	identity   identityModel
	wish       wishModel
	photo      photoModel
	generating generatingModel
	results    resultsModel

	notice string
	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the kiosk TUI around m.
func NewApp(m *wizard.Machine, d Deps) App {
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	if d.Open == nil {
		d.Open = browser.Open
	}
	if d.Copy == nil {
		d.Copy = clipboard.WriteAll
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if m == nil {
		m = wizard.New(d.Log)
	}
	deps := &d
	return App{
		machine:  m,
		deps:     deps,
		log:      d.Log.With("component", "tui"),
		identity: newIdentityModel(),
		wish:     newWishModel(),
		photo:    newPhotoModel(d.Capture),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.identity.Init(), shimmerTickCmd())
}

// Release frees the capture device. Call it after the program exits.
func (a App) Release() {
	a.photo.release()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.wish, _ = a.wish.Update(msg)
		a.results, _ = a.results.Update(msg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case identitySubmittedMsg:
		if err := a.machine.SubmitIdentity(msg.name, msg.email); err != nil {
			a.identity.setError(stepError(err))
			return a, nil
		}
		rec := a.machine.Record()
		a.wish.prefill(rec.FreeformWish)
		return a, a.wish.Init()

	case wishSubmittedMsg:
		if err := a.machine.SubmitWish(msg.wish); err != nil {
			a.notice = stepError(err)
			return a, nil
		}
		return a, a.photo.enter(a.machine.SessionID())

	case backMsg:
		if err := a.machine.Back(); err != nil {
			a.notice = stepError(err)
			return a, nil
		}
		rec := a.machine.Record()
		switch a.machine.State() {
		case wizard.StateCollectIdentity:
			a.identity.prefill(rec.ParticipantName, rec.ParticipantEmail)
			return a, a.identity.Init()
		case wizard.StateCollectWish:
			a.wish.prefill(rec.FreeformWish)
			return a, a.wish.Init()
		}
		return a, nil

	case photoConfirmedMsg:
		req, err := a.machine.SubmitPhoto(msg.photo)
		if err != nil {
			a.photo.setError(stepError(err))
			return a, a.photo.activate()
		}
		a.generating = newGeneratingModel(req.Name)
		return a, tea.Batch(a.generating.Init(), generateCmd(a.deps.Generator, req))

	case generatedMsg:
		if err := a.machine.Settle(msg.result); err != nil {
			a.log.Error("settle failed", "error", err)
			return a, nil
		}
		a.results = newResultsModel(a.machine.Record(), a.deps, a.width)
		return a, nil

	case captureAcquiredMsg:
		if a.dropStaleCapture(msg.owner) {
			return a, nil
		}

	case photoCapturedMsg:
		if a.dropStaleCapture(msg.owner) {
			return a, nil
		}

	case restartMsg:
		return a.restart()

	case tea.KeyMsg:
		a.notice = ""
		switch msg.String() {
		case "ctrl+c":
			a.photo.release()
			return a, tea.Quit
		case "ctrl+r":
			return a.restart()
		}
	}

	var cmd tea.Cmd
	switch a.machine.State() {
	case wizard.StateCollectIdentity:
		a.identity, cmd = a.identity.Update(msg)
	case wizard.StateCollectWish:
		a.wish, cmd = a.wish.Update(msg)
	case wizard.StateCapturePhoto:
		a.photo, cmd = a.photo.Update(msg)
	case wizard.StateGenerate:
		a.generating, cmd = a.generating.Update(msg)
	case wizard.StateResults:
		a.results, cmd = a.results.Update(msg)
	}
	return a, cmd
}

func (a App) restart() (tea.Model, tea.Cmd) {
	if a.machine.State() == wizard.StateResults && a.results.busy != actionNone {
		a.notice = "Odota hetki, edellinen toiminto on vielä kesken."
		return a, nil
	}
	if err := a.machine.Restart(); err != nil {
		a.notice = "Odota hetki, tonttutaika on vielä kesken."
		return a, nil
	}
	a.photo.release()
	a.identity = newIdentityModel()
	a.wish = newWishModel()
	a.wish, _ = a.wish.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	a.photo = newPhotoModel(a.deps.Capture)
	a.results = resultsModel{}
	return a, a.identity.Init()
}

// dropStaleCapture reports whether a device result belongs to a photo step
// that has been left since it was requested. A device it opened is released.
func (a App) dropStaleCapture(owner uuid.UUID) bool {
	state := a.machine.State()
	if state == wizard.StateCapturePhoto && owner == a.machine.SessionID() {
		return false
	}
	if state != wizard.StateCapturePhoto {
		a.photo.release()
	}
	a.log.Debug("late capture result dropped", "state", state)
	return true
}

// generateCmd runs the generator off the UI loop. A missing generator
// resolves to the fallback result.
func generateCmd(gen wizard.Generator, req client.PersonalizeRequest) tea.Cmd {
	return func() tea.Msg {
		if gen == nil {
			return generatedMsg{result: client.Fallback(req)}
		}
		return generatedMsg{result: gen.Personalize(context.Background(), req)}
	}
}

func stepError(err error) string {
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	if errors.Is(err, wizard.ErrInvalidTransition) {
		return "Tämä ei onnistu juuri nyt."
	}
	return err.Error()
}

func (a App) View() string {
	state := a.machine.State()

	header := centered(renderShimmerLogo(a.frame), a.width) + "\n" +
		centered(progressView(state.Number(), wizard.NumStates), a.width)

	var body, help string
	switch state {
	case wizard.StateCollectIdentity:
		body = a.identity.View()
		help = helpBar("tab", "seuraava kenttä", "enter", "jatka", "ctrl+c", "lopeta")
	case wizard.StateCollectWish:
		body = a.wish.View()
		help = helpBar("enter", "jatka", "esc", "takaisin", "ctrl+r", "alusta")
	case wizard.StateCapturePhoto:
		body = a.photo.View()
		help = a.photo.helpKeys()
	case wizard.StateGenerate:
		body = a.generating.View()
		help = helpBar("ctrl+c", "lopeta")
	case wizard.StateResults:
		body = a.results.View()
		help = a.results.helpKeys()
	}

	if a.notice != "" {
		body += "\n" + goldStyle.Render(a.notice)
	}

	// Chrome: header(2) + spacer(1) + help(1)
	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	return header + "\n\n" + body + "\n" + help
}
