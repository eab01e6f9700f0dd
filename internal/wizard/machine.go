// Package wizard owns the kiosk's step sequence and the participant record.
//
// The machine is not safe for concurrent use; a single UI loop drives it. The
// only asynchronous boundary is generation: SubmitPhoto enters the Generate
// state and hands back the request, and Settle completes it. Generate wraps
// both for synchronous callers.
package wizard

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/akio-byte/joulun-tonttu-me/internal/logging"
	"github.com/akio-byte/joulun-tonttu-me/pkg/client"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// Generator produces a personalization result. Implementations must always
// return a usable value.
type Generator interface {
	Personalize(ctx context.Context, req client.PersonalizeRequest) domain.PersonalizationResult
}

// Machine is the wizard state machine for one kiosk.
type Machine struct {
	state     State
	record    domain.WizardRecord
	sessionID uuid.UUID
	log       *logging.Logger
	base      *logging.Logger
}

// New starts a machine at the identity step with an empty record.
func New(log *logging.Logger) *Machine {
	if log == nil {
		log = logging.Nop()
	}
	m := &Machine{base: log.With("component", "wizard")}
	m.reset()
	return m
}

// State returns the current step.
func (m *Machine) State() State {
	return m.state
}

// SessionID identifies the current session; it changes on every restart.
func (m *Machine) SessionID() uuid.UUID {
	return m.sessionID
}

// Record returns a copy of the participant record.
func (m *Machine) Record() domain.WizardRecord {
	r := m.record
	if r.Result != nil {
		res := *r.Result
		r.Result = &res
	}
	return r
}

// SubmitIdentity validates the name and optional email and advances to the
// wish step. Invalid input returns a *ValidationError and leaves the machine
// unchanged.
func (m *Machine) SubmitIdentity(name, email string) error {
	to, ok := next(m.state, EventSubmit)
	if !ok || m.state != StateCollectIdentity {
		return invalidTransition(m.state, EventSubmit)
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if !domain.ValidName(name) {
		return &ValidationError{Field: FieldName, Message: "nimessä pitää olla vähintään 2 merkkiä"}
	}
	if !domain.ValidEmail(email) {
		return &ValidationError{Field: FieldEmail, Message: "tarkista sähköpostiosoite"}
	}

	m.record.ParticipantName = name
	m.record.ParticipantEmail = email
	m.move(EventSubmit, to)
	return nil
}

// SubmitWish stores the optional wish, capped at domain.MaxWishLen runes, and
// advances to the photo step.
func (m *Machine) SubmitWish(wish string) error {
	to, ok := next(m.state, EventSubmit)
	if !ok || m.state != StateCollectWish {
		return invalidTransition(m.state, EventSubmit)
	}
	m.record.FreeformWish = domain.NormalizeWish(wish)
	m.move(EventSubmit, to)
	return nil
}

// SubmitPhoto stores the captured photo, enters the Generate state and returns
// the request the caller must hand to a Generator before calling Settle.
func (m *Machine) SubmitPhoto(photo domain.Image) (client.PersonalizeRequest, error) {
	to, ok := next(m.state, EventSubmit)
	if !ok || m.state != StateCapturePhoto {
		return client.PersonalizeRequest{}, invalidTransition(m.state, EventSubmit)
	}
	if !photo.Valid() {
		return client.PersonalizeRequest{}, &ValidationError{Field: FieldPhoto, Message: "ota ensin kuva"}
	}

	m.record.CapturedPhoto = photo
	m.move(EventSubmit, to)
	return m.request(), nil
}

// Settle records the generation outcome and moves to Results. Incomplete
// results are repaired with the fallback so Results always has a usable value.
func (m *Machine) Settle(result domain.PersonalizationResult) error {
	to, ok := next(m.state, EventSettle)
	if !ok {
		return invalidTransition(m.state, EventSettle)
	}

	req := m.request()
	if result.Image.IsZero() || strings.TrimSpace(result.Title) == "" || strings.TrimSpace(result.Description) == "" {
		m.log.Warn("generator returned incomplete result, substituting fallback")
		result = client.Fallback(req)
	}
	result.Score = domain.ClampScore(result.Score)

	m.record.Result = &result
	m.log.Info("generation settled", "fallback", result.IsFallback, "score", result.Score)
	m.move(EventSettle, to)
	return nil
}

// Generate runs SubmitPhoto, the generator and Settle in one call.
func (m *Machine) Generate(ctx context.Context, gen Generator, photo domain.Image) error {
	req, err := m.SubmitPhoto(photo)
	if err != nil {
		return err
	}
	var result domain.PersonalizationResult
	if gen != nil {
		result = gen.Personalize(ctx, req)
	}
	return m.Settle(result)
}

// Back returns to the previous input step without clearing entered fields.
func (m *Machine) Back() error {
	to, ok := next(m.state, EventBack)
	if !ok {
		return invalidTransition(m.state, EventBack)
	}
	m.move(EventBack, to)
	return nil
}

// Restart discards the record and starts a new session at the identity step.
// It is refused while generation is in flight.
func (m *Machine) Restart() error {
	if _, ok := next(m.state, EventRestart); !ok {
		return invalidTransition(m.state, EventRestart)
	}
	m.log.Info("session restarted", "from", m.state.String())
	m.reset()
	return nil
}

func (m *Machine) request() client.PersonalizeRequest {
	return client.PersonalizeRequest{
		Photo: m.record.CapturedPhoto,
		Wish:  m.record.FreeformWish,
		Name:  m.record.ParticipantName,
	}
}

func (m *Machine) move(e Event, to State) {
	m.log.Debug("wizard transition", "from", m.state.String(), "event", e.String(), "to", to.String())
	m.state = to
}

func (m *Machine) reset() {
	m.state = StateCollectIdentity
	m.record = domain.WizardRecord{}
	m.sessionID = uuid.New()
	m.log = m.base.With("session_id", m.sessionID.String())
}
