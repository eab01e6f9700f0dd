package tui

import (
	"github.com/google/uuid"

	"github.com/akio-byte/joulun-tonttu-me/pkg/badge"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// Step views report intents to the App with these messages; only the App
// touches the wizard machine.
type (
	identitySubmittedMsg struct{ name, email string }
	wishSubmittedMsg     struct{ wish string }
	photoConfirmedMsg    struct{ photo domain.Image }
	backMsg              struct{}
	restartMsg           struct{}
)

// Results of asynchronous work. Device results carry the id of the wizard
// session whose photo step asked for them.
type (
	captureAcquiredMsg struct {
		owner uuid.UUID
		err   error
	}

	photoCapturedMsg struct {
		owner uuid.UUID
		photo domain.Image
		err   error
	}

	generatedMsg struct{ result domain.PersonalizationResult }

	certificateRenderedMsg struct {
		path string
		err  error
	}

	certificateOpenedMsg struct{ err error }
	pathCopiedMsg        struct{ err error }
	badgeIssuedMsg       struct{ result badge.Result }
)
