package domain

// Score bounds for the participation-based scoring scheme.
const (
	MinScore     = 0
	MaxScore     = 10
	DefaultScore = 8
)

// PersonalizationResult is the outcome of the generation step. It is produced
// exactly once per session, either from the remote service or locally.
type PersonalizationResult struct {
	Image          Image  `json:"-"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	MysticalPhrase string `json:"mystical_phrase,omitempty"`
	Score          int    `json:"score"`
	IsFallback     bool   `json:"is_fallback"`
}

// WizardRecord accumulates one participant's input across the wizard steps.
type WizardRecord struct {
	ParticipantName  string
	ParticipantEmail string
	FreeformWish     string
	CapturedPhoto    Image
	Result           *PersonalizationResult
}

// HasPhoto reports whether a photo has been captured.
func (r WizardRecord) HasPhoto() bool {
	return !r.CapturedPhoto.IsZero()
}

// ClampScore forces s into [MinScore, MaxScore].
func ClampScore(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
