package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akio-byte/joulun-tonttu-me/internal/logging"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// Fallback texts used when the personalization service cannot deliver.
const (
	FallbackTitle = "Joulun Osaaja"

	fallbackDescription = "Tällä kertaa taika ei onnistunut, mutta olet silti Joulun osaaja, %s! " +
		"Sinussa asuu aito jouluhenki ja tiimityöskentelyn taika."
	mysticalPhraseTemplate = "Joulun taika kuiskaa: \"%s\" on jo matkalla luoksesi."

	// wishPhraseRunes is how much of the wish is quoted in the mystical phrase.
	wishPhraseRunes = 50
)

// PersonalizeRequest is the input to one personalization attempt.
type PersonalizeRequest struct {
	Photo domain.Image
	Wish  string
	Name  string
}

type personalizePayload struct {
	PhotoBase64 string `json:"photoBase64"`
	Wish        string `json:"wish"`
	Name        string `json:"name"`
	APIKey      string `json:"apiKey,omitempty"`
}

type personalizeResponse struct {
	ImageBase64    string  `json:"elfImageBase64"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	MysticalPhrase *string `json:"mysticalPhrase"`
	Score          *int    `json:"score"`
	Error          string  `json:"error"`
	Fallback       bool    `json:"fallback"`
}

// Personalizer calls the remote personalization service. It makes exactly one
// bounded attempt and never reports failure: every outcome is a usable result.
type Personalizer struct {
	api     *Client
	url     string
	apiKey  string
	timeout time.Duration
	log     *logging.Logger
}

// NewPersonalizer creates a Personalizer posting to url. An empty url means the
// service is not configured and every call resolves to the fallback result.
// The call is bounded by timeout alone; the shared client's default request
// timeout does not apply.
func NewPersonalizer(url, apiKey string, timeout time.Duration, opts ...Option) *Personalizer {
	opts = append([]Option{WithHTTPClient(&http.Client{})}, opts...)
	api := New(url, "", opts...)
	return &Personalizer{
		api:     api,
		url:     url,
		apiKey:  apiKey,
		timeout: timeout,
		log:     api.log.With("component", "personalizer"),
	}
}

// Personalize returns the service's result, or a locally synthesized fallback
// when the call fails, times out, or returns incomplete data.
func (p *Personalizer) Personalize(ctx context.Context, req PersonalizeRequest) domain.PersonalizationResult {
	if p == nil || strings.TrimSpace(p.url) == "" {
		return Fallback(req)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	payload := personalizePayload{
		PhotoBase64: req.Photo.DataURL(),
		Wish:        req.Wish,
		Name:        req.Name,
		APIKey:      p.apiKey,
	}

	var resp personalizeResponse
	if err := p.api.Post(ctx, "", payload, &resp); err != nil {
		p.log.Warn("personalization failed, using fallback", "reason", fallbackReason(err), "error", err)
		return Fallback(req)
	}

	result, err := resultFromResponse(req, resp)
	if err != nil {
		p.log.Warn("personalization response unusable, using fallback", "error", err)
		return Fallback(req)
	}
	p.log.Info("personalization succeeded", "title", result.Title, "score", result.Score)
	return result
}

// fallbackReason classifies a failed call for the logs.
func fallbackReason(err error) string {
	switch {
	case IsStatus(err, http.StatusUnauthorized), IsStatus(err, http.StatusForbidden):
		return "unauthorized"
	case IsStatus(err, http.StatusTooManyRequests):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return "status"
	}
	return "unreachable"
}

func resultFromResponse(req PersonalizeRequest, resp personalizeResponse) (domain.PersonalizationResult, error) {
	if resp.Error != "" || resp.Fallback {
		return domain.PersonalizationResult{}, fmt.Errorf("service reported error: %q", resp.Error)
	}
	title := strings.TrimSpace(resp.Title)
	description := strings.TrimSpace(resp.Description)
	if title == "" || description == "" {
		return domain.PersonalizationResult{}, fmt.Errorf("response missing title or description")
	}
	img, err := domain.ParseDataURL(resp.ImageBase64)
	if err != nil {
		return domain.PersonalizationResult{}, fmt.Errorf("response image: %w", err)
	}

	phrase := ""
	if resp.MysticalPhrase != nil {
		phrase = strings.TrimSpace(*resp.MysticalPhrase)
	}
	if phrase == "" {
		phrase = MysticalPhrase(req.Wish)
	}

	score := domain.DefaultScore
	if resp.Score != nil {
		score = domain.ClampScore(*resp.Score)
	}

	return domain.PersonalizationResult{
		Image:          img,
		Title:          title,
		Description:    description,
		MysticalPhrase: phrase,
		Score:          score,
	}, nil
}

// Fallback synthesizes the deterministic result used when the service fails.
// The image is the captured photo itself.
func Fallback(req PersonalizeRequest) domain.PersonalizationResult {
	return domain.PersonalizationResult{
		Image:          req.Photo,
		Title:          FallbackTitle,
		Description:    fmt.Sprintf(fallbackDescription, strings.TrimSpace(req.Name)),
		MysticalPhrase: MysticalPhrase(req.Wish),
		Score:          domain.DefaultScore,
		IsFallback:     true,
	}
}

// MysticalPhrase quotes the start of the wish in a fixed sentence. An empty
// wish yields an empty phrase.
func MysticalPhrase(wish string) string {
	wish = strings.Join(strings.Fields(wish), " ")
	if wish == "" {
		return ""
	}
	if utf8.RuneCountInString(wish) > wishPhraseRunes {
		wish = strings.TrimSpace(string([]rune(wish)[:wishPhraseRunes])) + "…"
	}
	return fmt.Sprintf(mysticalPhraseTemplate, wish)
}
