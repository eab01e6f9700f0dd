// Package badge issues an Open Badge to a kiosk participant through a
// three-stage remote handshake: authenticate, resolve the badge template, and
// issue. Each stage runs once; the first failing stage ends the attempt.
package badge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/akio-byte/joulun-tonttu-me/internal/logging"
	"github.com/akio-byte/joulun-tonttu-me/pkg/client"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// Failure classifies why an issuance attempt did not succeed.
type Failure int

const (
	FailureNone Failure = iota
	FailureNotConfigured
	FailureInvalidRecipient
	FailureAuth
	FailureNoTemplate
	FailureIssue
)

var (
	ErrNotConfigured    = errors.New("badge service not configured")
	ErrInvalidRecipient = errors.New("badge recipient needs a name and a valid email")
	ErrAuthFailed       = errors.New("badge service authentication failed")
	ErrNoTemplate       = errors.New("no badge template available")
	ErrIssueFailed      = errors.New("badge issuance failed")
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureNotConfigured:
		return "not_configured"
	case FailureInvalidRecipient:
		return "invalid_recipient"
	case FailureAuth:
		return "auth_failed"
	case FailureNoTemplate:
		return "no_template"
	case FailureIssue:
		return "issue_failed"
	}
	return fmt.Sprintf("failure(%d)", int(f))
}

func (f Failure) sentinel() error {
	switch f {
	case FailureNotConfigured:
		return ErrNotConfigured
	case FailureInvalidRecipient:
		return ErrInvalidRecipient
	case FailureAuth:
		return ErrAuthFailed
	case FailureNoTemplate:
		return ErrNoTemplate
	case FailureIssue:
		return ErrIssueFailed
	}
	return nil
}

// Result is the outcome of one issuance attempt.
type Result struct {
	Failure    Failure
	TemplateID string
	Cause      error
}

// OK reports whether the badge was issued.
func (r Result) OK() bool {
	return r.Failure == FailureNone
}

// Err returns nil on success, otherwise an error matching the failure's
// sentinel with errors.Is.
func (r Result) Err() error {
	s := r.Failure.sentinel()
	if s == nil {
		return nil
	}
	if r.Cause == nil {
		return s
	}
	return fmt.Errorf("%w: %v", s, r.Cause)
}

// Recipient identifies who receives the badge.
type Recipient struct {
	Email string
	Name  string
}

// Config holds the issuer credentials and endpoint.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// TemplateID skips template listing when set.
	TemplateID string
	// Timeout bounds each HTTP request. Ignored when HTTPClient is set.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Issuer runs the issuance handshake.
type Issuer struct {
	cfg  Config
	http *http.Client
	log  *logging.Logger
}

// NewIssuer creates an Issuer. A nil logger discards output.
func NewIssuer(cfg Config, log *logging.Logger) *Issuer {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = logging.Nop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Issuer{cfg: cfg, http: hc, log: log.With("component", "badge")}
}

// Issue authenticates, resolves a template and issues the badge to rcpt. It
// never retries; a failed attempt may be started again by the caller.
func (i *Issuer) Issue(ctx context.Context, rcpt Recipient) Result {
	if i.cfg.BaseURL == "" || strings.TrimSpace(i.cfg.ClientID) == "" || strings.TrimSpace(i.cfg.ClientSecret) == "" {
		return Result{Failure: FailureNotConfigured}
	}
	rcpt.Email = strings.TrimSpace(rcpt.Email)
	rcpt.Name = strings.TrimSpace(rcpt.Name)
	if rcpt.Email == "" || rcpt.Name == "" || !domain.ValidEmail(rcpt.Email) {
		return Result{Failure: FailureInvalidRecipient}
	}

	token, err := i.authenticate(ctx)
	if err != nil {
		i.log.Warn("badge authentication failed", "error", err)
		return Result{Failure: FailureAuth, Cause: err}
	}

	api := client.New(i.cfg.BaseURL, token, client.WithHTTPClient(i.http), client.WithLogger(i.log))

	templateID, err := i.resolveTemplate(ctx, api)
	if err != nil {
		i.log.Warn("badge template resolution failed", "error", err)
		return Result{Failure: FailureNoTemplate, Cause: err}
	}

	if err := i.issue(ctx, api, templateID, rcpt); err != nil {
		i.log.Warn("badge issuance failed", "template_id", templateID, "error", err)
		return Result{Failure: FailureIssue, TemplateID: templateID, Cause: err}
	}

	i.log.Info("badge issued", "template_id", templateID, "recipient_email", rcpt.Email)
	return Result{TemplateID: templateID}
}
