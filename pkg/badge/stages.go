package badge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/akio-byte/joulun-tonttu-me/pkg/client"
)

const tokenPath = "/v1/client/oauth2/token"

// templateKeywords select the kiosk badge among the issuer's templates.
var templateKeywords = []string{"joulun", "osaaja"}

// Notification texts sent with the badge.
const (
	emailSubject  = "Onnittelut! Sait Joulun Osaaja -osaamismerkin!"
	emailFooter   = "Eduro - Joulun Osaaja"
	emailLinkText = "Avaa osaamismerkki"
)

// Template is a badge definition published by the issuer.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type issuePayload struct {
	Recipient     []string `json:"recipient"`
	SendEmail     bool     `json:"send_email"`
	EmailSubject  string   `json:"email_subject"`
	EmailBody     string   `json:"email_body"`
	EmailFooter   string   `json:"email_footer"`
	EmailLinkText string   `json:"email_link_text"`
}

func (i *Issuer) authenticate(ctx context.Context) (string, error) {
	conf := clientcredentials.Config{
		ClientID:     i.cfg.ClientID,
		ClientSecret: i.cfg.ClientSecret,
		TokenURL:     i.cfg.BaseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, i.http)
	tok, err := conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token exchange: empty access token")
	}
	return tok.AccessToken, nil
}

func (i *Issuer) resolveTemplate(ctx context.Context, api *client.Client) (string, error) {
	if id := strings.TrimSpace(i.cfg.TemplateID); id != "" {
		return id, nil
	}

	var raw []byte
	if err := api.Get(ctx, "/v1/badge/"+url.PathEscape(i.cfg.ClientID), &raw); err != nil {
		return "", fmt.Errorf("list templates: %w", err)
	}
	templates, err := parseTemplates(raw)
	if err != nil {
		return "", err
	}
	t, ok := SelectTemplate(templates)
	if !ok {
		return "", errors.New("issuer has no templates")
	}
	i.log.Debug("badge template selected", "template_id", t.ID, "template_name", t.Name, "candidates", len(templates))
	return t.ID, nil
}

func (i *Issuer) issue(ctx context.Context, api *client.Client, templateID string, rcpt Recipient) error {
	payload := issuePayload{
		Recipient:     []string{rcpt.Email},
		SendEmail:     true,
		EmailSubject:  emailSubject,
		EmailBody:     emailBody(rcpt.Name),
		EmailFooter:   emailFooter,
		EmailLinkText: emailLinkText,
	}
	path := "/v1/badge/" + url.PathEscape(i.cfg.ClientID) + "/" + url.PathEscape(templateID)

	var raw []byte
	if err := api.Post(ctx, path, payload, &raw); err != nil {
		return err
	}
	return checkIssueBody(raw)
}

// checkIssueBody rejects success responses whose body flags a failure.
func checkIssueBody(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var body struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	if body.Success != nil && !*body.Success {
		if body.Error != "" {
			return fmt.Errorf("issuer reported failure: %s", body.Error)
		}
		return errors.New("issuer reported failure")
	}
	if body.Error != "" {
		return fmt.Errorf("issuer reported failure: %s", body.Error)
	}
	return nil
}

// parseTemplates accepts a JSON array or newline-delimited JSON objects.
func parseTemplates(raw []byte) ([]Template, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var list []Template
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	list = list[:0]
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var t Template
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("parse template list: %w", err)
		}
		list = append(list, t)
	}
	return list, nil
}

// SelectTemplate picks the first template whose name contains one of the
// kiosk keywords, or else the first template listed.
func SelectTemplate(templates []Template) (Template, bool) {
	var candidates []Template
	for _, t := range templates {
		if strings.TrimSpace(t.ID) != "" {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return Template{}, false
	}
	for _, t := range candidates {
		name := strings.ToLower(t.Name)
		for _, kw := range templateKeywords {
			if strings.Contains(name, kw) {
				return t, true
			}
		}
	}
	return candidates[0], true
}

func emailBody(name string) string {
	return strings.Join([]string{
		"Hei " + name + "!",
		"",
		"Onnittelut! Olet ansainnut Joulun Osaaja -osaamismerkin Eduro Pikkujoulukioskissa.",
		"",
		"Voit tarkastella ja jakaa osaamismerkkiäsi alla olevan linkin kautta.",
		"",
		"Hyvää joulua!",
	}, "\n")
}
