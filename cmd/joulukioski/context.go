package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/akio-byte/joulun-tonttu-me/internal/logging"
	"github.com/akio-byte/joulun-tonttu-me/internal/settings"
	"github.com/akio-byte/joulun-tonttu-me/pkg/badge"
)

type commandContext struct {
	configFlag *string

	once    sync.Once
	cfg     *settings.Settings
	path    string
	exists  bool
	loadErr error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// settings loads the configuration once per process.
func (c *commandContext) settings() (*settings.Settings, string, bool, error) {
	c.once.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.cfg, c.path, c.exists, c.loadErr = settings.Load(path)
		if c.loadErr != nil {
			c.loadErr = fmt.Errorf("load settings: %w", c.loadErr)
		}
	})
	return c.cfg, c.path, c.exists, c.loadErr
}

// stderrLogger is used by one-shot commands that keep the terminal.
func stderrLogger(s *settings.Settings) (*logging.Logger, error) {
	return logging.New(logging.Options{Mode: "dev", Level: s.LogLevel})
}

func badgeConfig(s *settings.Settings) badge.Config {
	return badge.Config{
		BaseURL:      s.BadgeAPIURL,
		ClientID:     s.BadgeClientID,
		ClientSecret: s.BadgeClientSecret,
		TemplateID:   s.BadgeTemplateID,
		Timeout:      s.BadgeTimeout(),
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "kyllä"
	}
	return "ei"
}
