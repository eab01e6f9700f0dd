// Package settings loads and persists the kiosk configuration.
package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_settings.toml
var sampleSettings string

// Settings holds the options an operator configures for the kiosk.
type Settings struct {
	BadgeClientID       string `toml:"badge_client_id" env:"BADGE_CLIENT_ID"`
	BadgeClientSecret   string `toml:"badge_client_secret" env:"BADGE_CLIENT_SECRET"`
	BadgeTemplateID     string `toml:"badge_template_id" env:"BADGE_TEMPLATE_ID"`
	BadgeIssuingEnabled bool   `toml:"badge_issuing_enabled" env:"BADGE_ISSUING_ENABLED"`
	BadgeAPIURL         string `toml:"badge_api_url" env:"BADGE_API_URL"`
	BadgeTimeoutSeconds int    `toml:"badge_timeout_seconds" env:"BADGE_TIMEOUT_SECONDS"`

	AIAPIKey               string `toml:"ai_api_key" env:"AI_API_KEY"`
	PersonalizeURL         string `toml:"personalize_url" env:"PERSONALIZE_URL"`
	GenerateTimeoutSeconds int    `toml:"generate_timeout_seconds" env:"GENERATE_TIMEOUT_SECONDS"`

	OutputDir string `toml:"output_dir" env:"OUTPUT_DIR"`
	PhotoPath string `toml:"photo_path" env:"PHOTO_PATH"`
	LogFile   string `toml:"log_file" env:"LOG_FILE"`
	LogMode   string `toml:"log_mode" env:"LOG_MODE"`
	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`
}

const envPrefix = "JOULUKIOSKI_"

// DefaultPath returns the default settings file location.
func DefaultPath() (string, error) {
	return ExpandPath("~/.config/joulukioski/settings.toml")
}

// Default returns settings with every optional field populated.
func Default() Settings {
	return Settings{
		BadgeAPIURL:            "https://openbadgefactory.com",
		BadgeTimeoutSeconds:    20,
		GenerateTimeoutSeconds: 45,
		OutputDir:              "~/Joulukioski",
		PhotoPath:              "~/Joulukioski/camera/latest.jpg",
		LogFile:                "~/.local/state/joulukioski/kiosk.log",
		LogMode:                "prod",
		LogLevel:               "info",
	}
}

// Load reads the settings file at path (or the default location), applies
// environment overrides and validates the result. It reports the resolved path
// and whether a file existed there.
func Load(path string) (*Settings, string, bool, error) {
	s := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open settings: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&s); err != nil {
			return nil, "", false, fmt.Errorf("parse settings: %w", err)
		}
	}

	if err := s.applyEnv(); err != nil {
		return nil, "", false, err
	}
	return &s, resolved, exists, nil
}

// FromEnv returns the defaults with environment overrides applied, ignoring
// any settings file.
func FromEnv() (*Settings, error) {
	s := Default()
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) applyEnv() error {
	if err := env.ParseWithOptions(s, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if err := s.normalize(); err != nil {
		return err
	}
	return s.Validate()
}

// Save writes the settings as TOML, creating parent directories. The file is
// private to the owner because it holds credentials.
func (s *Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// CreateSample writes a commented sample settings file to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleSettings), 0o600); err != nil {
		return fmt.Errorf("write sample settings: %w", err)
	}
	return nil
}

// BadgeIssuingReady reports whether the kiosk may offer badge issuance: the
// feature is enabled and all three badge credentials are present.
func (s *Settings) BadgeIssuingReady() bool {
	return s.BadgeIssuingEnabled &&
		strings.TrimSpace(s.BadgeClientID) != "" &&
		strings.TrimSpace(s.BadgeClientSecret) != "" &&
		strings.TrimSpace(s.BadgeTemplateID) != ""
}

// AIConfigured reports whether an API key for the personalization service is set.
func (s *Settings) AIConfigured() bool {
	return strings.TrimSpace(s.AIAPIKey) != ""
}

// GenerateTimeout is the bound on the single personalization attempt.
func (s *Settings) GenerateTimeout() time.Duration {
	return time.Duration(s.GenerateTimeoutSeconds) * time.Second
}

// BadgeTimeout bounds each request of the badge issuance chain.
func (s *Settings) BadgeTimeout() time.Duration {
	return time.Duration(s.BadgeTimeoutSeconds) * time.Second
}

// Validate ensures the settings are usable.
func (s *Settings) Validate() error {
	if s.GenerateTimeoutSeconds <= 0 {
		return errors.New("generate_timeout_seconds must be positive")
	}
	if s.BadgeTimeoutSeconds <= 0 {
		return errors.New("badge_timeout_seconds must be positive")
	}
	if s.OutputDir == "" {
		return errors.New("output_dir must be set")
	}
	if s.BadgeIssuingEnabled && strings.TrimSpace(s.BadgeAPIURL) == "" {
		return errors.New("badge_api_url must be set when badge_issuing_enabled is true")
	}
	return nil
}

func (s *Settings) normalize() error {
	s.BadgeClientID = strings.TrimSpace(s.BadgeClientID)
	s.BadgeClientSecret = strings.TrimSpace(s.BadgeClientSecret)
	s.BadgeTemplateID = strings.TrimSpace(s.BadgeTemplateID)
	s.AIAPIKey = strings.TrimSpace(s.AIAPIKey)
	s.BadgeAPIURL = strings.TrimRight(strings.TrimSpace(s.BadgeAPIURL), "/")
	s.PersonalizeURL = strings.TrimSpace(s.PersonalizeURL)

	for _, p := range []*string{&s.OutputDir, &s.PhotoPath, &s.LogFile} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func resolvePath(path string) (string, bool, error) {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return "", false, err
		}
		path = def
	} else {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		path = expanded
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat settings: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("settings path %q is a directory", path)
	}
	return path, true, nil
}

// ExpandPath resolves a leading "~" and makes p absolute.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
