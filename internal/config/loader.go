package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thruflo/clipsync/internal/logging"
)

// Default values for Config.
const (
	DefaultIntervalMS       = 500
	DefaultQuiescenceMS     = 1000
	DefaultRequestTimeoutMS = 5000
	DefaultLogLevel         = "warn"

	// MaxRecentServers bounds the recent_servers list.
	MaxRecentServers = 10

	// ServerURLEnv overrides server_url when set.
	ServerURLEnv = "CLIPSYNC_SERVER_URL"
)

// DefaultSync returns sync timing with default values.
func DefaultSync() Sync {
	return Sync{
		IntervalMS:       DefaultIntervalMS,
		QuiescenceMS:     DefaultQuiescenceMS,
		RequestTimeoutMS: DefaultRequestTimeoutMS,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		AutoConnect: true,
		Sync:        DefaultSync(),
		LogLevel:    DefaultLogLevel,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// DefaultPath returns <user config dir>/clipsync/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "clipsync", "config.yaml"), nil
}

// Load reads and parses the config file at path.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields, then the environment override.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if env := strings.TrimSpace(os.Getenv(ServerURLEnv)); env != "" {
		cfg.ServerURL = env
	}
	cfg.ServerURL = NormalizeURL(cfg.ServerURL)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that all config values are valid.
func Validate(cfg *Config) error {
	if cfg.Sync.IntervalMS <= 0 {
		return ValidationError{Field: "sync.interval_ms", Message: "must be positive"}
	}
	if cfg.Sync.QuiescenceMS <= 0 {
		return ValidationError{Field: "sync.quiescence_ms", Message: "must be positive"}
	}
	if cfg.Sync.RequestTimeoutMS <= 0 {
		return ValidationError{Field: "sync.request_timeout_ms", Message: "must be positive"}
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return ValidationError{Field: "log_level", Message: err.Error()}
	}
	if cfg.ServerURL != "" {
		if err := ValidateServerURL(cfg.ServerURL); err != nil {
			return ValidationError{Field: "server_url", Message: err.Error()}
		}
	}
	return nil
}

// ValidateServerURL checks that raw is an absolute http or https URL.
func ValidateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// NormalizeURL trims whitespace and trailing slashes.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// AddRecentServer moves url to the front of the recent list, removing any
// earlier occurrence and keeping at most MaxRecentServers entries.
func AddRecentServer(cfg *Config, url string) {
	url = NormalizeURL(url)
	if url == "" {
		return
	}

	recent := make([]string, 0, len(cfg.RecentServers)+1)
	recent = append(recent, url)
	for _, s := range cfg.RecentServers {
		if NormalizeURL(s) != url {
			recent = append(recent, s)
		}
	}
	if len(recent) > MaxRecentServers {
		recent = recent[:MaxRecentServers]
	}
	cfg.RecentServers = recent
}
