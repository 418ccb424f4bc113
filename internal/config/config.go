// Package config loads and validates the HealthRelay YAML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/willowtrack/healthrelay/internal/model"
)

// Config holds the full application configuration loaded from YAML.
type Config struct {
	// ProviderURL is the base URL of the health-data provider bridge
	// (e.g. "https://bridge.example.com").
	ProviderURL string `yaml:"provider_url"`

	// ProviderToken is the bearer token used to authenticate with the provider.
	ProviderToken string `yaml:"provider_token"`

	// ProviderSource tags records imported from this provider. One of
	// "google_health", "samsung_health", or "garmin".
	ProviderSource string `yaml:"provider_source"`

	// PollInterval controls how often the daemon runs a full sync.
	// Minimum 1m, maximum 24h. Defaults to 15m if unset.
	PollInterval time.Duration `yaml:"poll_interval"`

	// SyncWindow bounds how far back each import reaches. Defaults to 720h
	// (30 days) if unset.
	SyncWindow time.Duration `yaml:"sync_window"`

	// DBPath overrides the default location of the local session database.
	DBPath string `yaml:"db_path,omitempty"`

	// Telemetry configures optional OpenTelemetry export via OTLP gRPC.
	// Omit the block entirely to disable telemetry.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// TelemetryConfig holds optional OpenTelemetry settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC host:port of the OTLP collector (e.g. "localhost:4317").
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure disables TLS for the collector connection. Use for local collectors.
	Insecure bool `yaml:"insecure"`

	// ServiceName overrides the OTel service.name attribute. Defaults to "healthrelay".
	ServiceName string `yaml:"service_name"`

	// Headers contains key-value pairs sent as gRPC metadata on every OTLP
	// request. Equivalent to the OTEL_EXPORTER_OTLP_HEADERS environment
	// variable. Use this for authentication tokens, e.g.:
	//   Authorization: "Bearer <token>"
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultPath returns the default config file path: ~/.config/healthrelay/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "healthrelay", "config.yaml"), nil
}

// Load reads and validates the configuration file at the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // reject unknown keys to catch typos early
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Write validates the configuration and saves it as YAML at the given path,
// creating parent directories as needed. The file is written with 0600
// permissions since it contains the provider token.
func (c *Config) Write(path string) error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %q: %w", path, err)
	}
	return nil
}

// Source returns the validated provider source tag.
func (c *Config) Source() model.Source {
	s, _ := model.ParseSource(c.ProviderSource)
	return s
}

// validate checks that all required fields are present and well-formed.
func (c *Config) validate() error {
	if c.ProviderURL == "" {
		return fmt.Errorf("provider_url is required")
	}
	u, err := url.ParseRequestURI(c.ProviderURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("provider_url %q must be a valid http or https URL", c.ProviderURL)
	}

	if c.ProviderToken == "" {
		return fmt.Errorf("provider_token is required")
	}

	source, err := model.ParseSource(c.ProviderSource)
	if err != nil {
		return fmt.Errorf("provider_source: %w", err)
	}
	if !slices.Contains(model.ProviderSources, source) {
		return fmt.Errorf("provider_source %q is not an external provider", c.ProviderSource)
	}

	if c.PollInterval == 0 {
		c.PollInterval = 15 * time.Minute
	}
	if c.PollInterval < time.Minute {
		return fmt.Errorf("poll_interval %v is too short (minimum 1m)", c.PollInterval)
	}
	if c.PollInterval > 24*time.Hour {
		return fmt.Errorf("poll_interval %v is too long (maximum 24h)", c.PollInterval)
	}

	if c.SyncWindow == 0 {
		c.SyncWindow = 30 * 24 * time.Hour
	}
	if c.SyncWindow < time.Hour {
		return fmt.Errorf("sync_window %v is too short (minimum 1h)", c.SyncWindow)
	}

	if c.Telemetry != nil {
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry.otlp_endpoint is required when telemetry is configured")
		}
	}

	return nil
}
