package domain

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the configuration file.
const (
	EnvBaseURL        = "REDMINE_BASE_URL"
	EnvAPIKey         = "REDMINE_API_KEY"
	EnvTimeoutSeconds = "REDMINE_TIMEOUT_SECONDS"
	EnvMaxRetries     = "REDMINE_MAX_RETRIES"
	EnvRetryBaseDelay = "REDMINE_RETRY_BASE_DELAY_MS"
	EnvTransport      = "MCP_TRANSPORT"
	EnvLogLevel       = "LOG_LEVEL"
)

// Config represents the server configuration.
// It is loaded once at startup and passed explicitly to the components that need it.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Redmine   RedmineConfig   `yaml:"redmine"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TransportConfig defines transport settings.
// Specifies whether to use stdio or HTTP transport.
type TransportConfig struct {
	Type string     `yaml:"type"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RedmineConfig holds the remote API location, credentials and resilience settings.
type RedmineConfig struct {
	BaseURL        string      `yaml:"base_url"`
	APIKey         string      `yaml:"api_key"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	Retry          RetryConfig `yaml:"retry"`
}

// RetryConfig is the YAML form of RetryPolicy.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMS int     `yaml:"base_delay_ms"`
	Multiplier  float64 `yaml:"multiplier"`
	MaxDelayMS  int     `yaml:"max_delay_ms"`
}

// ServerConfig tunes request processing.
type ServerConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns a configuration with every optional value filled in.
func DefaultConfig() *Config {
	policy := DefaultRetryPolicy()
	return &Config{
		Transport: TransportConfig{Type: "stdio"},
		Redmine: RedmineConfig{
			TimeoutSeconds: 30,
			Retry: RetryConfig{
				MaxAttempts: policy.MaxAttempts,
				BaseDelayMS: int(policy.BaseDelay / time.Millisecond),
				Multiplier:  policy.Multiplier,
				MaxDelayMS:  int(policy.MaxDelay / time.Millisecond),
			},
		},
		Server:  ServerConfig{MaxConcurrency: 8},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads the YAML file at path (if path is non-empty), applies environment
// overrides and validates the result.
// Returns an error if the file is missing, has invalid syntax, or fails validation.
func LoadConfig(path string) (*Config, error) {
	return loadConfig(path, os.LookupEnv)
}

func loadConfig(path string, lookup func(string) (string, bool)) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
		}
	}

	if err := config.applyEnv(lookup); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Redmine.BaseURL = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Redmine.APIKey = v
	}
	if v, ok := lookup(EnvTransport); ok && v != "" {
		c.Transport.Type = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}

	ints := []struct {
		name   string
		target *int
	}{
		{EnvTimeoutSeconds, &c.Redmine.TimeoutSeconds},
		{EnvMaxRetries, &c.Redmine.Retry.MaxAttempts},
		{EnvRetryBaseDelay, &c.Redmine.Retry.BaseDelayMS},
	}
	for _, entry := range ints {
		v, ok := lookup(entry.name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", entry.name, v)
		}
		*entry.target = n
	}

	return nil
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Credentials().Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("redmine: %v", err))
	}

	if c.Redmine.TimeoutSeconds <= 0 {
		errors = append(errors, fmt.Sprintf("redmine timeout_seconds must be positive, got %d", c.Redmine.TimeoutSeconds))
	}

	if err := c.RetryPolicy().Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("redmine: %v", err))
	}

	if c.Server.MaxConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("server max_concurrency must be at least 1, got %d", c.Server.MaxConcurrency))
	}

	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		errors = append(errors, fmt.Sprintf("invalid logging format '%s': must be 'json' or 'console'", c.Logging.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	if c.Transport.Type == "" {
		errors = append(errors, "transport type is required")
	} else if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// Credentials returns the immutable credentials for the Transport Client.
func (c *Config) Credentials() Credentials {
	return Credentials{
		BaseURL: strings.TrimRight(c.Redmine.BaseURL, "/"),
		APIKey:  c.Redmine.APIKey,
	}
}

// RetryPolicy converts the retry section into a RetryPolicy.
func (c *Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: c.Redmine.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Redmine.Retry.BaseDelayMS) * time.Millisecond,
		Multiplier:  c.Redmine.Retry.Multiplier,
		MaxDelay:    time.Duration(c.Redmine.Retry.MaxDelayMS) * time.Millisecond,
	}
}

// Timeout returns the per-attempt request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Redmine.TimeoutSeconds) * time.Second
}
