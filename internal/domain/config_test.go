package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return configPath
}

// mapEnv returns a lookup function backed by vars.
func mapEnv(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func noEnv(string) (string, bool) { return "", false }

// TestLoadConfig_ValidYAML tests loading a complete YAML configuration file.
func TestLoadConfig_ValidYAML(t *testing.T) {
	configPath := writeConfig(t, `
transport:
  type: http
  http:
    host: 127.0.0.1
    port: 8080
redmine:
  base_url: https://redmine.example.com/
  api_key: yaml-key
  timeout_seconds: 10
  retry:
    max_attempts: 5
    base_delay_ms: 250
    multiplier: 1.5
    max_delay_ms: 4000
server:
  max_concurrency: 4
logging:
  level: debug
  format: console
`)

	config, err := loadConfig(configPath, noEnv)
	if err != nil {
		t.Fatalf("loadConfig() error = %v, want nil", err)
	}

	if config.Transport.Type != "http" || config.Transport.HTTP.Port != 8080 {
		t.Errorf("Transport = %+v, want http on 8080", config.Transport)
	}
	if got := config.Credentials().BaseURL; got != "https://redmine.example.com" {
		t.Errorf("Credentials().BaseURL = %s, want trailing slash trimmed", got)
	}
	if config.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %s, want 10s", config.Timeout())
	}

	want := RetryPolicy{MaxAttempts: 5, BaseDelay: 250 * time.Millisecond, Multiplier: 1.5, MaxDelay: 4 * time.Second}
	if got := config.RetryPolicy(); got != want {
		t.Errorf("RetryPolicy() = %+v, want %+v", got, want)
	}
	if config.Server.MaxConcurrency != 4 {
		t.Errorf("Server.MaxConcurrency = %d, want 4", config.Server.MaxConcurrency)
	}
}

// TestLoadConfig_DefaultsApplied tests that omitted sections keep their defaults.
func TestLoadConfig_DefaultsApplied(t *testing.T) {
	configPath := writeConfig(t, `
redmine:
  base_url: https://redmine.example.com
  api_key: k
`)

	config, err := loadConfig(configPath, noEnv)
	if err != nil {
		t.Fatalf("loadConfig() error = %v, want nil", err)
	}

	if config.Transport.Type != "stdio" {
		t.Errorf("Transport.Type = %s, want stdio", config.Transport.Type)
	}
	if config.RetryPolicy() != DefaultRetryPolicy() {
		t.Errorf("RetryPolicy() = %+v, want defaults", config.RetryPolicy())
	}
	if config.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %s, want 30s", config.Timeout())
	}
	if config.Logging.Level != "info" {
		t.Errorf("Logging.Level = %s, want info", config.Logging.Level)
	}
}

// TestLoadConfig_EnvironmentOnly tests that an empty path reads only the environment.
func TestLoadConfig_EnvironmentOnly(t *testing.T) {
	config, err := loadConfig("", mapEnv(map[string]string{
		EnvBaseURL:        "https://env.example.com",
		EnvAPIKey:         "env-key",
		EnvTimeoutSeconds: "5",
		EnvMaxRetries:     "2",
		EnvRetryBaseDelay: "100",
		EnvTransport:      "stdio",
		EnvLogLevel:       "warn",
	}))
	if err != nil {
		t.Fatalf("loadConfig() error = %v, want nil", err)
	}

	if config.Redmine.BaseURL != "https://env.example.com" || config.Redmine.APIKey != "env-key" {
		t.Errorf("Redmine = %+v, want values from environment", config.Redmine)
	}
	if config.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %s, want 5s", config.Timeout())
	}
	policy := config.RetryPolicy()
	if policy.MaxAttempts != 2 || policy.BaseDelay != 100*time.Millisecond {
		t.Errorf("RetryPolicy() = %+v, want 2 attempts and 100ms", policy)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %s, want warn", config.Logging.Level)
	}
}

// TestLoadConfig_EnvironmentOverridesFile tests precedence of environment over YAML.
func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	configPath := writeConfig(t, `
redmine:
  base_url: https://file.example.com
  api_key: file-key
`)

	config, err := loadConfig(configPath, mapEnv(map[string]string{EnvAPIKey: "env-key", EnvBaseURL: ""}))
	if err != nil {
		t.Fatalf("loadConfig() error = %v, want nil", err)
	}

	if config.Redmine.APIKey != "env-key" {
		t.Errorf("APIKey = %s, want env-key", config.Redmine.APIKey)
	}
	if config.Redmine.BaseURL != "https://file.example.com" {
		t.Errorf("BaseURL = %s, empty env value should not override", config.Redmine.BaseURL)
	}
}

// TestLoadConfig_Errors tests the startup failures.
func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nonexistent.yaml") },
			wantErr: "configuration file not found",
		},
		{
			name:    "invalid YAML",
			path:    func(t *testing.T) string { return writeConfig(t, "redmine: [unclosed") },
			wantErr: "invalid YAML syntax",
		},
		{
			name:    "non-numeric env override",
			path:    func(t *testing.T) string { return "" },
			env:     map[string]string{EnvBaseURL: "https://r.example.com", EnvAPIKey: "k", EnvMaxRetries: "three"},
			wantErr: "REDMINE_MAX_RETRIES must be an integer",
		},
		{
			name:    "no credentials",
			path:    func(t *testing.T) string { return "" },
			wantErr: "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.path(t), mapEnv(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("loadConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func validConfig() *Config {
	config := DefaultConfig()
	config.Redmine.BaseURL = "https://redmine.example.com"
	config.Redmine.APIKey = "k"
	return config
}

// TestValidate tests individual validation rules.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing transport type", func(c *Config) { c.Transport.Type = "" }, "transport type is required"},
		{"invalid transport type", func(c *Config) { c.Transport.Type = "websocket" }, "invalid transport type 'websocket'"},
		{"http without host", func(c *Config) {
			c.Transport = TransportConfig{Type: "http", HTTP: HTTPConfig{Port: 8080}}
		}, "HTTP host is required"},
		{"http bad port", func(c *Config) {
			c.Transport = TransportConfig{Type: "http", HTTP: HTTPConfig{Host: "localhost", Port: 70000}}
		}, "invalid HTTP port 70000"},
		{"zero timeout", func(c *Config) { c.Redmine.TimeoutSeconds = 0 }, "timeout_seconds must be positive"},
		{"zero attempts", func(c *Config) { c.Redmine.Retry.MaxAttempts = 0 }, "max attempts must be at least 1"},
		{"negative delay", func(c *Config) { c.Redmine.Retry.BaseDelayMS = -1 }, "base delay must not be negative"},
		{"shrinking multiplier", func(c *Config) { c.Redmine.Retry.Multiplier = 0.5 }, "multiplier must be at least 1"},
		{"zero concurrency", func(c *Config) { c.Server.MaxConcurrency = 0 }, "max_concurrency must be at least 1"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging format 'xml'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)
			err := config.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestValidate_MultipleErrors tests that every problem is reported at once.
func TestValidate_MultipleErrors(t *testing.T) {
	config := &Config{}

	err := config.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}

	for _, want := range []string{"transport type is required", "base URL is required", "API key is required", "timeout_seconds", "max_concurrency"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, want containing %q", err, want)
		}
	}
}
