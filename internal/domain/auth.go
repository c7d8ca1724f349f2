package domain

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// APIKeyHeader is the header Redmine reads the API key from.
const APIKeyHeader = "X-Redmine-API-Key"

// Credentials identifies the Redmine instance and the key used to call it.
// Immutable once the Transport Client is built; the key never appears in logs.
type Credentials struct {
	BaseURL string
	APIKey  string
}

// Validate checks that the base URL is an absolute http(s) URL and the key is set.
func (c Credentials) Validate() error {
	var errors []string

	if c.BaseURL == "" {
		errors = append(errors, "base URL is required")
	} else {
		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			errors = append(errors, fmt.Sprintf("base URL is invalid: %v", err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, "base URL must use http or https scheme")
		} else if parsedURL.Host == "" {
			errors = append(errors, "base URL must include a host")
		}
	}

	if strings.TrimSpace(c.APIKey) == "" {
		errors = append(errors, "API key is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid credentials: %s", strings.Join(errors, "; "))
	}
	return nil
}

// String redacts the API key.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{BaseURL: %s, APIKey: [REDACTED]}", c.BaseURL)
}

// GoString redacts the API key for %#v.
func (c Credentials) GoString() string {
	return c.String()
}

// MarshalZerologObject logs only the base URL.
func (c Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("base_url", c.BaseURL).Bool("api_key_set", c.APIKey != "")
}

// NewAuthenticatedTransport wraps base so every request carries the API key.
// A nil base uses http.DefaultTransport.
func NewAuthenticatedTransport(base http.RoundTripper, creds Credentials) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authenticatedTransport{
		base:   base,
		apiKey: creds.APIKey,
	}
}

// authenticatedTransport is an http.RoundTripper that adds the API key header.
type authenticatedTransport struct {
	base   http.RoundTripper
	apiKey string
}

// RoundTrip implements http.RoundTripper on a clone so the caller's request is untouched.
func (t *authenticatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set(APIKeyHeader, t.apiKey)
	return t.base.RoundTrip(clonedReq)
}
