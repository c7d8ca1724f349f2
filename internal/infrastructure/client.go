package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"redmine-mcp-server/internal/domain"
)

// maxResponseBytes bounds how much of a Redmine response body is read.
const maxResponseBytes = 10 << 20

// Executor runs an OutboundRequest against Redmine. Resource services depend on this
// capability rather than on the concrete client.
type Executor interface {
	Execute(ctx context.Context, req domain.OutboundRequest) domain.InvocationResult
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client is the Transport Client: it owns the authenticated HTTP connection to Redmine,
// applies the per-attempt timeout, classifies responses and runs the retry loop.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     domain.RetryPolicy
	timeout    time.Duration
	logger     zerolog.Logger
	metrics    *clientMetrics
	sleep      Sleeper
	maxBody    int64

	meter     metric.Meter
	transport http.RoundTripper
}

// Compile-time verification that Client implements Executor.
var _ Executor = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMeter sets the meter used to record client metrics.
func WithMeter(meter metric.Meter) ClientOption {
	return func(c *Client) {
		c.meter = meter
	}
}

// WithRoundTripper replaces the base HTTP transport. The API key is still injected on top of it.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithSleeper replaces the backoff wait, mainly so tests can observe delays.
func WithSleeper(sleep Sleeper) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a Transport Client for the Redmine instance described by creds.
// Credentials and policy are validated here; a failure is a startup error.
func NewClient(creds domain.Credentials, policy domain.RetryPolicy, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	c := &Client{
		baseURL: strings.TrimRight(creds.BaseURL, "/"),
		policy:  policy,
		timeout: timeout,
		logger:  zerolog.Nop(),
		sleep:   sleepContext,
		maxBody: maxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}

	metrics, err := newClientMetrics(c.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create client metrics: %w", err)
	}
	c.metrics = metrics

	c.httpClient = &http.Client{
		Transport: domain.NewAuthenticatedTransport(c.transport, creds),
	}

	return c, nil
}

// BaseURL returns the configured base URL for the Redmine instance.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Execute performs req with retry. Transient failures (5xx, network errors, timeouts) are
// retried per the policy; the last one is reported as Exhausted. Client errors and
// malformed bodies are returned after a single attempt.
func (c *Client) Execute(ctx context.Context, req domain.OutboundRequest) domain.InvocationResult {
	logger := c.logger.With().Str("method", req.Method).Str("path", req.Path).Logger()

	endpoint, err := c.resolve(req)
	if err != nil {
		return c.fail(ctx, domain.NewFailure(domain.KindInvalidParams, "invalid request target: %v", err))
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return c.fail(ctx, domain.NewFailure(domain.KindInvalidParams, "failed to encode request body: %v", err))
		}
	}

	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	schedule := c.policy.NewBackOff()
	var last *domain.Failure

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := schedule.NextBackOff()
			c.metrics.recordRetry(ctx, last.Kind)
			logger.Debug().
				Int("attempt", attempt).
				Dur("backoff", wait).
				Str("error_kind", string(last.Kind)).
				Msg("retrying Redmine request")

			if err := c.sleep(ctx, wait); err != nil {
				return c.fail(ctx, canceled(err))
			}
		}

		result := c.attempt(ctx, req.Method, endpoint, body, timeout)
		if result.OK {
			logger.Debug().Int("attempt", attempt).Msg("Redmine request succeeded")
			return result
		}

		last = result.Failure
		if !last.Retriable {
			return c.fail(ctx, last)
		}
		if err := ctx.Err(); err != nil {
			return c.fail(ctx, canceled(err))
		}
		logger.Warn().Int("attempt", attempt).Str("error_kind", string(last.Kind)).Msg(last.Message)
	}

	return c.fail(ctx, &domain.Failure{
		Kind:      domain.KindExhausted,
		Message:   fmt.Sprintf("gave up after %d attempt(s): %s", c.policy.MaxAttempts, last.Error()),
		Retriable: false,
	})
}

// attempt issues one HTTP request built from scratch and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, endpoint string, body []byte, timeout time.Duration) domain.InvocationResult {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, endpoint, reader)
	if err != nil {
		return domain.Fail(domain.NewFailure(domain.KindInvalidParams, "failed to create request: %v", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.recordAttempt(ctx, method, 0, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return domain.Fail(domain.NewFailure(domain.KindNetworkError, "request timed out after %s", timeout).WithCause(err))
		}
		return domain.Fail(domain.NewFailure(domain.KindNetworkError, "request failed: %v", unwrapURLError(err)).WithCause(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	c.metrics.recordAttempt(ctx, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return domain.Fail(domain.NewFailure(domain.KindNetworkError, "failed to read response body: %v", err).WithCause(err))
	}
	if int64(len(data)) > c.maxBody {
		return domain.Fail(domain.NewFailure(domain.KindParseError, "HTTP %d response exceeds %d bytes", resp.StatusCode, c.maxBody))
	}

	return classify(resp.StatusCode, data)
}

// classify maps a completed HTTP exchange to exactly one result.
func classify(status int, body []byte) domain.InvocationResult {
	switch {
	case status >= 200 && status < 300:
		return decodePayload(body)
	case status >= 400 && status < 500:
		return domain.Fail(domain.NewFailure(domain.KindClientError, "%s", describeStatus(status, body)))
	case status >= 500:
		return domain.Fail(domain.NewFailure(domain.KindServerError, "%s", describeStatus(status, body)))
	default:
		return domain.Fail(domain.NewFailure(domain.KindClientError, "unexpected HTTP status %d", status))
	}
}

// decodePayload parses a 2xx body. An empty body (e.g. 201/204 from create, update or
// delete) is a success with an empty object as payload.
func decodePayload(body []byte) domain.InvocationResult {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Success(map[string]interface{}{})
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Fail(domain.NewFailure(domain.KindParseError, "malformed response body: %v", err))
	}
	return domain.Success(payload)
}

// describeStatus renders a status line plus Redmine's validation messages, if any.
func describeStatus(status int, body []byte) string {
	msg := fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
	if details := redmineErrors(body); len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}
	return msg
}

// redmineErrors extracts the messages from a {"errors": [...]} body.
func redmineErrors(body []byte) []string {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Errors) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(envelope.Errors, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(envelope.Errors, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// resolve joins the request path and query onto the base URL.
func (c *Client) resolve(req domain.OutboundRequest) (string, error) {
	if req.Method == "" {
		return "", fmt.Errorf("method is required")
	}
	if req.Path == "" {
		return "", fmt.Errorf("path is required")
	}

	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return "", err
	}

	if len(req.Query) > 0 {
		params := url.Values{}
		for key, value := range req.Query {
			params.Set(key, value)
		}
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}

func (c *Client) fail(ctx context.Context, f *domain.Failure) domain.InvocationResult {
	c.metrics.recordFailure(ctx, f.Kind)
	return domain.Fail(f)
}

// canceled reports a caller-side cancellation. It is terminal: retrying cannot help a
// context that is already done.
func canceled(err error) *domain.Failure {
	f := domain.NewFailure(domain.KindNetworkError, "request canceled: %v", err).WithCause(err)
	f.Retriable = false
	return f
}

// unwrapURLError drops the *url.Error wrapper so messages do not repeat the full URL.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
