package infrastructure

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redmine-mcp-server/internal/domain"
)

const testAPIKey = "secret-key"

// recordingSleeper captures backoff waits without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func testPolicy() domain.RetryPolicy {
	return domain.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    time.Second,
	}
}

func newTestClient(t *testing.T, serverURL string, policy domain.RetryPolicy, opts ...ClientOption) (*Client, *recordingSleeper) {
	t.Helper()
	sleeper := &recordingSleeper{}
	opts = append([]ClientOption{WithSleeper(sleeper.sleep)}, opts...)
	client, err := NewClient(domain.Credentials{BaseURL: serverURL, APIKey: testAPIKey}, policy, 5*time.Second, opts...)
	require.NoError(t, err)
	return client, sleeper
}

// scriptedServer answers with the given statuses in order, repeating the last one.
func scriptedServer(t *testing.T, statuses []int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.WriteHeader(status)
		if status < 300 {
			_, _ = io.WriteString(w, body)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestNewClient_Validation(t *testing.T) {
	valid := domain.Credentials{BaseURL: "https://redmine.example.com", APIKey: "k"}

	tests := []struct {
		name    string
		creds   domain.Credentials
		policy  domain.RetryPolicy
		timeout time.Duration
		wantErr string
	}{
		{"missing key", domain.Credentials{BaseURL: "https://redmine.example.com"}, testPolicy(), time.Second, "API key is required"},
		{"relative url", domain.Credentials{BaseURL: "/redmine", APIKey: "k"}, testPolicy(), time.Second, "http or https"},
		{"zero attempts", valid, domain.RetryPolicy{Multiplier: 1}, time.Second, "max attempts"},
		{"zero timeout", valid, testPolicy(), 0, "timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.creds, tt.policy, tt.timeout)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExecute_SuccessSendsAPIKeyAndDecodesPayload(t *testing.T) {
	var gotKey, gotAccept, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(domain.APIKeyHeader)
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/issues/42.json", r.URL.Path)
		_, _ = io.WriteString(w, `{"issue":{"id":42,"subject":"Broken build"}}`)
	}))
	defer server.Close()

	client, sleeper := newTestClient(t, server.URL, testPolicy())
	req := domain.NewOutboundRequest(http.MethodGet, "/issues/42.json").WithQuery("include", "journals")

	result := client.Execute(context.Background(), req)

	require.True(t, result.OK, "unexpected failure: %v", result.Failure)
	assert.Equal(t, testAPIKey, gotKey)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "include=journals", gotQuery)
	assert.Empty(t, sleeper.recorded())

	issue := result.Payload.(map[string]interface{})["issue"].(map[string]interface{})
	assert.Equal(t, "Broken build", issue["subject"])
}

func TestExecute_RetriesServerErrorsThenSucceeds(t *testing.T) {
	server, calls := scriptedServer(t, []int{500, 502, 200}, `{"ok":true}`)
	client, sleeper := newTestClient(t, server.URL, testPolicy())

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/projects.json"))

	require.True(t, result.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.recorded())
}

func TestExecute_ExhaustsAfterMaxAttempts(t *testing.T) {
	server, calls := scriptedServer(t, []int{503}, "")
	client, sleeper := newTestClient(t, server.URL, testPolicy())

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/projects.json"))

	require.False(t, result.OK)
	assert.Equal(t, domain.KindExhausted, result.Failure.Kind)
	assert.False(t, result.Failure.Retriable)
	assert.Contains(t, result.Failure.Message, "3 attempt(s)")
	assert.Contains(t, result.Failure.Message, "HTTP 503")
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Len(t, sleeper.recorded(), 2)
}

func TestExecute_DelaysAreCappedByMaxDelay(t *testing.T) {
	server, _ := scriptedServer(t, []int{500}, "")
	policy := domain.RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   400 * time.Millisecond,
		Multiplier:  3,
		MaxDelay:    time.Second,
	}
	client, sleeper := newTestClient(t, server.URL, policy)

	client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/news.json"))

	assert.Equal(t, []time.Duration{
		400 * time.Millisecond,
		time.Second,
		time.Second,
		time.Second,
	}, sleeper.recorded())
}

func TestExecute_SingleAttemptPolicyNeverRetries(t *testing.T) {
	server, calls := scriptedServer(t, []int{500}, "")
	policy := testPolicy()
	policy.MaxAttempts = 1
	client, sleeper := newTestClient(t, server.URL, policy)

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/news.json"))

	assert.Equal(t, domain.KindExhausted, result.Failure.Kind)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Empty(t, sleeper.recorded())
}

func TestExecute_ClientErrorsAreNotRetried(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 422} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server, calls := scriptedServer(t, []int{status}, "")
			client, sleeper := newTestClient(t, server.URL, testPolicy())

			result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/issues/1.json"))

			require.False(t, result.OK)
			assert.Equal(t, domain.KindClientError, result.Failure.Kind)
			assert.False(t, result.Failure.Retriable)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
			assert.Empty(t, sleeper.recorded())
		})
	}
}

func TestExecute_ClientErrorIncludesRedmineMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"errors":["Subject cannot be blank","Tracker is invalid"]}`)
	}))
	defer server.Close()
	client, _ := newTestClient(t, server.URL, testPolicy())

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodPost, "/issues.json").WithBody(map[string]string{}))

	assert.Equal(t, "HTTP 422 Unprocessable Entity: Subject cannot be blank; Tracker is invalid", result.Failure.Message)
}

func TestExecute_EmptySuccessBodyIsEmptyPayload(t *testing.T) {
	server, _ := scriptedServer(t, []int{http.StatusNoContent}, "")
	client, _ := newTestClient(t, server.URL, testPolicy())

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodPut, "/issues/1.json"))

	require.True(t, result.OK)
	assert.Equal(t, map[string]interface{}{}, result.Payload)
}

func TestExecute_MalformedBodyIsParseError(t *testing.T) {
	server, calls := scriptedServer(t, []int{200}, `{"issue": `)
	client, _ := newTestClient(t, server.URL, testPolicy())

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/issues/1.json"))

	require.False(t, result.OK)
	assert.Equal(t, domain.KindParseError, result.Failure.Kind)
	assert.False(t, result.Failure.Retriable)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestExecute_OversizedBodyIsReportedAsSuch(t *testing.T) {
	server, calls := scriptedServer(t, []int{200}, `{"issues": [1, 2, 3, 4, 5]}`)
	client, _ := newTestClient(t, server.URL, testPolicy())
	client.maxBody = 16

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/issues.json"))

	require.False(t, result.OK)
	assert.Equal(t, domain.KindParseError, result.Failure.Kind)
	assert.Equal(t, "HTTP 200 response exceeds 16 bytes", result.Failure.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestExecute_BodyAtLimitIsAccepted(t *testing.T) {
	body := `{"issues": []}`
	server, _ := scriptedServer(t, []int{200}, body)
	client, _ := newTestClient(t, server.URL, testPolicy())
	client.maxBody = int64(len(body))

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/issues.json"))

	require.True(t, result.OK)
	assert.Equal(t, map[string]interface{}{"issues": []interface{}{}}, result.Payload)
}

func TestExecute_UnexpectedStatusIsClientError(t *testing.T) {
	server, _ := scriptedServer(t, []int{http.StatusNotModified}, "")
	client, _ := newTestClient(t, server.URL, testPolicy())

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/issues/1.json"))

	assert.Equal(t, domain.KindClientError, result.Failure.Kind)
	assert.Equal(t, "unexpected HTTP status 304", result.Failure.Message)
}

func TestExecute_NetworkErrorIsRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, sleeper := newTestClient(t, url, testPolicy())
	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/issues.json"))

	require.False(t, result.OK)
	assert.Equal(t, domain.KindExhausted, result.Failure.Kind)
	assert.Contains(t, result.Failure.Message, "NetworkError")
	assert.Len(t, sleeper.recorded(), 2)
}

func TestExecute_AttemptTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	policy := testPolicy()
	policy.MaxAttempts = 2
	client, _ := newTestClient(t, server.URL, policy)

	req := domain.NewOutboundRequest(http.MethodGet, "/issues.json")
	req.Timeout = 20 * time.Millisecond
	result := client.Execute(context.Background(), req)

	require.False(t, result.OK)
	assert.Equal(t, domain.KindExhausted, result.Failure.Kind)
	assert.Contains(t, result.Failure.Message, "timed out")
}

func TestExecute_CallerCancellationStopsRetrying(t *testing.T) {
	server, calls := scriptedServer(t, []int{500}, "")
	ctx, cancel := context.WithCancel(context.Background())

	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	client, err := NewClient(domain.Credentials{BaseURL: server.URL, APIKey: testAPIKey}, testPolicy(), time.Second, WithSleeper(sleep))
	require.NoError(t, err)

	result := client.Execute(ctx, domain.NewOutboundRequest(http.MethodGet, "/issues.json"))

	require.False(t, result.OK)
	assert.Equal(t, domain.KindNetworkError, result.Failure.Kind)
	assert.False(t, result.Failure.Retriable)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestExecute_RetriesResendIdenticalBody(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"issue":{"id":7}}`)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, testPolicy())
	fields := domain.IssueFields{ProjectID: "demo", Subject: "Retry me"}
	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodPost, "/issues.json").WithBody(domain.IssuePayload{Issue: fields}))

	require.True(t, result.OK)
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])

	var decoded domain.IssuePayload
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &decoded))
	assert.Equal(t, "Retry me", decoded.Issue.Subject)
}

func TestExecute_UnencodableBodyIsInvalidParams(t *testing.T) {
	server, calls := scriptedServer(t, []int{200}, "{}")
	client, _ := newTestClient(t, server.URL, testPolicy())

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodPost, "/issues.json").WithBody(make(chan int)))

	assert.Equal(t, domain.KindInvalidParams, result.Failure.Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestExecute_ConcurrentCallsShareClient(t *testing.T) {
	server, calls := scriptedServer(t, []int{200}, `{"projects":[]}`)
	client, _ := newTestClient(t, server.URL, testPolicy())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/projects.json"))
			assert.True(t, result.OK)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), atomic.LoadInt32(calls))
}

func TestResolve(t *testing.T) {
	client, _ := newTestClient(t, "https://redmine.example.com/sub/", testPolicy())

	endpoint, err := client.resolve(domain.NewOutboundRequest(http.MethodGet, "/issues.json").
		WithQuery("status_id", "*").
		WithQuery("limit", "10"))

	require.NoError(t, err)
	assert.Equal(t, "https://redmine.example.com/sub/issues.json?limit=10&status_id=%2A", endpoint)
}
