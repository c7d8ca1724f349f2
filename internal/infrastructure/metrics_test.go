package infrastructure

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"redmine-mcp-server/internal/domain"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	return sums
}

func TestClientMetrics_RecordAttemptsRetriesAndFailures(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	server, _ := scriptedServer(t, []int{500}, "")
	client, _ := newTestClient(t, server.URL, testPolicy(), WithMeter(provider.Meter(MeterName)))

	result := client.Execute(context.Background(), domain.NewOutboundRequest(http.MethodGet, "/issues.json"))
	require.False(t, result.OK)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(3), sums["redmine.client.attempts"])
	assert.Equal(t, int64(2), sums["redmine.client.retries"])
	assert.Equal(t, int64(1), sums["redmine.client.failures"])
}

func TestClientMetrics_NilMeterUsesNoop(t *testing.T) {
	metrics, err := newClientMetrics(nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		metrics.recordAttempt(context.Background(), http.MethodGet, 200, 0)
		metrics.recordFailure(context.Background(), domain.KindInternal)
	})
}
