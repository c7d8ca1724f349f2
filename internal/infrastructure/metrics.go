package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"redmine-mcp-server/internal/domain"
)

// MeterName is the instrumentation scope for Redmine client metrics.
const MeterName = "redmine-mcp-server/infrastructure"

// clientMetrics records attempt-level signals of the Transport Client.
type clientMetrics struct {
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

func newClientMetrics(meter metric.Meter) (*clientMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	attempts, err := meter.Int64Counter("redmine.client.attempts",
		metric.WithDescription("Number of HTTP attempts against Redmine"),
	)
	if err != nil {
		return nil, err
	}
	retries, err := meter.Int64Counter("redmine.client.retries",
		metric.WithDescription("Number of retries after transient failures"),
	)
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("redmine.client.failures",
		metric.WithDescription("Number of failed executions by error kind"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("redmine.client.latency",
		metric.WithDescription("Latency of a single HTTP attempt in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &clientMetrics{
		attempts: attempts,
		retries:  retries,
		failures: failures,
		latency:  latency,
	}, nil
}

func (m *clientMetrics) recordAttempt(ctx context.Context, method string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.Int("http.status_code", status),
	)
	m.attempts.Add(ctx, 1, attrs)
	m.latency.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *clientMetrics) recordRetry(ctx context.Context, kind domain.ErrorKind) {
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("error_kind", string(kind))))
}

func (m *clientMetrics) recordFailure(ctx context.Context, kind domain.ErrorKind) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("error_kind", string(kind))))
}
