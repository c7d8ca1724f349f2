package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"redmine-mcp-server/internal/domain"
)

// MeterName is the instrumentation scope for dispatcher metrics.
const MeterName = "redmine-mcp-server/application"

// Dispatcher resolves a tool name, validates its parameters and normalizes the
// handler outcome into an InvocationResult. It never retries.
type Dispatcher struct {
	registry *ToolRegistry
	logger   zerolog.Logger

	invocations metric.Int64Counter
	duration    metric.Float64Histogram
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	logger zerolog.Logger
	meter  metric.Meter
}

// WithDispatcherLogger sets the dispatcher logger.
func WithDispatcherLogger(logger zerolog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.logger = logger
	}
}

// WithDispatcherMeter sets the meter for invocation metrics.
func WithDispatcherMeter(meter metric.Meter) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.meter = meter
	}
}

// NewDispatcher creates a Dispatcher over registry.
func NewDispatcher(registry *ToolRegistry, opts ...DispatcherOption) (*Dispatcher, error) {
	options := dispatcherOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.meter == nil {
		options.meter = noop.NewMeterProvider().Meter(MeterName)
	}

	invocations, err := options.meter.Int64Counter("redmine.tool.invocations",
		metric.WithDescription("Number of tool invocations by tool and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invocation counter: %w", err)
	}
	duration, err := options.meter.Float64Histogram("redmine.tool.duration",
		metric.WithDescription("Duration of tool invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &Dispatcher{
		registry:    registry,
		logger:      options.logger,
		invocations: invocations,
		duration:    duration,
	}, nil
}

// Invoke runs the named tool with rawParams. Every outcome, including handler panics,
// comes back as an InvocationResult.
func (d *Dispatcher) Invoke(ctx context.Context, name string, rawParams map[string]interface{}) domain.InvocationResult {
	start := time.Now()
	result := d.invoke(ctx, name, rawParams)

	outcome := "success"
	if !result.OK {
		outcome = string(result.Failure.Kind)
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", name),
		attribute.String("outcome", outcome),
	)
	d.invocations.Add(ctx, 1, attrs)
	d.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	event := d.logger.Debug()
	if !result.OK {
		event = d.logger.Info().Str("error_kind", outcome)
	}
	event.Str("tool", name).Dur("elapsed", time.Since(start)).Msg("tool invocation finished")

	return result
}

func (d *Dispatcher) invoke(ctx context.Context, name string, rawParams map[string]interface{}) domain.InvocationResult {
	descriptor, err := d.registry.Lookup(name)
	if err != nil {
		return domain.Fail(domain.NewFailure(domain.KindUnknownTool, "unknown tool: %s", name))
	}

	params, failure := validateParams(descriptor.Schema, rawParams)
	if failure != nil {
		return domain.Fail(failure)
	}

	return d.call(ctx, descriptor, params)
}

// call runs the handler and converts whatever it produces.
func (d *Dispatcher) call(ctx context.Context, descriptor domain.ToolDescriptor, params map[string]interface{}) (result domain.InvocationResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("tool", descriptor.Name).Interface("panic", r).Msg("tool handler panicked")
			result = domain.Fail(domain.NewFailure(domain.KindInternal, "tool %s failed unexpectedly", descriptor.Name))
		}
	}()

	payload, err := descriptor.Handler(ctx, params)
	if err != nil {
		return domain.Fail(normalizeError(descriptor.Name, err))
	}
	return domain.Success(payload)
}

// normalizeError keeps Failures as they are and hides every other error type
// behind an Internal failure.
func normalizeError(tool string, err error) *domain.Failure {
	var failure *domain.Failure
	if errors.As(err, &failure) {
		return &domain.Failure{
			Kind:      failure.Kind,
			Message:   failure.Message,
			Retriable: failure.Retriable,
		}
	}
	return domain.NewFailure(domain.KindInternal, "tool %s failed: %v", tool, err).WithCause(err)
}

// validateParams checks rawParams against schema in sorted name order and returns
// a new map holding only declared parameters, with integers normalized to int64.
// A nil value counts as absent.
func validateParams(schema domain.ParamSchema, rawParams map[string]interface{}) (map[string]interface{}, *domain.Failure) {
	params := make(map[string]interface{}, len(schema))

	for _, name := range schema.Names() {
		spec := schema[name]
		value, present := rawParams[name]
		if !present || value == nil {
			if spec.Required {
				return nil, domain.NewFailure(domain.KindInvalidParams, "missing required parameter: %s", name)
			}
			continue
		}

		normalized, ok := coerce(spec.Type, value)
		if !ok {
			return nil, domain.NewFailure(domain.KindInvalidParams, "parameter %s: expected %s", name, spec.Type)
		}
		params[name] = normalized
	}

	return params, nil
}

// coerce checks value against the declared type. JSON decoding yields float64 for
// every number, so integral floats are accepted as integers.
func coerce(kind domain.ParamType, value interface{}) (interface{}, bool) {
	switch kind {
	case domain.TypeString:
		s, ok := value.(string)
		return s, ok
	case domain.TypeBoolean:
		b, ok := value.(bool)
		return b, ok
	case domain.TypeInteger:
		return toInt64(value)
	case domain.TypeObject:
		m, ok := value.(map[string]interface{})
		return m, ok
	case domain.TypeArray:
		a, ok := value.([]interface{})
		return a, ok
	default:
		return nil, false
	}
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if v != math.Trunc(v) || math.IsInf(v, 0) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
