package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how the Transport Client retries transient failures.
// It is built once at startup and shared read-only.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// Multiplier scales the delay for every further retry.
	Multiplier float64
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the policy used when configuration does not override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    30 * time.Second,
	}
}

// Validate checks the policy invariants.
func (p RetryPolicy) Validate() error {
	var errors []string

	if p.MaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("max attempts must be at least 1, got %d", p.MaxAttempts))
	}
	if p.BaseDelay < 0 {
		errors = append(errors, fmt.Sprintf("base delay must not be negative, got %s", p.BaseDelay))
	}
	if p.Multiplier < 1 {
		errors = append(errors, fmt.Sprintf("backoff multiplier must be at least 1, got %g", p.Multiplier))
	}
	if p.MaxDelay < 0 {
		errors = append(errors, fmt.Sprintf("max delay must not be negative, got %s", p.MaxDelay))
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid retry policy: %s", strings.Join(errors, "; "))
	}
	return nil
}

// NewBackOff returns a fresh exponential schedule for one Execute call: the n-th
// NextBackOff is BaseDelay * Multiplier^(n-1), capped at MaxDelay, without jitter.
// Schedules are stateful and must not be shared between invocations.
func (p RetryPolicy) NewBackOff() *backoff.ExponentialBackOff {
	maxInterval := p.MaxDelay
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          multiplier,
		MaxInterval:         maxInterval,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}
