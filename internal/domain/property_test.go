package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var allKinds = []interface{}{
	KindInvalidParams, KindUnknownTool, KindClientError, KindServerError, KindNetworkError,
	KindParseError, KindExhausted, KindDuplicateNameConflict, KindInternal,
}

// TestEnvelopeProperties verifies the caller-visible shape of results.
func TestEnvelopeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("failure envelopes carry kind and message but never the cause", prop.ForAll(
		func(kind ErrorKind, message, cause string) bool {
			cause = "cause:" + cause
			envelope := Fail(NewFailure(kind, "%s", message).WithCause(fmt.Errorf("%s", cause))).Envelope()

			data, err := json.Marshal(envelope)
			if err != nil {
				return false
			}
			return !envelope.OK &&
				envelope.ErrorKind == kind &&
				envelope.Message == message &&
				envelope.Payload == nil &&
				!strings.Contains(string(data), cause)
		},
		gen.OneConstOf(allKinds...),
		gen.AlphaString(),
		gen.Identifier(),
	))

	properties.Property("success envelopes return the payload unchanged", prop.ForAll(
		func(key string, value int) bool {
			payload := map[string]interface{}{key: value}
			envelope := Success(payload).Envelope()
			return envelope.OK && envelope.ErrorKind == "" && reflect.DeepEqual(envelope.Payload, payload)
		},
		gen.Identifier(),
		gen.Int(),
	))

	properties.TestingRun(t)
}

// TestRetryScheduleProperties verifies the backoff schedule against its closed form.
func TestRetryScheduleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("delay n is base*multiplier^(n-1) capped at max", prop.ForAll(
		func(baseMS, maxMS int, multiplier float64) bool {
			policy := RetryPolicy{
				MaxAttempts: 6,
				BaseDelay:   time.Duration(baseMS) * time.Millisecond,
				Multiplier:  multiplier,
				MaxDelay:    time.Duration(maxMS) * time.Millisecond,
			}
			b := policy.NewBackOff()

			expected := float64(policy.BaseDelay)
			for n := 1; n < policy.MaxAttempts; n++ {
				want := time.Duration(expected)
				if want > policy.MaxDelay {
					want = policy.MaxDelay
				}
				got := b.NextBackOff()
				// the library truncates to whole nanoseconds at every step
				if diff := got - want; diff > time.Microsecond || diff < -time.Microsecond {
					return false
				}
				expected *= multiplier
			}
			return true
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1000, 60000),
		gen.Float64Range(1, 3),
	))

	properties.Property("retry eligibility follows the kind", prop.ForAll(
		func(kind ErrorKind) bool {
			want := kind == KindServerError || kind == KindNetworkError
			return NewFailure(kind, "m").Retriable == want
		},
		gen.OneConstOf(allKinds...),
	))

	properties.TestingRun(t)
}

// TestCredentialsProperties verifies that no rendering of Credentials exposes the key.
func TestCredentialsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("API key is never rendered", prop.ForAll(
		func(key string) bool {
			key = "key-" + key
			creds := Credentials{BaseURL: "https://redmine.example.com", APIKey: key}
			for _, out := range []string{
				fmt.Sprintf("%v", creds),
				fmt.Sprintf("%+v", creds),
				fmt.Sprintf("%#v", creds),
				creds.String(),
			} {
				if strings.Contains(out, key) {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
