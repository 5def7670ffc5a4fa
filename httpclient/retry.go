package httpclient

import (
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Outcome describes the result of a single transport attempt: either a
// response (StatusCode set, Err nil) or a transport-level failure (Err set).
type Outcome struct {
	StatusCode int
	Header     http.Header
	Err        error
}

// RetryPolicy is pure configuration plus decision logic for whether and how
// long to wait before retrying a failed attempt. Policies hold no mutable
// state and are safe to share across concurrent calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the initial one.
	// 1 means no retry ever.
	MaxAttempts int

	// BaseDelay is the backoff for the first retry.
	BaseDelay time.Duration

	// Multiplier is applied exponentially per attempt. Must be >= 1.
	Multiplier float64

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration

	// Jitter, when enabled, scales each computed delay by a uniform random
	// factor in [0.5, 1.0] to avoid synchronized retry storms.
	Jitter bool

	// Retryable classifies an outcome as worth retrying. Nil uses
	// DefaultRetryable.
	Retryable func(Outcome) bool
}

// DefaultRetryPolicy returns the default retry configuration.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    30 * time.Second,
		Jitter:      true,
	}
}

// Validate checks the policy configuration.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return NewConfigError("max_attempts", p.MaxAttempts, "must be at least 1")
	}
	if p.BaseDelay < 0 {
		return NewConfigError("base_delay", p.BaseDelay, "must not be negative")
	}
	if p.Multiplier < 1.0 {
		return NewConfigError("multiplier", p.Multiplier, "must be >= 1.0")
	}
	if p.MaxDelay < p.BaseDelay {
		return NewConfigError("max_delay", p.MaxDelay, "must be >= base_delay")
	}
	return nil
}

// ShouldRetry reports whether another attempt should be made after the
// given attempt number (1-based) produced the given outcome.
func (p RetryPolicy) ShouldRetry(attempt int, outcome Outcome) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	return p.retryable(outcome)
}

func (p RetryPolicy) retryable(outcome Outcome) bool {
	// TLS failures are never retryable, regardless of the predicate.
	var tlsErr *TLSError
	if errors.As(outcome.Err, &tlsErr) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(outcome)
	}
	return DefaultRetryable(outcome)
}

// DefaultRetryable retries connection errors, timeouts, HTTP 429 and 5xx.
// Other 4xx statuses indicate a client error and are returned as-is.
func DefaultRetryable(outcome Outcome) bool {
	if outcome.Err != nil {
		var connErr *ConnectionError
		var timeoutErr *TimeoutError
		return errors.As(outcome.Err, &connErr) || errors.As(outcome.Err, &timeoutErr)
	}
	return outcome.StatusCode == http.StatusTooManyRequests || outcome.StatusCode >= 500
}

// Backoff computes the delay to wait after the given attempt (1-based)
// failed: min(MaxDelay, BaseDelay * Multiplier^(attempt-1)), optionally
// jittered into [0.5x, 1.0x] of the computed value.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	if p.Jitter {
		delay = delay * (0.5 + 0.5*rand.Float64())
	}

	return time.Duration(delay)
}

// retryAfterDelay extracts a server-provided Retry-After hint for 429/503
// responses. Returns 0 when absent or malformed. Supports both the numeric
// seconds form and the HTTP-date form.
func retryAfterDelay(outcome Outcome) time.Duration {
	if outcome.Err != nil || outcome.Header == nil {
		return 0
	}
	if outcome.StatusCode != http.StatusTooManyRequests && outcome.StatusCode != http.StatusServiceUnavailable {
		return 0
	}

	value := outcome.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	retryTime, err := http.ParseTime(value)
	if err != nil {
		return 0
	}
	delay := time.Until(retryTime)
	if delay < 0 {
		return 0
	}
	return delay
}
