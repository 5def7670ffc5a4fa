package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// errHeaderTimeout is the cancellation cause for a streaming attempt whose
// response headers did not arrive within the per-attempt timeout.
var errHeaderTimeout = errors.New("timed out waiting for response headers")

// sleepFunc waits out a backoff delay. The sync transport blocks the
// calling goroutine; the async transport suspends and honors cancellation.
type sleepFunc func(ctx context.Context, d time.Duration) error

// runRetry is the single retry loop shared by both transports, so backoff
// math and the retryable-condition logic live in exactly one place.
//
// Terminal outcomes:
//   - success or non-retryable status: the envelope, nil error
//   - non-retryable transport failure (TLS, single-attempt policies with an
//     inert predicate): the typed error from the taxonomy
//   - retries exhausted: RequestFailedError wrapping the last failure
//   - context cancelled: the context's error
func runRetry(ctx context.Context, session *Session, policy RetryPolicy, spec RequestSpec, sleep sleepFunc, logger zerolog.Logger) (*ResponseEnvelope, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		envelope, target, outcome := doAttempt(ctx, session, spec)

		if err := ctx.Err(); err != nil {
			if envelope != nil && envelope.stream != nil {
				_ = envelope.stream.Close()
			}
			return nil, err
		}

		if outcome.Err == nil && !policy.retryable(outcome) {
			envelope.Attempts = attempt
			logger.Debug().
				Str("url", target).
				Int("status_code", envelope.StatusCode).
				Int("attempts", attempt).
				Msg("Request completed")
			return envelope, nil
		}

		// Retried attempts discard their envelope; only the final one is
		// ever returned, so release any stream checked out by this try.
		if envelope != nil && envelope.stream != nil {
			_ = envelope.stream.Close()
			envelope.stream = nil
		}

		if !policy.retryable(outcome) {
			// Transport failure the policy will not retry.
			return nil, outcome.Err
		}

		if attempt >= policy.MaxAttempts {
			failure := &RequestFailedError{
				URL:        target,
				Attempts:   attempt,
				StatusCode: outcome.StatusCode,
				Err:        outcome.Err,
			}
			logger.Warn().
				Str("url", target).
				Int("attempts", attempt).
				Int("status_code", outcome.StatusCode).
				Err(outcome.Err).
				Msg("All retry attempts failed")
			return envelope, failure
		}

		delay := policy.Backoff(attempt)
		if hinted := retryAfterDelay(outcome); hinted > delay {
			delay = hinted
			if delay > policy.MaxDelay {
				delay = policy.MaxDelay
			}
		}

		logger.Debug().
			Str("url", target).
			Int("attempt", attempt).
			Int("status_code", outcome.StatusCode).
			Err(outcome.Err).
			Dur("delay", delay).
			Msg("Retryable failure, waiting before retry")

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// doAttempt executes exactly one transport attempt: materialize the spec
// against the session, send it, and convert the result into an envelope or
// a classified failure outcome.
func doAttempt(ctx context.Context, session *Session, spec RequestSpec) (*ResponseEnvelope, string, Outcome) {
	if session.limiter != nil {
		if err := session.limiter.Wait(ctx); err != nil {
			return nil, spec.target, Outcome{Err: err}
		}
	}

	timeout := session.timeoutFor(spec)

	// Streaming bodies stay open past the attempt, so the per-attempt
	// timeout covers a streaming request only up to response headers; the
	// body read is bounded by the caller's context alone.
	var attemptCtx context.Context
	var cancel context.CancelFunc
	var headerTimer *time.Timer
	if spec.stream {
		streamCtx, cancelCause := context.WithCancelCause(ctx)
		attemptCtx = streamCtx
		cancel = func() { cancelCause(nil) }
		headerTimer = time.AfterFunc(timeout, func() { cancelCause(errHeaderTimeout) })
	} else {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}

	req, target, err := session.materialize(attemptCtx, spec)
	if err != nil {
		if headerTimer != nil {
			headerTimer.Stop()
		}
		cancel()
		return nil, spec.target, Outcome{Err: err}
	}

	resp, err := session.client.Do(req)
	headersTimedOut := false
	if headerTimer != nil && !headerTimer.Stop() {
		headersTimedOut = true
	}
	if err != nil {
		cancel()
		if headersTimedOut && errors.Is(context.Cause(attemptCtx), errHeaderTimeout) {
			return nil, target, Outcome{Err: &TimeoutError{URL: target, Timeout: timeout, Err: err}}
		}
		return nil, target, Outcome{Err: classifyError(err, target, timeout)}
	}
	if headersTimedOut {
		// The timer fired between header receipt and Stop; the stream
		// context is already cancelled, so the body is unreadable.
		_ = resp.Body.Close()
		cancel()
		return nil, target, Outcome{Err: &TimeoutError{URL: target, Timeout: timeout, Err: context.Cause(attemptCtx)}}
	}

	envelope := &ResponseEnvelope{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
	}
	gzipped := strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip")

	if spec.stream {
		stream, err := newBodyStream(resp.Body, gzipped, cancel)
		if err != nil {
			return nil, target, Outcome{Err: classifyError(err, target, timeout)}
		}
		envelope.stream = stream
		return envelope, target, Outcome{StatusCode: resp.StatusCode, Header: resp.Header}
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	cancel()
	if err != nil {
		return nil, target, Outcome{Err: classifyError(err, target, timeout)}
	}

	envelope.Body = body
	return envelope, target, Outcome{StatusCode: resp.StatusCode, Header: resp.Header}
}

// flattenHeaders converts an http.Header to a first-value map.
func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) > 0 {
			flat[key] = values[0]
		}
	}
	return flat
}
