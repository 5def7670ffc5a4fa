package httpclient

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Client is the synchronous transport: it executes one blocking request at
// a time per call, including retry sleeps. Cancellation is not supported
// mid-call; a call runs to completion or fails. Safe for concurrent use
// from multiple goroutines sharing the session's pool.
type Client struct {
	session *Session
	policy  RetryPolicy
	logger  zerolog.Logger
}

// NewClient creates a synchronous client over the given session.
func NewClient(session *Session, policy RetryPolicy, logger zerolog.Logger) (*Client, error) {
	if session == nil {
		return nil, NewConfigError("session", nil, "session is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		session: session,
		policy:  policy,
		logger:  logger.With().Str("component", "SyncTransport").Logger(),
	}, nil
}

// Do executes the spec to completion, applying the retry policy. Backoff
// waits are real blocking sleeps. HTTP error statuses outside the retryable
// set are returned as normal envelopes; only transport failures and
// exhausted retries produce an error.
func (c *Client) Do(spec RequestSpec) (*ResponseEnvelope, error) {
	return runRetry(context.Background(), c.session, c.policy, spec, blockingSleep, c.logger)
}

func blockingSleep(_ context.Context, d time.Duration) error {
	time.Sleep(d)
	return nil
}
