package httpclient

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AsyncClient is the context-aware transport. It shares the retry loop with
// Client but suspends at every wait point, so many concurrent Do calls can
// be in flight over one session and a cancelled context aborts the call
// without leaking a pooled connection.
type AsyncClient struct {
	session *Session
	policy  RetryPolicy
	logger  zerolog.Logger
}

// NewAsyncClient creates an asynchronous client over the given session.
func NewAsyncClient(session *Session, policy RetryPolicy, logger zerolog.Logger) (*AsyncClient, error) {
	if session == nil {
		return nil, NewConfigError("session", nil, "session is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &AsyncClient{
		session: session,
		policy:  policy,
		logger:  logger.With().Str("component", "AsyncTransport").Logger(),
	}, nil
}

// Do executes the spec with the same contract as Client.Do, except that
// backoff delays and in-flight I/O are interruptible: if ctx is cancelled
// the attempt is aborted, its connection released, and ctx.Err() returned.
func (c *AsyncClient) Do(ctx context.Context, spec RequestSpec) (*ResponseEnvelope, error) {
	return runRetry(ctx, c.session, c.policy, spec, suspendingSleep, c.logger)
}

func suspendingSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchResult pairs a spec with its terminal outcome in a fan-out batch.
type FetchResult struct {
	Spec     RequestSpec
	Envelope *ResponseEnvelope
	Err      error
}

// FetchAll executes many specs concurrently over the shared session, at
// most limit in flight at once (0 means unbounded). Results are returned in
// spec order; each entry carries its own outcome, so one failing URL does
// not abandon the rest of the batch.
func (c *AsyncClient) FetchAll(ctx context.Context, specs []RequestSpec, limit int) []FetchResult {
	results := make([]FetchResult, len(specs))

	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for i, spec := range specs {
		i, spec := i, spec
		group.Go(func() error {
			envelope, err := c.Do(groupCtx, spec)
			results[i] = FetchResult{Spec: spec, Envelope: envelope, Err: err}
			return nil
		})
	}

	_ = group.Wait()
	return results
}
