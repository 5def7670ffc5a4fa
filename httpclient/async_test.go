package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncClientSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	client, err := NewAsyncClient(session, testPolicy(3), zerolog.Nop())
	require.NoError(t, err)

	spec, err := Get("/").Build()
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, resp.Attempts)
}

func TestAsyncClientCancelDuringBackoff(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	policy := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    time.Second,
	}
	client, err := NewAsyncClient(session, policy, zerolog.Nop())
	require.NoError(t, err)

	spec, err := Get("/").Build()
	require.NoError(t, err)

	// Cancel while the call is suspended in its first backoff wait.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = client.Do(ctx, spec)
	require.ErrorIs(t, err, context.Canceled)

	// The wait was interrupted and no further attempt was made.
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))

	// Give any stray retry a chance to prove the cancellation leaked.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
}

func TestAsyncClientDeadlineMidRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	client, err := NewAsyncClient(session, testPolicy(3), zerolog.Nop())
	require.NoError(t, err)

	spec, err := Get("/slow").Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = client.Do(ctx, spec)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAsyncClientConcurrentSharedSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	client, err := NewAsyncClient(session, testPolicy(2), zerolog.Nop())
	require.NoError(t, err)

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			spec, err := Get(fmt.Sprintf("/item/%d", i)).Build()
			if err != nil {
				done <- err
				return
			}
			resp, err := client.Do(context.Background(), spec)
			if err == nil && resp.StatusCode != http.StatusOK {
				err = fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			done <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		assert.NoError(t, <-done)
	}
}

func TestAsyncClientFetchAll(t *testing.T) {
	var inFlight, maxInFlight int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&inFlight, 1)
		for {
			observed := atomic.LoadInt32(&maxInFlight)
			if current <= observed || atomic.CompareAndSwapInt32(&maxInFlight, observed, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	client, err := NewAsyncClient(session, testPolicy(2), zerolog.Nop())
	require.NoError(t, err)

	specs := make([]RequestSpec, 8)
	for i := range specs {
		spec, err := Get(fmt.Sprintf("/page/%d", i)).Build()
		require.NoError(t, err)
		specs[i] = spec
	}

	results := client.FetchAll(context.Background(), specs, 3)
	require.Len(t, results, 8)
	for i, result := range results {
		require.NoError(t, result.Err)
		assert.Equal(t, http.StatusOK, result.Envelope.StatusCode)
		assert.Equal(t, specs[i].Target(), result.Spec.Target())
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(3))
}

func TestAsyncClientFetchAllPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	client, err := NewAsyncClient(session, testPolicy(2), zerolog.Nop())
	require.NoError(t, err)

	good, err := Get("/good").Build()
	require.NoError(t, err)
	bad, err := Get("/bad").Build()
	require.NoError(t, err)

	results := client.FetchAll(context.Background(), []RequestSpec{good, bad, good}, 2)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[2].Err)

	var failure *RequestFailedError
	require.ErrorAs(t, results[1].Err, &failure)
	assert.Equal(t, 2, failure.Attempts)
}
