package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// ErrStreamConsumed is returned when a streaming response body is read again
// after it has already been fully consumed or closed.
var ErrStreamConsumed = errors.New("response stream already consumed")

// ConfigError represents invalid session, policy, or request configuration.
// It is raised at construction time and never retried.
type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error on field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field string, value interface{}, message string) error {
	return &ConfigError{Field: field, Value: value, Message: message}
}

// ConnectionError represents a network-level failure to establish or
// maintain a connection. Retryable per policy.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error for URL '%s': %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a single attempt exceeding its configured timeout.
// Retryable per policy.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to '%s' timed out after %s: %v", e.URL, e.Timeout, e.Err)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// TLSError represents a certificate or TLS verification failure. Never
// retried, regardless of policy, since retrying cannot fix a cert problem
// and would only mask the misconfiguration.
type TLSError struct {
	URL string
	Err error
}

func (e *TLSError) Error() string {
	return fmt.Sprintf("tls error for URL '%s': %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TLSError) Unwrap() error {
	return e.Err
}

// RequestFailedError is returned when all retry attempts are exhausted. It
// wraps the last underlying failure plus the attempt count for diagnostics.
type RequestFailedError struct {
	URL        string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to '%s' failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("request to '%s' failed after %d attempts: last status %d", e.URL, e.Attempts, e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// classifyError maps a raw transport error into the typed failure taxonomy.
// Context cancellation is passed through untouched so callers can observe it
// with errors.Is.
func classifyError(err error, rawURL string, timeout time.Duration) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}

	if isTLSError(err) {
		return &TLSError{URL: rawURL, Err: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{URL: rawURL, Timeout: timeout, Err: err}
	}

	return &ConnectionError{URL: rawURL, Err: err}
}

func isTLSError(err error) bool {
	var (
		certVerify   *tls.CertificateVerificationError
		unknownAuth  x509.UnknownAuthorityError
		certInvalid  x509.CertificateInvalidError
		hostnameErr  x509.HostnameError
		recordHeader tls.RecordHeaderError
	)
	return errors.As(err, &certVerify) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &certInvalid) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &recordHeader)
}
