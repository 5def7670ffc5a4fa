package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

// Auth applies an authentication scheme to an outgoing request.
type Auth interface {
	apply(req *http.Request)
}

// NoAuth performs no authentication.
type NoAuth struct{}

func (NoAuth) apply(*http.Request) {}

// BasicAuth authenticates with HTTP basic auth.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

// BearerAuth authenticates with a bearer token.
type BearerAuth struct {
	Token string
}

func (a BearerAuth) apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// SessionConfig holds long-lived connection and auth configuration, created
// once per tool instance.
type SessionConfig struct {
	BaseURL           string            // Base URL joined with relative request targets
	DefaultHeaders    map[string]string // Headers applied to every request
	Auth              Auth              // Authentication scheme (default: none)
	VerifyTLS         bool              // Verify server certificates
	UserAgent         string            // User-Agent header
	DefaultTimeout    time.Duration     // Per-attempt timeout unless overridden by the spec
	MaxIdleConns      int               // Maximum idle connections
	MaxIdlePerHost    int               // Maximum idle connections per host
	MaxConnsPerHost   int               // Maximum connections per host (0 = no limit)
	IdleConnTimeout   time.Duration     // Idle connection timeout
	TLSHandshake      time.Duration     // TLS handshake timeout
	DialTimeout       time.Duration     // Connection dial timeout
	KeepAlive         time.Duration     // Keep-alive duration
	EnableHTTP2       bool              // Enable HTTP/2 support
	RequestsPerSecond float64           // Session-wide rate limit (0 = unlimited)
}

// DefaultSessionConfig returns a default session configuration for the
// given base URL.
func DefaultSessionConfig(baseURL string) SessionConfig {
	return SessionConfig{
		BaseURL:         baseURL,
		DefaultHeaders:  make(map[string]string),
		Auth:            NoAuth{},
		VerifyTLS:       true,
		UserAgent:       "fbgoutils-ai/1.0",
		DefaultTimeout:  30 * time.Second,
		MaxIdleConns:    100,
		MaxIdlePerHost:  10,
		IdleConnTimeout: 90 * time.Second,
		TLSHandshake:    10 * time.Second,
		DialTimeout:     30 * time.Second,
		KeepAlive:       30 * time.Second,
		EnableHTTP2:     true,
	}
}

// BasicHeaders returns the browser-style default header set used by the
// tool suite when no caller-specific headers are configured.
func BasicHeaders() map[string]string {
	return map[string]string{
		"User-Agent":   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/81.0.4044.138 Safari/537.36",
		"Content-Type": "application/json",
	}
}

// Session owns the connection pool and auth state shared by all requests
// executed against it. A session is safe for concurrent use; the underlying
// pool is the unit of sharing between in-flight calls.
type Session struct {
	config    SessionConfig
	client    *http.Client
	transport *http.Transport
	base      *url.URL
	limiter   *rate.Limiter
	logger    zerolog.Logger
	closeOnce sync.Once
}

// NewSession validates the configuration and creates a session with its own
// connection pool. The caller owns the session and must Close it when done.
func NewSession(config SessionConfig, logger zerolog.Logger) (*Session, error) {
	if config.BaseURL == "" {
		return nil, NewConfigError("base_url", config.BaseURL, "base URL is required")
	}
	if !strings.HasPrefix(config.BaseURL, "http://") && !strings.HasPrefix(config.BaseURL, "https://") {
		return nil, NewConfigError("base_url", config.BaseURL, "base URL must include protocol (http/https)")
	}

	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, NewConfigError("base_url", config.BaseURL, "malformed base URL: "+err.Error())
	}

	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	if config.Auth == nil {
		config.Auth = NoAuth{}
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdlePerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshake,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !config.VerifyTLS,
		},
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		} else {
			logger.Debug().Msg("HTTP/2 support enabled")
		}
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	logger.Debug().
		Str("base_url", base.String()).
		Dur("default_timeout", config.DefaultTimeout).
		Bool("verify_tls", config.VerifyTLS).
		Float64("requests_per_second", config.RequestsPerSecond).
		Msg("HTTP session created")

	return &Session{
		config:    config,
		client:    &http.Client{Transport: transport},
		transport: transport,
		base:      base,
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// Close releases the session's pooled connections. Safe to call more than
// once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.transport.CloseIdleConnections()
		s.logger.Debug().Str("base_url", s.base.String()).Msg("HTTP session closed")
	})
}

// BaseURL returns the session's base URL.
func (s *Session) BaseURL() string {
	return s.base.String()
}

// resolve joins a request target with the session base URL. Absolute
// targets pass through untouched.
func (s *Session) resolve(target string) (string, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return "", NewConfigError("target", target, "malformed request target: "+err.Error())
	}
	if parsed.IsAbs() {
		return target, nil
	}
	return s.base.String() + "/" + strings.TrimLeft(target, "/"), nil
}

// timeoutFor returns the per-attempt timeout for a spec.
func (s *Session) timeoutFor(spec RequestSpec) time.Duration {
	if spec.timeout > 0 {
		return spec.timeout
	}
	return s.config.DefaultTimeout
}

// materialize turns an immutable spec into a concrete *http.Request bound
// to the given context. Called once per attempt so the body reader is fresh
// on every retry.
func (s *Session) materialize(ctx context.Context, spec RequestSpec) (*http.Request, string, error) {
	target, err := s.resolve(spec.target)
	if err != nil {
		return nil, "", err
	}

	var body io.Reader
	contentType := ""
	switch {
	case spec.jsonBody != nil:
		payload, err := json.Marshal(spec.jsonBody)
		if err != nil {
			return nil, "", NewConfigError("body", spec.jsonBody, "failed to encode JSON body: "+err.Error())
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	case spec.formBody != nil:
		body = strings.NewReader(spec.formBody.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, string(spec.method), target, body)
	if err != nil {
		return nil, "", NewConfigError("target", target, "failed to build request: "+err.Error())
	}

	if len(spec.query) > 0 {
		q := req.URL.Query()
		for key, values := range spec.query {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	// Session defaults first, then request headers override on conflict.
	for key, value := range s.config.DefaultHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range spec.headers {
		req.Header.Set(key, value)
	}

	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.config.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip")
	}

	s.config.Auth.apply(req)

	return req, target, nil
}
