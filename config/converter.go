package config

import (
	"time"

	"github.com/fcjbispo/fbgoutils-ai/httpclient"
)

// ToSessionConfig converts the file-level client configuration into the
// native session configuration consumed by the transports.
func (c ClientConfig) ToSessionConfig() httpclient.SessionConfig {
	sessionCfg := httpclient.DefaultSessionConfig(c.BaseURL)

	if len(c.DefaultHeaders) > 0 {
		sessionCfg.DefaultHeaders = c.DefaultHeaders
	}
	sessionCfg.VerifyTLS = !c.InsecureSkipVerify
	sessionCfg.EnableHTTP2 = c.EnableHTTP2
	sessionCfg.RequestsPerSecond = c.RequestsPerSecond

	if c.UserAgent != "" {
		sessionCfg.UserAgent = c.UserAgent
	}
	if c.DefaultTimeoutMs > 0 {
		sessionCfg.DefaultTimeout = time.Duration(c.DefaultTimeoutMs) * time.Millisecond
	}
	if c.MaxIdleConns > 0 {
		sessionCfg.MaxIdleConns = c.MaxIdleConns
	}
	if c.MaxIdleConnsPerHost > 0 {
		sessionCfg.MaxIdlePerHost = c.MaxIdleConnsPerHost
	}
	if c.MaxConnsPerHost > 0 {
		sessionCfg.MaxConnsPerHost = c.MaxConnsPerHost
	}

	switch c.AuthType {
	case "basic":
		sessionCfg.Auth = httpclient.BasicAuth{Username: c.AuthUsername, Password: c.AuthPassword}
	case "bearer":
		sessionCfg.Auth = httpclient.BearerAuth{Token: c.AuthToken}
	default:
		sessionCfg.Auth = httpclient.NoAuth{}
	}

	return sessionCfg
}

// ToRetryPolicy converts the file-level retry configuration into the native
// retry policy.
func (c RetryConfig) ToRetryPolicy() httpclient.RetryPolicy {
	policy := httpclient.DefaultRetryPolicy()

	if c.MaxAttempts > 0 {
		policy.MaxAttempts = c.MaxAttempts
	}
	if c.BaseDelayMs > 0 {
		policy.BaseDelay = time.Duration(c.BaseDelayMs) * time.Millisecond
	}
	if c.Multiplier >= 1.0 {
		policy.Multiplier = c.Multiplier
	}
	if c.MaxDelayMs > 0 {
		policy.MaxDelay = time.Duration(c.MaxDelayMs) * time.Millisecond
	}
	policy.Jitter = c.EnableJitter

	return policy
}
