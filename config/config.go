package config

// Config is the root configuration for the HTTP execution core, loaded from
// a YAML or JSON file.
type Config struct {
	ClientConfig ClientConfig `json:"client_config" yaml:"client_config"`
	RetryConfig  RetryConfig  `json:"retry_config" yaml:"retry_config"`
	LogConfig    LogConfig    `json:"log_config" yaml:"log_config"`
}

// NewDefaultConfig creates the default root configuration.
func NewDefaultConfig() Config {
	return Config{
		ClientConfig: NewDefaultClientConfig(),
		RetryConfig:  NewDefaultRetryConfig(),
		LogConfig:    NewDefaultLogConfig(),
	}
}

// ClientConfig defines session-level configuration for HTTP clients.
type ClientConfig struct {
	// Base URL applied to relative request targets. Must include protocol.
	BaseURL string `json:"base_url" yaml:"base_url" validate:"required,baseurl"`
	// Default headers applied to every request
	DefaultHeaders map[string]string `json:"default_headers,omitempty" yaml:"default_headers,omitempty"`
	// Authentication scheme: none, basic, or bearer
	AuthType string `json:"auth_type,omitempty" yaml:"auth_type,omitempty" validate:"omitempty,oneof=none basic bearer"`
	// Username for basic auth
	AuthUsername string `json:"auth_username,omitempty" yaml:"auth_username,omitempty"`
	// Password for basic auth
	AuthPassword string `json:"auth_password,omitempty" yaml:"auth_password,omitempty"`
	// Token for bearer auth
	AuthToken string `json:"auth_token,omitempty" yaml:"auth_token,omitempty"`
	// Skip TLS certificate verification (self-hosted/self-signed upstreams)
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	// User-Agent header
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	// Default per-attempt timeout in milliseconds
	DefaultTimeoutMs int `json:"default_timeout_ms,omitempty" yaml:"default_timeout_ms,omitempty" validate:"omitempty,min=1"`
	// Maximum idle connections
	MaxIdleConns int `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	// Maximum idle connections per host
	MaxIdleConnsPerHost int `json:"max_idle_conns_per_host,omitempty" yaml:"max_idle_conns_per_host,omitempty"`
	// Maximum connections per host (0 = no limit)
	MaxConnsPerHost int `json:"max_conns_per_host,omitempty" yaml:"max_conns_per_host,omitempty"`
	// Enable HTTP/2 support
	EnableHTTP2 bool `json:"enable_http2" yaml:"enable_http2"`
	// Session-wide rate limit in requests per second (0 = unlimited)
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" validate:"omitempty,min=0"`
}

// NewDefaultClientConfig creates default client configuration.
func NewDefaultClientConfig() ClientConfig {
	return ClientConfig{
		AuthType:            "none",
		InsecureSkipVerify:  false,
		UserAgent:           "fbgoutils-ai/1.0",
		DefaultTimeoutMs:    30000,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		EnableHTTP2:         true,
	}
}

// RetryConfig defines configuration for HTTP request retries.
type RetryConfig struct {
	// Total number of tries including the initial one; 1 disables retries
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"omitempty,min=1,max=10"`
	// Base delay in milliseconds for exponential backoff
	BaseDelayMs int `json:"base_delay_ms,omitempty" yaml:"base_delay_ms,omitempty" validate:"omitempty,min=1"`
	// Exponential backoff multiplier
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty" validate:"omitempty,min=1"`
	// Maximum delay in milliseconds for exponential backoff
	MaxDelayMs int `json:"max_delay_ms,omitempty" yaml:"max_delay_ms,omitempty" validate:"omitempty,min=1"`
	// Enable jitter to randomize delays slightly
	EnableJitter bool `json:"enable_jitter" yaml:"enable_jitter"`
}

// NewDefaultRetryConfig creates default retry configuration.
func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		BaseDelayMs:  500,
		Multiplier:   2.0,
		MaxDelayMs:   30000,
		EnableJitter: true,
	}
}

// LogConfig defines configuration for logging.
type LogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty"`
}

// NewDefaultLogConfig creates default log configuration.
func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFormat:     "console",
		LogLevel:      "info",
		MaxLogBackups: 3,
		MaxLogSizeMB:  100,
	}
}
