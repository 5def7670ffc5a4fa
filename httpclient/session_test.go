package httpclient

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionValidation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid https", baseURL: "https://api.example.com", wantErr: false},
		{name: "valid http", baseURL: "http://localhost:8080", wantErr: false},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "missing protocol", baseURL: "api.example.com", wantErr: true},
		{name: "wrong protocol", baseURL: "ftp://example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := NewSession(DefaultSessionConfig(tt.baseURL), zerolog.Nop())
			if tt.wantErr {
				require.Error(t, err)
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
			} else {
				require.NoError(t, err)
				session.Close()
			}
		})
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	session, err := NewSession(DefaultSessionConfig("https://api.example.com"), zerolog.Nop())
	require.NoError(t, err)

	session.Close()
	session.Close()
}

func TestSessionResolve(t *testing.T) {
	session, err := NewSession(DefaultSessionConfig("https://api.example.com/v1/"), zerolog.Nop())
	require.NoError(t, err)
	defer session.Close()

	tests := []struct {
		target string
		want   string
	}{
		{target: "models", want: "https://api.example.com/v1/models"},
		{target: "/models", want: "https://api.example.com/v1/models"},
		{target: "https://other.example.com/data", want: "https://other.example.com/data"},
	}

	for _, tt := range tests {
		resolved, err := session.resolve(tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resolved)
	}
}

func TestSessionTimeoutFor(t *testing.T) {
	cfg := DefaultSessionConfig("https://api.example.com")
	cfg.DefaultTimeout = 10 * time.Second
	session, err := NewSession(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer session.Close()

	spec, err := Get("/").Build()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, session.timeoutFor(spec))

	override, err := Get("/").WithTimeout(time.Second).Build()
	require.NoError(t, err)
	assert.Equal(t, time.Second, session.timeoutFor(override))
}

func TestRequestBuilderValidation(t *testing.T) {
	t.Run("unsupported method", func(t *testing.T) {
		_, err := NewRequest(Method("PUT"), "/resource").Build()
		require.Error(t, err)
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("empty target", func(t *testing.T) {
		_, err := Get("").Build()
		require.Error(t, err)
	})

	t.Run("conflicting bodies", func(t *testing.T) {
		_, err := Post("/x").
			WithJSONBody(map[string]string{"a": "b"}).
			WithFormBody(map[string][]string{"c": {"d"}}).
			Build()
		require.Error(t, err)
	})

	t.Run("negative timeout", func(t *testing.T) {
		_, err := Get("/x").WithTimeout(-time.Second).Build()
		require.Error(t, err)
	})
}

func TestRequestSpecImmutable(t *testing.T) {
	builder := Get("/search").WithHeader("X-Key", "one")
	spec, err := builder.Build()
	require.NoError(t, err)

	// Mutating the builder after Build must not affect the built spec.
	builder.WithHeader("X-Key", "two")
	assert.Equal(t, "one", spec.Header("X-Key"))
}

func TestBasicHeaders(t *testing.T) {
	headers := BasicHeaders()
	assert.Contains(t, headers["User-Agent"], "Mozilla/5.0")
	assert.Equal(t, "application/json", headers["Content-Type"])
}
