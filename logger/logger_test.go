package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcjbispo/fbgoutils-ai/config"
)

func TestNewFromConfig(t *testing.T) {
	log, err := New(config.LogConfig{LogLevel: "debug", LogFormat: "json"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestBuilderDefaults(t *testing.T) {
	log, err := NewBuilder().Build()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestBuilderWithLevel(t *testing.T) {
	log, err := NewBuilder().WithLevel(zerolog.ErrorLevel).Build()
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, log.GetLevel())
}

func TestBuilderFileWriter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := NewBuilder().
		WithConfig(config.LogConfig{LogLevel: "info", LogFormat: "json", LogFile: logFile}).
		WithComponent("test").
		Build()
	require.NoError(t, err)

	log.Info().Str("key", "value").Msg("file writer smoke test")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), "file writer smoke test")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, parseFormat("json"))
	assert.Equal(t, FormatText, parseFormat("text"))
	assert.Equal(t, FormatConsole, parseFormat("console"))
	assert.Equal(t, FormatConsole, parseFormat(""))
}
