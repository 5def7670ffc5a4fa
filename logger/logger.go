package logger

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fcjbispo/fbgoutils-ai/config"
)

// LogFormat identifies the output format for log records.
type LogFormat string

const (
	FormatJSON    LogFormat = "json"
	FormatConsole LogFormat = "console"
	FormatText    LogFormat = "text"
)

// New creates a zerolog logger from file-level log configuration.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewBuilder().WithConfig(cfg).Build()
}

// Builder provides a fluent interface for constructing loggers.
type Builder struct {
	level     zerolog.Level
	format    LogFormat
	filePath  string
	maxSizeMB int
	backups   int
	component string
}

// NewBuilder creates a logger builder with default settings.
func NewBuilder() *Builder {
	return &Builder{
		level:     zerolog.InfoLevel,
		format:    FormatConsole,
		maxSizeMB: 100,
		backups:   3,
	}
}

// WithConfig applies file-level log configuration.
func (b *Builder) WithConfig(cfg config.LogConfig) *Builder {
	b.level = parseLevel(cfg.LogLevel)
	b.format = parseFormat(cfg.LogFormat)
	b.filePath = cfg.LogFile
	if cfg.MaxLogSizeMB > 0 {
		b.maxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		b.backups = cfg.MaxLogBackups
	}
	return b
}

// WithLevel sets the minimum log level.
func (b *Builder) WithLevel(level zerolog.Level) *Builder {
	b.level = level
	return b
}

// WithComponent tags every record with a component name.
func (b *Builder) WithComponent(component string) *Builder {
	b.component = component
	return b
}

// Build creates the logger instance.
func (b *Builder) Build() (zerolog.Logger, error) {
	writers := []io.Writer{newConsoleWriter(b.format)}

	if b.filePath != "" {
		fileWriter, err := newFileWriter(b.filePath, b.maxSizeMB, b.backups, b.format)
		if err != nil {
			return zerolog.Logger{}, err
		}
		writers = append(writers, fileWriter)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(b.level).
		With().
		Timestamp().
		Logger()

	if b.component != "" {
		logger = logger.With().Str("component", b.component).Logger()
	}

	return logger, nil
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

func parseFormat(format string) LogFormat {
	switch strings.ToLower(format) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}
