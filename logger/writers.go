package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newConsoleWriter creates a stderr writer for the given format.
func newConsoleWriter(format LogFormat) io.Writer {
	switch format {
	case FormatJSON:
		return os.Stderr
	case FormatText:
		return zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, TimeFormat: time.RFC3339}
	default:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
}

// newFileWriter creates a rotating file writer. Console formats are written
// to files without color codes.
func newFileWriter(path string, maxSizeMB, backups int, format LogFormat) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: backups,
		LocalTime:  true,
	}

	if format == FormatConsole || format == FormatText {
		return zerolog.ConsoleWriter{Out: rotating, NoColor: true, TimeFormat: time.RFC3339}, nil
	}
	return rotating, nil
}
