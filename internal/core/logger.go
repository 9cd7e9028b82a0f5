package core

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Lazy-load and ensure a single read
	loggerOnce      sync.Once
	loggerSingleton *Logger
)

type VerboseLevel int

const (
	VerboseOff VerboseLevel = iota
	VerboseInfo
	VerboseDebug
	VerboseTrace
)

func CurrentLogger() *Logger {
	loggerOnce.Do(func() {
		loggerSingleton = NewLogger()
	})
	return loggerSingleton
}

type Logger struct {
	verbose VerboseLevel
	zl      zerolog.Logger
}

// NewLogger creates a logger writing human-friendly output to stderr.
func NewLogger() *Logger {
	return NewLoggerTo(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// NewLoggerTo creates a logger writing to the given writer.
func NewLoggerTo(w io.Writer) *Logger {
	l := &Logger{
		zl: zerolog.New(w).With().Timestamp().Logger(),
	}
	return l.SetVerboseLevel(VerboseOff)
}

// SetVerboseLevel overrides the default verbose level
func (l *Logger) SetVerboseLevel(level VerboseLevel) *Logger {
	l.verbose = level
	switch level {
	case VerboseOff:
		l.zl = l.zl.Level(zerolog.WarnLevel)
	case VerboseInfo:
		l.zl = l.zl.Level(zerolog.InfoLevel)
	case VerboseDebug:
		l.zl = l.zl.Level(zerolog.DebugLevel)
	default:
		l.zl = l.zl.Level(zerolog.TraceLevel)
	}
	return l
}

func (l *Logger) VerboseLevel() VerboseLevel {
	return l.verbose
}

func (l *Logger) Fatal(v ...any) {
	l.zl.Fatal().Msg(fmt.Sprint(v...))
}
func (l *Logger) Fatalf(format string, v ...any) {
	l.zl.Fatal().Msgf(format, v...)
}

func (l *Logger) Error(err error, msg string) {
	l.zl.Error().Err(err).Msg(msg)
}

func (l *Logger) Warn(v ...any) {
	l.zl.Warn().Msg(fmt.Sprint(v...))
}
func (l *Logger) Warnf(format string, v ...any) {
	l.zl.Warn().Msgf(format, v...)
}

func (l *Logger) Info(v ...any) {
	l.zl.Info().Msg(fmt.Sprint(v...))
}
func (l *Logger) Infof(format string, v ...any) {
	l.zl.Info().Msgf(format, v...)
}

func (l *Logger) Debug(v ...any) {
	l.zl.Debug().Msg(fmt.Sprint(v...))
}
func (l *Logger) Debugf(format string, v ...any) {
	l.zl.Debug().Msgf(format, v...)
}

func (l *Logger) Trace(v ...any) {
	l.zl.Trace().Msg(fmt.Sprint(v...))
}
func (l *Logger) Tracef(format string, v ...any) {
	l.zl.Trace().Msgf(format, v...)
}

// Request logs a served HTTP request.
func (l *Logger) Request(method, path string, status int, elapsed time.Duration) {
	l.zl.Info().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("request")
}
