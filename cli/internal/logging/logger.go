// Package logging provides the CLI's structured diagnostic logger: a logr
// front end over a zap console core writing to stderr.
package logging

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"autocommit/cli/internal/erruser"
)

// Logger provides a thin wrapper around logr.Logger with convenience helpers.
// Warn goes through zap directly since logr has no warning level.
type Logger struct {
	log   logr.Logger
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

// New returns a Logger writing console-encoded lines to w at or above level
// (debug, info, warn, error).
func New(w io.Writer, level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return Logger{}, erruser.Configuration("Invalid log_level; use debug, info, warn, or error.", err)
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return fromZap(zap.New(core)), nil
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return fromZap(zap.NewNop())
}

func fromZap(z *zap.Logger) Logger {
	return Logger{log: zapr.NewLogger(z), sugar: z.Sugar(), base: z}
}

// WithValues returns a new Logger with additional key-value pairs attached.
func (l Logger) WithValues(keysAndValues ...any) Logger {
	l = l.orNop()
	return Logger{log: l.log.WithValues(keysAndValues...), sugar: l.sugar.With(keysAndValues...), base: l.base}
}

// WithName scopes the logger with the supplied name.
func (l Logger) WithName(name string) Logger {
	l = l.orNop()
	return Logger{log: l.log.WithName(name), sugar: l.sugar.Named(name), base: l.base}
}

// Info logs an informational message.
func (l Logger) Info(msg string, keysAndValues ...any) {
	l = l.orNop()
	l.log.Info(msg, keysAndValues...)
}

// Debug logs a verbose message when V(1) is enabled on the underlying logger.
func (l Logger) Debug(msg string, keysAndValues ...any) {
	l = l.orNop()
	if l.log.V(1).Enabled() {
		l.log.V(1).Info(msg, keysAndValues...)
	}
}

// Warn logs a warning.
func (l Logger) Warn(msg string, keysAndValues ...any) {
	l = l.orNop()
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs an error message.
func (l Logger) Error(err error, msg string, keysAndValues ...any) {
	l = l.orNop()
	l.log.Error(err, msg, keysAndValues...)
}

// Logr exposes the underlying logr.Logger.
func (l Logger) Logr() logr.Logger {
	return l.orNop().log
}

// Sync flushes buffered entries.
func (l Logger) Sync() {
	if l.base != nil {
		_ = l.base.Sync()
	}
}

// orNop makes the zero Logger usable.
func (l Logger) orNop() Logger {
	if l.sugar == nil {
		return Nop()
	}
	return l
}
