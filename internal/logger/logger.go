// Package logger provides the process-wide structured logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger = newSugared(false)
)

// Initialize configures the process logger. When debug is true it uses a
// human-readable console encoder at debug level, otherwise JSON at info level.
func Initialize(debug bool) {
	mu.Lock()
	defer mu.Unlock()
	log = newSugared(debug)
}

func newSugared(debug bool) *zap.SugaredLogger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	// Logs go to stderr so stdout stays clean for commands that emit data
	// (e.g. version --format json).
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap's stock configs only fail on bad output paths; fall back to a
		// no-op logger rather than panicking during bootstrap.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = log.Sync()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { current().Debugf(format, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { current().Infof(format, args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { current().Warnf(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { current().Errorf(format, args...) }

// Info logs a message at info level.
func Info(args ...any) { current().Info(args...) }

// Warn logs a message at warn level.
func Warn(args ...any) { current().Warn(args...) }

// Error logs a message at error level.
func Error(args ...any) { current().Error(args...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { current().Fatalf(format, args...) }
