package logger

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger = logr.Discard()

// Init replaces the package logger with a zap production logger at the given level.
func Init(level string) {
	SetLogger(New(level), "gstc")
}

func SetLogger(l logr.Logger, name string) {
	defaultLogger = l.WithName(name)
}

func GetLogger() logr.Logger {
	return defaultLogger
}

// New builds a zap-backed logr.Logger. Level names are case-insensitive; an
// unknown or empty level keeps zap's production default (info).
func New(level string) logr.Logger {
	conf := zap.NewProductionConfig()
	if level != "" {
		lvl := zapcore.Level(0)
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err == nil {
			conf.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	l, err := conf.Build()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(l)
}

// logr has no warning level: Debugw logs at V(1), which zapr maps to zap's
// debug level, Infow at info and Errorw at error.
func Debugw(msg string, keysAndValues ...interface{}) {
	defaultLogger.V(1).Info(msg, keysAndValues...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	defaultLogger.Info(msg, keysAndValues...)
}

func Errorw(msg string, err error, keysAndValues ...interface{}) {
	defaultLogger.Error(err, msg, keysAndValues...)
}
