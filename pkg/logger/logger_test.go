package logger

import (
	"testing"

	"github.com/go-logr/zapr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zapr.NewLogger(zap.New(core)), "test")
	defer SetLogger(New("error"), "gstc")

	Debugw("debug message", "key", "value")
	Infow("info message")
	Errorw("error message", errors.New("boom"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, "value", entries[0].ContextMap()["key"])
	require.Equal(t, zapcore.InfoLevel, entries[1].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	require.Equal(t, "boom", entries[2].ContextMap()["error"])
	require.Equal(t, "test", entries[2].LoggerName)
}

func TestNewLevel(t *testing.T) {
	// level names are case-insensitive
	require.True(t, New("DEBUG").V(1).Enabled())
	require.False(t, New("info").V(1).Enabled())
	require.True(t, New("").Enabled())
}
