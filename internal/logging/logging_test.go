package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig("debug")
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	require.Equal(t, "console", cfg.Encoding)
	require.True(t, cfg.DisableStacktrace)

	cfg, err = NewConfig("WARN")
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, cfg.Level.Level())
}

func TestNewConfig_InvalidLevel(t *testing.T) {
	_, err := NewConfig("loud")
	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid log level "loud"`)
}

func TestNew(t *testing.T) {
	logger, err := New("info")
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
