package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSettings(t *testing.T) {
	s, err := LoadSettings(writeSettings(t, "level: debug\nprogress: true\n"))
	require.NoError(t, err)
	assert.Equal(t, Settings{Level: "debug", Progress: true, Mode: "development"}, s)

	_, err = LoadSettings(writeSettings(t, "level: chatty\n"))
	assert.True(t, errors.Is(err, ErrSettingsInvalid))

	_, err = LoadSettings(writeSettings(t, "level: [\n"))
	assert.True(t, errors.Is(err, ErrSettingsInvalid))

	s, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestConfigureSwapsSettings(t *testing.T) {
	prev := Current()
	t.Cleanup(func() { Configure(prev) })

	Configure(Settings{Level: "error", Progress: true, Mode: "production"})
	assert.True(t, ProgressEnabled())
	assert.Equal(t, "production", Current().Mode)
	require.NotNil(t, L())

	Configure(Settings{Level: "bogus"})
	assert.False(t, ProgressEnabled())
	assert.NotNil(t, L())
}

func TestLoggerWritesKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithZap(zap.New(core)).With("artifact", "i_inv.txt")
	l.Debug("parsed", "rows", 3)
	l.Info("written")
	l.Warn("odd")
	l.Error("failed", "error", "boom")
	l.Sync()

	require.Equal(t, 4, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "parsed", first.Message)
	assert.Equal(t, map[string]any{"artifact": "i_inv.txt", "rows": int64(3)}, first.ContextMap())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[3].Level)

	Nop().Info("dropped")
}
