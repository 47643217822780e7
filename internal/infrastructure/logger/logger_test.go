package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config uses defaults", nil},
		{"console", DefaultConfig()},
		{"json to stderr", &Config{Level: "debug", Format: "json", Output: "stderr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("checkout completed")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"checkout completed"`)
}

func TestNew_FileOutputCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "app.log")
	l, err := New(&Config{Format: "json", Output: path, MaxSizeMB: 1})
	require.NoError(t, err)

	l.Warn("payment declined")
	require.NoError(t, l.Sync())
	assert.FileExists(t, path)
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(&Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_TeesExtraCores(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l, err := New(&Config{Level: "info", Format: "json", Output: "stderr"}, core)
	require.NoError(t, err)

	l.Info("order placed", zap.String("order_id", "o-1"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "o-1", logs.All()[0].ContextMap()["order_id"])
}

func TestNewForEnvironment(t *testing.T) {
	l, err := NewForEnvironment("production", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
