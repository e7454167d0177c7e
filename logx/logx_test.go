package logx

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Level
	}{
		{"debug", "debug", LevelDebug},
		{"info", "info", LevelInfo},
		{"warn", "warn", LevelWarn},
		{"warning alias", "warning", LevelWarn},
		{"error", "error", LevelError},
		{"mixed case", "DeBuG", LevelDebug},
		{"padded", "  error  ", LevelError},
		{"unknown falls back to info", "verbose", LevelInfo},
		{"empty falls back to info", "", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
}

func TestDefaultLoggerLevelFiltering(t *testing.T) {
	l := NewLogger(LevelWarn)

	assert.False(t, l.enabled(LevelDebug))
	assert.False(t, l.enabled(LevelInfo))
	assert.True(t, l.enabled(LevelWarn))
	assert.True(t, l.enabled(LevelError))

	l.SetLevel(LevelDebug)
	assert.True(t, l.enabled(LevelDebug))
}

func TestStandardLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewStandardLoggerAdapter(log.New(&buf, "", 0))

	adapter.Info("hello %s", "world")
	assert.Equal(t, "INFO: hello world\n", buf.String())

	buf.Reset()
	adapter.Error("boom")
	assert.Equal(t, "ERROR: boom\n", buf.String())
}

func TestStandardLoggerAdapterNilLogger(t *testing.T) {
	adapter := NewStandardLoggerAdapter(nil)
	assert.NotNil(t, adapter)
	// Writes to stderr; just make sure it does not panic.
	adapter.Debug("nil logger still works")
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Debug("ignored")
	l.Info("ignored")
	l.Warn("ignored")
	l.Error("ignored")
}
