package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("returns logger from context", func(t *testing.T) {
		expected := NewLogger(TestConfig())
		ctx := ContextWithLogger(context.Background(), expected)

		assert.Equal(t, expected, FromContext(ctx))
	})

	t.Run("falls back to default when absent", func(t *testing.T) {
		assert.Equal(t, Default(), FromContext(context.Background()))
	})

	t.Run("falls back to default on nil context", func(t *testing.T) {
		assert.Equal(t, Default(), FromContext(nil))
	})
}

func TestParseLevel(t *testing.T) {
	tt := map[string]struct {
		in       string
		expected LogLevel
	}{
		"debug":        {in: "debug", expected: DebugLevel},
		"upper warn":   {in: "WARN", expected: WarnLevel},
		"padded error": {in: " error ", expected: ErrorLevel},
		"unknown":      {in: "verbose", expected: InfoLevel},
		"empty":        {in: "", expected: InfoLevel},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.in))
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(&Config{Level: InfoLevel, Output: buf, JSON: true})

	l.Debug("hidden")
	l.With("task", "img1").Info("prepared", "marks", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "prepared", entry["msg"])
	assert.Equal(t, "img1", entry["task"])
	assert.EqualValues(t, 2, entry["marks"])
}

func TestDefaultConfig_EnvLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	assert.Equal(t, DebugLevel, DefaultConfig().Level)
}
