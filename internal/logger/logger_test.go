package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer and restores the
// previous settings when the test ends.
func captureOutput(t *testing.T, format string) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.RLock()
	origOutput, origColor := output, useColor
	mu.RUnlock()
	origLevel := GetLevel()
	origFormat, _ := currentFormat.Load().(string)

	InitWithWriter(buf, "DEBUG", format, false)

	t.Cleanup(func() {
		mu.Lock()
		output, useColor = origOutput, origColor
		mu.Unlock()
		currentLevel.Store(int32(origLevel))
		currentFormat.Store(origFormat)
		reconfigure()
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf := captureOutput(t, "text")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		for _, want := range []string{"[DEBUG] debug message", "[INFO] info message", "[WARN] warn message", "[ERROR] error message"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("ErrorLevelFiltersEverythingElse", func(t *testing.T) {
		buf := captureOutput(t, "text")
		SetLevel("error")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "info message")
		assert.NotContains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("InvalidLevelIsIgnored", func(t *testing.T) {
		captureOutput(t, "text")
		SetLevel("WARN")
		SetLevel("verbose")
		assert.Equal(t, LevelWarn, GetLevel())
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" INFO ", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"trace", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestTextFormat(t *testing.T) {
	t.Run("QuotesValuesWithSpaces", func(t *testing.T) {
		buf := captureOutput(t, "text")

		Info("Server running", "port", 3000, "url", "http://localhost:3000/health", "note", "two words")

		line := buf.String()
		assert.Contains(t, line, "[INFO] Server running")
		assert.Contains(t, line, " port=3000")
		assert.Contains(t, line, " url=http://localhost:3000/health")
		assert.Contains(t, line, ` note="two words"`)
		assert.True(t, strings.HasSuffix(line, "\n"))
	})

	t.Run("GroupsPrefixKeys", func(t *testing.T) {
		buf := captureOutput(t, "text")

		With("component", "store").WithGroup("db").Info("connected", "type", "sqlite")

		line := buf.String()
		assert.Contains(t, line, " component=store")
		assert.Contains(t, line, " db.type=sqlite")
	})

	t.Run("ErrorsRenderMessage", func(t *testing.T) {
		buf := captureOutput(t, "text")

		Error("Unable to start server", KeyError, errors.New("connection refused"))

		assert.Contains(t, buf.String(), `error="connection refused"`)
	})
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t, "json")

	Info("Database connected successfully", KeyStoreType, "sqlite")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "Database connected successfully", entry["msg"])
	assert.Equal(t, "sqlite", entry[KeyStoreType])
}

func TestContextFields(t *testing.T) {
	buf := captureOutput(t, "json")

	lc := NewLogContext("req-1", "GET", "/health", "10.0.0.1").WithTrace("trace-abc", "span-def")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "request completed", KeyStatus, 200)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry[KeyRequestID])
	assert.Equal(t, "trace-abc", entry[KeyTraceID])
	assert.Equal(t, "span-def", entry[KeySpanID])
	assert.Equal(t, "GET", entry[KeyMethod])
	assert.Equal(t, "10.0.0.1", entry[KeyClientIP])
	assert.EqualValues(t, 200, entry[KeyStatus])
}

func TestFromContext_Missing(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Nil(t, FromContext(nil))
}

func TestLogContext_CloneIsIndependent(t *testing.T) {
	lc := NewLogContext("req-1", "GET", "/", "127.0.0.1")
	traced := lc.WithTrace("t", "s")

	assert.Empty(t, lc.TraceID)
	assert.Equal(t, "t", traced.TraceID)
	assert.GreaterOrEqual(t, lc.DurationMs(), 0.0)

	var nilCtx *LogContext
	assert.Nil(t, nilCtx.Clone())
	assert.Zero(t, nilCtx.DurationMs())
}

func TestInit_FileOutput(t *testing.T) {
	captureOutput(t, "text")
	path := filepath.Join(t.TempDir(), "dittoapi.log")

	require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))
	Info("written to file")
	require.NoError(t, Init(Config{Output: "stderr"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestInit_BadFilePath(t *testing.T) {
	err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.Error(t, err)
}
