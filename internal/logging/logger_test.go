package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(level)
	logger.SetOutput(log.New(&buf, "", 0))
	return logger, &buf
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug allowed at debug", LevelDebug, LevelDebug, true},
		{"info allowed at debug", LevelDebug, LevelInfo, true},
		{"debug blocked at info", LevelInfo, LevelDebug, false},
		{"warn allowed at info", LevelInfo, LevelWarn, true},
		{"info blocked at warn", LevelWarn, LevelInfo, false},
		{"error allowed at warn", LevelWarn, LevelError, true},
		{"warn blocked at error", LevelError, LevelWarn, false},
		{"error allowed at error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(tt.minLevel)

			switch tt.logLevel {
			case LevelDebug:
				logger.Debug("tick")
			case LevelInfo:
				logger.Info("tick")
			case LevelWarn:
				logger.Warn("tick")
			case LevelError:
				logger.Error("tick")
			}

			if tt.shouldLog {
				assert.Contains(t, buf.String(), "tick")
				assert.True(t, strings.HasPrefix(buf.String(), tt.logLevel.String()+":"))
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLoggerFieldOrder(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	child := logger.With("instance", "a1").With("server", "http://h:1")
	child.Warn("push failed", "error", errors.New("timeout"), "bytes", 12)

	assert.Equal(t,
		`WARN: push failed | instance=a1 server=http://h:1 error="timeout" bytes=12`+"\n",
		buf.String())
}

func TestLoggerInlineOverridesContext(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.With("direction", "local").Info("accepted", "direction", "remote")

	assert.Contains(t, buf.String(), "direction=remote")
	assert.NotContains(t, buf.String(), "direction=local")
}

func TestLoggerWithFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.WithFields("a", 1, "b", "two", 3, "ignored").Error("failed")

	assert.Equal(t, "ERROR: failed | a=1 b=two\n", buf.String())
}

func TestWithLeavesParentUnmodified(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	_ = logger.With("instance", "a1")
	logger.Info("parent")

	assert.NotContains(t, buf.String(), "instance=")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.Error("dropped", "k", "v")
		logger.With("k", "v").Warn("dropped")
	})
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"simple string", "hello", "hello"},
		{"empty string", "", `""`},
		{"string with spaces", "hello world", `"hello world"`},
		{"string with newline", "hello\nworld", `"hello\nworld"`},
		{"integer", 42, "42"},
		{"error", errors.New("oops"), `"oops"`},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatValue(tt.input))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"Error", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(log.New(&buf, "", 0))
	SetLevel(LevelWarn)
	defer SetLevel(LevelWarn)

	Debug("debug message")
	Info("info message")
	assert.Empty(t, buf.String())

	Warn("warn message")
	assert.Contains(t, buf.String(), "WARN: warn message")

	buf.Reset()
	With("component", "engine").Error("error message")
	assert.Contains(t, buf.String(), "component=engine")
	assert.Same(t, defaultLogger, Default())
}
