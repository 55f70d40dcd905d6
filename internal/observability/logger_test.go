package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhitfield/ottarr/internal/config"
)

func jsonCfg(level string) config.LoggingConfig {
	return config.LoggingConfig{Level: level, Format: "json"}
}

func TestNewLoggerWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(jsonCfg("info"), &buf)

	logger.Info("hello", slog.String("key", "value"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestNewLoggerWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Info("hello", slog.String("key", "value"))

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "key=value")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(jsonCfg("warn"), &buf)

	logger.Info("not logged")
	assert.Empty(t, buf.String())

	logger.Warn("logged")
	assert.Contains(t, buf.String(), "logged")
}

func TestPasswordMasking(t *testing.T) {
	type creds struct {
		Username string
		Password string
	}

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(jsonCfg("info"), &buf)

	logger.Info("auth", slog.Any("creds", creds{Username: "alice", Password: "hunter2"}))

	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.NotContains(t, out, "hunter2")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewLoggerWithWriter(jsonCfg("info"), &buf), "sync_engine")

	logger.Info("hi")

	assert.Contains(t, buf.String(), "sync_engine")
}

func TestContextLogger(t *testing.T) {
	logger := NewLoggerWithWriter(jsonCfg("info"), &bytes.Buffer{})
	ctx := ContextWithLogger(context.Background(), logger)

	assert.Same(t, logger, LoggerFromContext(ctx))
	assert.NotNil(t, LoggerFromContext(context.Background()))
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(jsonCfg("info"), &buf)

	done := TimedOperation(context.Background(), logger, "test_op")
	done()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "operation started")
	assert.Contains(t, lines[1], "operation completed")
	assert.Contains(t, lines[1], "duration")
}
