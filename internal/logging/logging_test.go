package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONIncludesFieldsAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	l.With(String("component", "test")).Warn(ctx, "upstream failed", Err(errors.New("boom")), Int("status", 502))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "upstream failed", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, "boom", line["error"])
	assert.EqualValues(t, 502, line["status"])
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})
	l.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestEnsureRequestID_KeepsExisting(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	require.NotEmpty(t, id)

	ctx2, id2 := EnsureRequestID(ctx)
	assert.Equal(t, id, id2)
	assert.Equal(t, id, RequestID(ctx2))
	assert.Empty(t, RequestID(context.Background()))
}
