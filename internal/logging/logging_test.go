package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_Fallback(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestIntoContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	ctx := IntoContext(context.Background(), l)
	got := FromContext(ctx)
	require.Same(t, l, got)

	got.Info("dropped")
	got.Warn("kept", "status", 409)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.EqualValues(t, 409, line["status"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewWithWriter_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")

	l.Info("login", "email", "a@x.com", "password", "hunter2", "refresh_token", "eyJ.x.y")

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "eyJ.x.y")
	assert.Contains(t, out, "a@x.com")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, redacted, line["password"])
}

func TestWith_ExtendsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := IntoContext(context.Background(), NewWithWriter(&buf, "info"))

	ctx = With(ctx, "user_id", "u-1")
	FromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "u-1", line["user_id"])
}
