package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger.With("module", "push").Info(context.Background(), "push committed", "user_id", "u1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "push committed", record["msg"])
	require.Equal(t, "push", record["module"])
	require.Equal(t, "u1", record["user_id"])
	require.Equal(t, "INFO", record["level"])
}

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()

	logger.Debug(ctx, "d")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e")

	out := buf.String()
	require.Contains(t, out, `"DEBUG"`)
	require.Contains(t, out, `"WARN"`)
	require.Contains(t, out, `"ERROR"`)
}
