package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		env, level string
		want       slog.Level
	}{
		{"dev", "", slog.LevelDebug},
		{"prod", "", slog.LevelInfo},
		{"dev", "warn", slog.LevelWarn},
		{"prod", "ERROR", slog.LevelError},
	}
	for _, tt := range tests {
		log := newWithWriter(&bytes.Buffer{}, tt.env, tt.level)
		assert.True(t, log.Enabled(context.Background(), tt.want), "%s/%s", tt.env, tt.level)
		if tt.want > slog.LevelDebug {
			assert.False(t, log.Enabled(context.Background(), tt.want-1), "%s/%s", tt.env, tt.level)
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	newWithWriter(&buf, "prod", "").Info("receipt posted", "po_id", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "receipt posted", rec["msg"])
	assert.Equal(t, "po-tracker", rec["service"])
	assert.InDelta(t, 7, rec["po_id"], 0)
}
