package gramstore

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

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		out = append(out, line)
	}
	return out
}

func TestLogger_LogTrain(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.LogTrain(context.Background(), TrainResult{Status: TrainStopped, Passes: 1, Positions: 7}, []TierStats{
		{Order: 2, ColdSize: 3, ColdCapacity: 8},
		{Order: 3, ColdSize: 2, ColdCapacity: 8},
	}, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "Training completed", lines[0]["msg"])
	assert.Equal(t, "stopped", lines[0]["status"])
	assert.EqualValues(t, 7, lines[0]["positions"])

	assert.Equal(t, "Tier topology", lines[1]["msg"])
	assert.EqualValues(t, 2, lines[1]["order"])
	assert.EqualValues(t, 3, lines[1]["coldSize"])
	assert.EqualValues(t, 3, lines[2]["order"])
}

func TestLogger_Failures(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, nil))

	l.LogTrain(context.Background(), TrainResult{}, nil, errors.New("boom"))
	l.LogGenerate(context.Background(), 0, StatusStopped, ErrBusy)
	l.LogGenerate(context.Background(), 4, StatusCompleted, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2, "successful generations log at debug level")
	assert.Equal(t, "Training failed", lines[0]["msg"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "Generation failed", lines[1]["msg"])
}

func TestLogger_Levels(t *testing.T) {
	ctx := context.Background()

	l := NewJSONLogger(slog.LevelWarn)
	assert.False(t, l.Enabled(ctx, slog.LevelInfo))
	assert.True(t, l.Enabled(ctx, slog.LevelWarn))

	l = NewTextLogger(slog.LevelDebug)
	assert.True(t, l.Enabled(ctx, slog.LevelDebug))
}
