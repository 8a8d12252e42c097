package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)

	l.With("analyzer").Info("analysis done",
		String("ticker", "TSLA"),
		Int("confidence", 78),
		Duration("took", 1500*time.Millisecond),
		Strings("reasons", []string{"a", "b"}),
		Error(errors.New("fallback")),
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "analysis done", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "analyzer", line["component"])
	assert.Equal(t, "TSLA", line["ticker"])
	assert.EqualValues(t, 78, line["confidence"])
	assert.EqualValues(t, 1500, line["took"])
	assert.Equal(t, []any{"a", "b"}, line["reasons"])
	assert.Equal(t, "fallback", line["error"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.ErrorContains(t, err, `log level "loud"`)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() { Nop().With("x").Error("nothing", String("k", "v")) })
}
