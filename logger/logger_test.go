package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter(buf, Config{Level: "debug", Format: FormatJSON})
	require.NoError(t, err)

	log.Debug().Int("day", 3).Msg("day advanced")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "day advanced", rec["message"])
	assert.Equal(t, float64(3), rec["day"])
	assert.Equal(t, "debug", rec["level"])
}

func TestLevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter(buf, Config{Level: "WARN", Format: FormatJSON})
	require.NoError(t, err)

	log.Info().Msg("quiet")
	assert.Zero(t, buf.Len())
	log.Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter(buf, Config{})
	require.NoError(t, err)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestBadConfig(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, Config{Level: "chatty"})
	assert.Error(t, err)
	_, err = NewWithWriter(&bytes.Buffer{}, Config{Format: "xml"})
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter(buf, Config{Format: FormatJSON})
	require.NoError(t, err)

	ctx := WithContext(context.Background(), log)
	l := FromContext(ctx)
	l.Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	// No logger in context: disabled, never nil.
	dropped := FromContext(context.Background())
	dropped.Info().Msg("dropped")
}
