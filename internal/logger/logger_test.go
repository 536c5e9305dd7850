package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutputRejectsUnknownLevel(t *testing.T) {
	err := SetOutput(&bytes.Buffer{}, "chatty")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidLogLevel, errors.CodeOf(err))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetOutput(&buf, "warn"))
	t.Cleanup(func() { _ = SetOutput(&bytes.Buffer{}, "disabled") })

	Info().Msg("hidden")
	assert.Empty(t, buf.String())

	Warn().Str("battery", "B1").Msg("low voltage")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "B1", entry["battery"])
	assert.Equal(t, "low voltage", entry["message"])
}

func TestErrorWithContext(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetOutput(&buf, "debug"))
	t.Cleanup(func() { _ = SetOutput(&bytes.Buffer{}, "disabled") })

	err := errors.New().New(errors.ErrStorageWrite)
	Default().ErrorWithContext(err, "repository", "append").Msg("persist failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "storage_write_failed", entry["error_code"])
	assert.Equal(t, "repository", entry["component"])
	assert.Equal(t, "append", entry["operation"])
}
