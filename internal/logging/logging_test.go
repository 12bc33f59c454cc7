package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	var console bytes.Buffer

	l, err := New(Config{Level: "debug", File: path, JSON: true}, &console)
	require.NoError(t, err)

	l.Info().Str("instrument", "EUR_USD").Msg("signal emitted")
	require.NoError(t, l.Close())

	assert.Contains(t, console.String(), `"message":"signal emitted"`)
	assert.Contains(t, console.String(), `"instrument":"EUR_USD"`)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "signal emitted")
}

func TestNewFiltersLevel(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	l, err := New(Config{Level: "warn", JSON: true}, &console)
	require.NoError(t, err)

	l.Info().Msg("quiet")
	l.Warn().Msg("loud")
	assert.NotContains(t, console.String(), "quiet")
	assert.Contains(t, console.String(), "loud")
	assert.NoError(t, l.Close())
}

func TestNewRejectsBadLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Level: "chatty"}, &bytes.Buffer{})
	assert.Error(t, err)
}
