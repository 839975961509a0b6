package util

import (
	"bytes"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger("DEBUG").GetLevel())
	assert.Equal(t, zerolog.WarnLevel, NewLogger("warn").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("bogus").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("").GetLevel())
}

func TestNewLoggerToWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "info")
	log.Debug().Msg("hidden")
	log.Info().Str("ticker", "7203.T").Msg("scanned")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"ticker":"7203.T"`)
	assert.Contains(t, out, `"time":`)
}

func TestNewLoggerWritesToStderr(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer f.Close()

	orig := os.Stderr
	os.Stderr = f
	t.Cleanup(func() { os.Stderr = orig })

	logger := NewLogger("info")
	logger.Info().Msg("scan started")

	out, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Contains(t, string(out), "scan started")
}
