package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutputFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.WarnLevel)
	t.Cleanup(func() { log = zerolog.Nop() })

	Info().Msg("hidden")
	Warn().Str("repo", "group/app").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"repo":"group/app"`)
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.DebugLevel)
	t.Cleanup(func() { log = zerolog.Nop() })

	l := WithField("invocation", "abc")
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"invocation":"abc"`)
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cibulb.log")
	require.NoError(t, Init("debug", path))
	t.Cleanup(func() { log = zerolog.Nop() })

	Debug().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init("loud", ""))
}
