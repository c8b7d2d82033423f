package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestWithComponentTagsGlobalLogger(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	logger := WithComponent("cli")
	logger.Info().Msg("ready")

	assert.Contains(t, buf.String(), `"component":"cli"`)
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)
	logger.Info().Str("component", "test").Msg("hello")

	assert.Contains(t, a.String(), `"message":"hello"`)
	assert.Equal(t, a.String(), b.String())
}
