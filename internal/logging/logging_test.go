package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"":      log.WarnLevel,
		"debug": log.DebugLevel,
		"INFO":  log.InfoLevel,
		"warn":  log.WarnLevel,
		"error": log.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestParseFormatter(t *testing.T) {
	f, err := ParseFormatter("json")
	require.NoError(t, err)
	assert.Equal(t, log.JSONFormatter, f)

	_, err = ParseFormatter("xml")
	assert.Error(t, err)
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, Options{Level: "info", Format: "json", Prefix: "tada"})
	require.NoError(t, err)

	l.Info("saved todos", "count", 2)
	l.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "saved todos", entry["msg"])
	assert.EqualValues(t, 2, entry["count"])
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "nope"})
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, Options{Format: "nope"})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	assert.Equal(t, log.FatalLevel, l.GetLevel())
}
