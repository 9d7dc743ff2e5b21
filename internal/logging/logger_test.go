package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("filters below level and drops time", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, false, "warn")
		log.Info("hidden")
		log.Warn("shown", "challenge", "0x01")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "msg=shown challenge=0x01")
		assert.NotContains(t, out, "time=")
	})

	t.Run("debug overrides level", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, true, "error")
		log.Debug("trace")
		assert.Contains(t, buf.String(), "msg=trace")
		assert.Contains(t, buf.String(), "source=")
	})
}
