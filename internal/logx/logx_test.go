package logx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelFromFlags(true, false, false))
	assert.Equal(t, slog.LevelInfo, LevelFromFlags(false, true, true))
	assert.Equal(t, slog.LevelError, LevelFromFlags(false, false, true))
	assert.Equal(t, slog.LevelWarn, LevelFromFlags(false, false, false))
}

func TestHandlerFormatsRecords(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, slog.LevelInfo))

	l.Debug("hidden")
	l.With("device", 0).WithGroup("pose").Info("marker found", "dist", 0.5, "note", "two words")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "marker found device=0 pose.dist=0.5")
	assert.Contains(t, out, `pose.note="two words"`)
}

func TestHandlerGroupAttr(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, slog.LevelDebug))

	l.Warn("frame", slog.Group("size", "w", 640, "h", 480))
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "size.w=640 size.h=480")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel("WARN")
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
