package diag

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBuffered() (*Context, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l), &buf
}

func TestNilContextIsSilent(t *testing.T) {
	var c *Context
	assert.NotPanics(t, func() {
		c.Tick(0.016)
		c.Once(slog.LevelInfo, "k", "msg")
		assert.Equal(t, 0, c.Every(slog.LevelInfo, "k", 3, "msg"))
		c.Info("x")
		c.Warn("x")
		c.Debug("x")
		c.Reset("k")
	})
	assert.Zero(t, c.FPS())
}

func TestTickReportsAtInterval(t *testing.T) {
	c, buf := newBuffered()
	c.ReportInterval = 1

	for i := 0; i < 3; i++ {
		c.Tick(0.25)
	}
	assert.Zero(t, c.FPS())
	assert.Empty(t, buf.String())

	c.Tick(0.25)
	assert.InDelta(t, 4, c.FPS(), 1e-9)
	assert.Contains(t, buf.String(), "frame rate")
}

func TestOnceAndEvery(t *testing.T) {
	c, buf := newBuffered()

	c.Once(slog.LevelWarn, "empty", "empty frame")
	c.Once(slog.LevelWarn, "empty", "empty frame")
	assert.Equal(t, 1, strings.Count(buf.String(), "empty frame"))

	buf.Reset()
	for i := 0; i < 7; i++ {
		c.Every(slog.LevelInfo, "lost", 3, "marker lost")
	}
	// Occurrences 1, 4 and 7.
	assert.Equal(t, 3, strings.Count(buf.String(), "marker lost"))
	assert.Contains(t, buf.String(), "count=7")

	c.Reset("lost")
	assert.Equal(t, 1, c.Every(slog.LevelInfo, "lost", 3, "marker lost"))
}
