// Package diag carries the per-run diagnostic state the tracking and
// simulation loops report through: a logger, an FPS meter fed with the
// caller's frame times, and throttles for messages that would otherwise
// repeat every frame.
//
// A Context is owned by the caller and passed into each update; the core
// packages keep no process-wide counters. A nil *Context is valid and
// discards everything.
package diag

import (
	"context"
	"log/slog"
)

// DefaultReportInterval is the FPS report period in seconds of frame time.
const DefaultReportInterval = 5.0

// Context is not safe for concurrent use.
type Context struct {
	Logger *slog.Logger

	// ReportInterval is the accumulated frame time between FPS reports.
	ReportInterval float64

	elapsed float64
	frames  int
	fps     float64
	once    map[string]bool
	counts  map[string]int
}

// New returns a Context logging to l (slog.Default when nil).
func New(l *slog.Logger) *Context {
	if l == nil {
		l = slog.Default()
	}
	return &Context{
		Logger:         l,
		ReportInterval: DefaultReportInterval,
		once:           make(map[string]bool),
		counts:         make(map[string]int),
	}
}

// Tick records one frame of duration dt seconds and logs the frame rate
// each time ReportInterval seconds have accumulated.
func (c *Context) Tick(dt float64) {
	if c == nil || dt <= 0 {
		return
	}
	c.elapsed += dt
	c.frames++
	if c.elapsed < c.ReportInterval {
		return
	}
	c.fps = float64(c.frames) / c.elapsed
	c.Logger.Info("frame rate", "fps", round1(c.fps), "frames", c.frames)
	c.elapsed = 0
	c.frames = 0
}

// FPS returns the rate measured over the last completed interval.
func (c *Context) FPS() float64 {
	if c == nil {
		return 0
	}
	return c.fps
}

// Once logs msg at level the first time key is seen.
func (c *Context) Once(level slog.Level, key, msg string, args ...any) {
	if c == nil || c.once[key] {
		return
	}
	c.once[key] = true
	c.Logger.Log(context.Background(), level, msg, args...)
}

// Every logs msg on the 1st, (n+1)th, (2n+1)th... occurrence of key and
// returns the occurrence count. The count is appended to the attributes.
func (c *Context) Every(level slog.Level, key string, n int, msg string, args ...any) int {
	if c == nil {
		return 0
	}
	if n < 1 {
		n = 1
	}
	count := c.counts[key] + 1
	c.counts[key] = count
	if (count-1)%n == 0 {
		c.Logger.Log(context.Background(), level, msg, append(args, "count", count)...)
	}
	return count
}

// Reset clears the occurrence counter and once flag for key, so the next
// occurrence is logged again.
func (c *Context) Reset(key string) {
	if c == nil {
		return
	}
	delete(c.counts, key)
	delete(c.once, key)
}

// Debug, Info and Warn log unconditionally.
func (c *Context) Debug(msg string, args ...any) {
	if c != nil {
		c.Logger.Debug(msg, args...)
	}
}

func (c *Context) Info(msg string, args ...any) {
	if c != nil {
		c.Logger.Info(msg, args...)
	}
}

func (c *Context) Warn(msg string, args ...any) {
	if c != nil {
		c.Logger.Warn(msg, args...)
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
