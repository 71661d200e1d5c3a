// Package logx sets up the slog logger used by the command-line tools: one
// line per record, timestamp and coloured level first, attributes after.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// LevelFromFlags returns the log level selected by the usual -debug,
// -verbose and -quiet flags. Debug wins over verbose, verbose over quiet;
// with no flag set only warnings and errors are shown.
func LevelFromFlags(debug, verbose, quiet bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ParseLevel parses a level name such as "debug" or "warn+2".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logx: %w", err)
	}
	return l, nil
}

// Handler is a slog.Handler writing human-readable lines. Colour is used
// only when the writer is a terminal.
type Handler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
	mu     *sync.Mutex
}

// NewHandler returns a handler writing to w at or above level.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{
		out:   termenv.NewOutput(w),
		level: level,
		mu:    &sync.Mutex{},
	}
}

// Setup installs a Handler on stderr as the default logger and returns it.
func Setup(level slog.Level) *slog.Logger {
	l := slog.New(NewHandler(os.Stderr, level))
	slog.SetDefault(l)
	return l
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format("15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(h.levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func (h *Handler) levelTag(l slog.Level) string {
	tag := fmt.Sprintf("%-5s", l.String())
	s := h.out.String(tag)
	switch {
	case l >= slog.LevelError:
		s = s.Foreground(h.out.Color("1")).Bold()
	case l >= slog.LevelWarn:
		s = s.Foreground(h.out.Color("3"))
	case l >= slog.LevelInfo:
		s = s.Foreground(h.out.Color("4"))
	default:
		s = s.Faint()
	}
	return s.String()
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", g)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	v := a.Value.String()
	if strings.ContainsAny(v, " \t\"=") {
		v = fmt.Sprintf("%q", v)
	}
	b.WriteString(v)
}
