package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/fatih/color"
)

// terminalHandler renders records as a single line: the message followed
// by key=value pairs. Warnings and errors get a level prefix.
type terminalHandler struct {
	out    io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
	warn   *color.Color
	err    *color.Color
	debug  *color.Color
}

func newTerminalHandler(out io.Writer, level slog.Leveler, useColor bool) *terminalHandler {
	h := &terminalHandler{
		out:   out,
		level: level,
		warn:  color.New(color.FgYellow, color.Bold),
		err:   color.New(color.FgRed, color.Bold),
		debug: color.New(color.Faint),
	}
	for _, c := range []*color.Color{h.warn, h.err, h.debug} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return h
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	switch {
	case r.Level >= slog.LevelError:
		buf.WriteString(h.err.Sprint("ERROR"))
		buf.WriteByte(' ')
	case r.Level >= slog.LevelWarn:
		buf.WriteString(h.warn.Sprint("WARNING"))
		buf.WriteByte(' ')
	}
	if r.Level < slog.LevelInfo {
		buf.WriteString(h.debug.Sprint(r.Message))
	} else {
		buf.WriteString(r.Message)
	}

	for _, a := range h.attrs {
		h.appendAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *terminalHandler) appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, prefix+a.Key+".", ga)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(a.Value.String())
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *terminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}
