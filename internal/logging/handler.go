package logging

import (
	"context"
	"log/slog"
	"strings"
)

// handler adapts slog to a Logger's sink chain.
type handler struct {
	logger *Logger
	prefix string // pre-rendered WithAttrs output
	group  string // dotted group prefix for record attrs
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.logger.Level()
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.group, a)
		return true
	})

	return h.logger.dispatch(record{
		time:  r.Time,
		name:  h.logger.name,
		level: r.Level,
		msg:   b.String(),
	})
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(&b, h.group, a)
	}
	return &handler{logger: h.logger, prefix: b.String(), group: h.group}
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &handler{logger: h.logger, prefix: h.prefix, group: h.group + name + "."}
}
