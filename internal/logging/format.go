package logging

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the timestamp prefix of every log line.
const TimestampLayout = "2006-01-02 15:04:05,000"

// Format selects how a sink renders records.
type Format int

const (
	// FormatStandard renders "<time> - <name> - <LEVEL> - <message>".
	FormatStandard Format = iota
	// FormatAction renders "<time> - ACTION[<name>] - <LEVEL> - <message>".
	FormatAction
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatAction:
		return "action"
	default:
		return "standard"
	}
}

// record is a handler-independent view of a log call.
type record struct {
	time  time.Time
	name  string
	level slog.Level
	msg   string
}

// render formats r as one UTF-8 line terminated by a newline.
func (f Format) render(r record) string {
	ts := r.time
	if ts.IsZero() {
		ts = time.Now()
	}

	name := r.name
	if f == FormatAction {
		name = "ACTION[" + name + "]"
	}

	var b strings.Builder
	b.Grow(len(TimestampLayout) + len(name) + len(r.msg) + 24)
	b.WriteString(ts.Format(TimestampLayout))
	b.WriteString(" - ")
	b.WriteString(name)
	b.WriteString(" - ")
	b.WriteString(LevelName(r.level))
	b.WriteString(" - ")
	b.WriteString(r.msg)
	b.WriteByte('\n')

	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

// appendAttr writes a as " key=value", flattening groups into dotted keys.
func appendAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		prefix := group
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range attrs {
			appendAttr(b, prefix, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(group)
	b.WriteString(a.Key)
	b.WriteByte('=')

	var val string
	if a.Value.Kind() == slog.KindTime {
		val = a.Value.Time().Format(time.RFC3339Nano)
	} else {
		val = a.Value.String()
	}
	if needsQuoting(val) {
		val = strconv.Quote(val)
	}
	b.WriteString(val)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, " =\"\t\n\r")
}
