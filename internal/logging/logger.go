package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// SinkKind identifies where a sink writes.
type SinkKind string

const (
	// SinkConsole writes to the registry's console stream.
	SinkConsole SinkKind = "console"
	// SinkFile writes to the registry's rotating log file.
	SinkFile SinkKind = "file"
)

// Sink is one output attached to a Logger.
type Sink struct {
	Kind   SinkKind
	Level  slog.Level
	Format Format

	out io.Writer
}

func (s Sink) write(r record) error {
	if r.level < s.Level {
		return nil
	}
	_, err := io.WriteString(s.out, s.Format.render(r))
	return err
}

// Logger is a named handle obtained from a Registry. It embeds *slog.Logger,
// so the usual Info/Debug/With methods apply. Handles are stable: configuring
// the same name again changes this handle in place.
type Logger struct {
	*slog.Logger

	name     string
	registry *Registry

	mu        sync.RWMutex
	level     slog.Level
	hasLevel  bool
	propagate bool
	sinks     []Sink
}

func newLogger(name string, registry *Registry) *Logger {
	l := &Logger{
		name:      name,
		registry:  registry,
		propagate: true,
	}
	l.Logger = slog.New(&handler{logger: l})
	return l
}

// Name returns the dot-separated logger name.
func (l *Logger) Name() string {
	return l.name
}

// Level returns the effective level: the logger's own level if set,
// otherwise the nearest configured ancestor's, otherwise debug.
func (l *Logger) Level() slog.Level {
	for cur := l; cur != nil; cur = cur.parent() {
		cur.mu.RLock()
		level, ok := cur.level, cur.hasLevel
		cur.mu.RUnlock()
		if ok {
			return level
		}
	}
	return slog.LevelDebug
}

// Sinks returns a snapshot of the attached sinks.
func (l *Logger) Sinks() []Sink {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Sink, len(l.sinks))
	copy(out, l.sinks)
	return out
}

// SetPropagate controls whether records continue to ancestor sinks.
func (l *Logger) SetPropagate(propagate bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.propagate = propagate
}

// Critical logs at LevelCritical.
func (l *Logger) Critical(msg string, args ...any) {
	l.Log(context.Background(), LevelCritical, msg, args...)
}

func (l *Logger) parent() *Logger {
	if l.registry == nil {
		return nil
	}
	return l.registry.parentOf(l.name)
}

// dispatch writes r to this logger's sinks and then up the ancestor chain
// until a logger with propagation disabled.
func (l *Logger) dispatch(r record) error {
	var errs []error
	for cur := l; cur != nil; cur = cur.parent() {
		cur.mu.RLock()
		sinks := cur.sinks
		propagate := cur.propagate
		cur.mu.RUnlock()

		for _, s := range sinks {
			if err := s.write(r); err != nil {
				errs = append(errs, err)
			}
		}
		if !propagate {
			break
		}
	}
	return errors.Join(errs...)
}
