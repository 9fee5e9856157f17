// Package logxtest provides an in-memory logx.Logger to assert on log output in tests.
package logxtest

import (
	"context"
	"strings"
	"sync"
)

// Level of a recorded entry.
type Level string

const (
	Trace   Level = "trace"
	Debug   Level = "debug"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
	Panic   Level = "panic"
	Fatal   Level = "fatal"
)

// Entry - one recorded log line.
type Entry struct {
	Level   Level
	Message string
	Errs    []error
}

// Recorder - logx.Logger keeping every entry in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder - Recorder constructor.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level Level, msg string, errs []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Errs: errs})
}

// Entries returns a copy of all recorded entries in order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)

	return out
}

// Messages returns the messages recorded at the given level.
func (r *Recorder) Messages(level Level) []string {
	var msgs []string
	for _, e := range r.Entries() {
		if e.Level == level {
			msgs = append(msgs, e.Message)
		}
	}

	return msgs
}

// Count returns how many entries were recorded at the given level.
func (r *Recorder) Count(level Level) int {
	return len(r.Messages(level))
}

// Contains reports whether some entry at the given level contains substr.
func (r *Recorder) Contains(level Level, substr string) bool {
	for _, msg := range r.Messages(level) {
		if strings.Contains(msg, substr) {
			return true
		}
	}

	return false
}

// Reset drops every recorded entry.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

func (r *Recorder) LogTrace(ctx context.Context, msg string) { r.record(Trace, msg, nil) }

func (r *Recorder) LogDebug(ctx context.Context, msg string) { r.record(Debug, msg, nil) }

func (r *Recorder) LogInfo(ctx context.Context, msg string) { r.record(Info, msg, nil) }

func (r *Recorder) LogWarning(ctx context.Context, msg string, errs ...error) {
	r.record(Warning, msg, errs)
}

func (r *Recorder) LogError(ctx context.Context, msg string, errs ...error) {
	r.record(Error, msg, errs)
}

// LogPanic records the entry then panics, like the real loggers.
func (r *Recorder) LogPanic(ctx context.Context, msg string, errs ...error) {
	r.record(Panic, msg, errs)
	panic(msg)
}

// LogFatal records the entry without exiting.
func (r *Recorder) LogFatal(ctx context.Context, msg string, errs ...error) {
	r.record(Fatal, msg, errs)
}

func (r *Recorder) GetLogger() interface{} { return r }
