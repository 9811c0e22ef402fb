package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger is the structured logging interface shared by the ipc and ril packages.
//
// Callers either supply their own implementation or use one of:
//   - NopLogger()    : discards everything (default when none is configured)
//   - NewStdLogger() : Go's standard log package
//   - NewZapLogger() : uber-go/zap with optional file rotation
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// NopLogger returns a Logger that discards all output.
func NopLogger() Logger { return nopLogger{} }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger()
	}
	return l
}

type stdLogger struct {
	l *log.Logger
}

func (s *stdLogger) Debug(msg string, kv ...interface{}) {
	s.l.Println("[DEBUG]", formatLogMsg(msg, kv))
}
func (s *stdLogger) Info(msg string, kv ...interface{}) {
	s.l.Println("[INFO]", formatLogMsg(msg, kv))
}
func (s *stdLogger) Warn(msg string, kv ...interface{}) {
	s.l.Println("[WARN]", formatLogMsg(msg, kv))
}
func (s *stdLogger) Error(msg string, kv ...interface{}) {
	s.l.Println("[ERROR]", formatLogMsg(msg, kv))
}

// NewStdLogger creates a Logger backed by Go's standard log package.
// If writer is nil, os.Stderr is used.
func NewStdLogger(writer io.Writer, prefix string) Logger {
	if writer == nil {
		writer = os.Stderr
	}
	return &stdLogger{l: log.New(writer, prefix, log.LstdFlags)}
}

// fieldLogger prepends a fixed set of key/value pairs to every entry.
type fieldLogger struct {
	base   Logger
	fields []interface{}
}

// WithFields returns a Logger that adds kv to every entry written through it.
func WithFields(l Logger, kv ...interface{}) Logger {
	l = OrNop(l)
	if len(kv) == 0 {
		return l
	}
	if fl, ok := l.(*fieldLogger); ok {
		merged := make([]interface{}, 0, len(fl.fields)+len(kv))
		merged = append(merged, fl.fields...)
		merged = append(merged, kv...)
		return &fieldLogger{base: fl.base, fields: merged}
	}
	return &fieldLogger{base: l, fields: kv}
}

func (f *fieldLogger) join(kv []interface{}) []interface{} {
	out := make([]interface{}, 0, len(f.fields)+len(kv))
	out = append(out, f.fields...)
	return append(out, kv...)
}

func (f *fieldLogger) Debug(msg string, kv ...interface{}) { f.base.Debug(msg, f.join(kv)...) }
func (f *fieldLogger) Info(msg string, kv ...interface{})  { f.base.Info(msg, f.join(kv)...) }
func (f *fieldLogger) Warn(msg string, kv ...interface{})  { f.base.Warn(msg, f.join(kv)...) }
func (f *fieldLogger) Error(msg string, kv ...interface{}) { f.base.Error(msg, f.join(kv)...) }

// formatLogMsg builds a human-readable string from a message and key-value pairs.
func formatLogMsg(msg string, kv []interface{}) string {
	if len(kv) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString(fmt.Sprintf(" %v=%v", kv[i], kv[i+1]))
	}
	if len(kv)%2 != 0 {
		b.WriteString(fmt.Sprintf(" EXTRA=%v", kv[len(kv)-1]))
	}
	return b.String()
}
