// Package logging provides the structured logger used by the engine, the
// sweep runner, the HTTP service and the CLI.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// New creates a logger writing to w in the given format.
// Unknown formats fall back to JSON.
func New(w io.Writer, level Level, format Format) Logger {
	if format == FormatText {
		return NewTextLogger(w, level)
	}
	return NewJSONLogger(w, level)
}

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &JSONLogger{out: &sink{writer: writer, level: level}}
}

// NewTextLogger creates a new text logger
func NewTextLogger(writer io.Writer, level Level) *TextLogger {
	return &TextLogger{out: &sink{writer: writer, level: level}}
}

// merge flattens preset and call-site fields; call-site fields win.
func merge(preset, fields []Field) map[string]any {
	if len(preset)+len(fields) == 0 {
		return nil
	}
	m := make(map[string]any, len(preset)+len(fields))
	for _, f := range preset {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func appendFields(preset, fields []Field) []Field {
	out := make([]Field, len(preset)+len(fields))
	copy(out, preset)
	copy(out[len(preset):], fields)
	return out
}

func (s *sink) enabled(level Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return level >= s.level
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Write(line)
}

func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	if !l.out.enabled(level) {
		return
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
		Fields:  merge(l.fields, fields),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.out.write([]byte(fmt.Sprintf("[ERROR] Failed to marshal log entry: %v\n", err)))
		return
	}
	l.out.write(append(data, '\n'))
}

// Debug logs a debug-level message
func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }

// Info logs an info-level message
func (l *JSONLogger) Info(msg string, fields ...Field) { l.log(InfoLevel, msg, fields...) }

// Warn logs a warning-level message
func (l *JSONLogger) Warn(msg string, fields ...Field) { l.log(WarnLevel, msg, fields...) }

// Error logs an error-level message
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

// With creates a child logger with the given fields pre-set
func (l *JSONLogger) With(fields ...Field) Logger {
	return &JSONLogger{out: l.out, fields: appendFields(l.fields, fields)}
}

// SetLevel sets the minimum log level for this logger and its children
func (l *JSONLogger) SetLevel(level Level) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.level = level
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	return l.out.level
}

func (l *TextLogger) log(level Level, msg string, fields ...Field) {
	if !l.out.enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format(time.RFC3339))
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%-5s ", level.String())
	b.WriteString(msg)

	m := merge(l.fields, fields)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, m[k])
	}
	b.WriteByte('\n')

	l.out.write([]byte(b.String()))
}

// Debug logs a debug-level message
func (l *TextLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }

// Info logs an info-level message
func (l *TextLogger) Info(msg string, fields ...Field) { l.log(InfoLevel, msg, fields...) }

// Warn logs a warning-level message
func (l *TextLogger) Warn(msg string, fields ...Field) { l.log(WarnLevel, msg, fields...) }

// Error logs an error-level message
func (l *TextLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

// With creates a child logger with the given fields pre-set
func (l *TextLogger) With(fields ...Field) Logger {
	return &TextLogger{out: l.out, fields: appendFields(l.fields, fields)}
}

// SetLevel sets the minimum log level for this logger and its children
func (l *TextLogger) SetLevel(level Level) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.level = level
}

// GetLevel returns the current log level
func (l *TextLogger) GetLevel() Level {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	return l.out.level
}

// Global default logger
var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
	once          sync.Once
)

// DefaultLogger returns the global logger. It writes JSON to stderr at the
// level named by LOG_LEVEL, INFO if unset.
func DefaultLogger() Logger {
	once.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		if defaultLogger == nil {
			defaultLogger = NewJSONLogger(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
		}
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the global logger
func SetDefaultLogger(logger Logger) {
	once.Do(func() {})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Debug logs a debug-level message using the default logger
func Debug(msg string, fields ...Field) {
	DefaultLogger().Debug(msg, fields...)
}

// Info logs an info-level message using the default logger
func Info(msg string, fields ...Field) {
	DefaultLogger().Info(msg, fields...)
}

// Warn logs a warning-level message using the default logger
func Warn(msg string, fields ...Field) {
	DefaultLogger().Warn(msg, fields...)
}

// ErrorLog logs an error-level message using the default logger.
// Named ErrorLog to avoid conflict with the Error field constructor.
func ErrorLog(msg string, fields ...Field) {
	DefaultLogger().Error(msg, fields...)
}

// With creates a child of the default logger
func With(fields ...Field) Logger {
	return DefaultLogger().With(fields...)
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the timer started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at info level with its duration
func (t *TimedOperation) End(fields ...Field) {
	t.logger.Info(t.msg, append(appendFields(t.fields, fields), Latency(t.Elapsed()))...)
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg, append(appendFields(t.fields, nil), Latency(t.Elapsed()), Error(err))...)
}
