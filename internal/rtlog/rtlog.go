// Package rtlog is greyhorse's logging facade, grounded on the pack's
// phuhao00-greatestworks/internal/infrastructure/logger SpoorLogger: a
// sync.Once-initialised package singleton wrapping spoor.Logger, so every
// component/module/assembler call site below logs through one shared,
// lazily-built instance instead of threading a logger through every
// constructor, the same role logging.logger plays throughout the source.
package rtlog

import (
	"sync"

	"github.com/phuhao00/spoor/v2"
)

// Logger wraps a spoor.Logger behind a mutex so SetLogger can swap the
// underlying implementation (e.g. in a test) without racing a concurrent
// Info/Error call.
type Logger struct {
	mu     sync.RWMutex
	logger spoor.Logger
}

var (
	instance *Logger
	once     sync.Once
)

// Get returns the process-wide logger, building it with spoor's defaults
// on first use.
func Get() *Logger {
	once.Do(func() {
		instance = &Logger{logger: spoor.NewWithDefaults()}
	})
	return instance
}

// SetLogger overrides the underlying spoor.Logger.
func (l *Logger) SetLogger(logger spoor.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = logger
}

func (l *Logger) raw() spoor.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logger
}

// withKV attaches kv (a flat name, value, name, value, ... list) to
// logger as structured fields, tolerating an odd trailing element by
// dropping it rather than panicking.
func withKV(logger spoor.Logger, kv []any) spoor.Logger {
	if len(kv) == 0 {
		return logger
	}
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.WithFields(fields)
}

// Info logs msg at info level, attaching kv as structured fields.
func (l *Logger) Info(msg string, kv ...any) { withKV(l.raw(), kv).Info(msg) }

// Warn logs msg at warn level, attaching kv as structured fields.
func (l *Logger) Warn(msg string, kv ...any) { withKV(l.raw(), kv).Warn(msg) }

// Debug logs msg at debug level, attaching kv as structured fields.
func (l *Logger) Debug(msg string, kv ...any) { withKV(l.raw(), kv).Debug(msg) }

// Error logs msg at error level, attaching kv as structured fields. If one
// of the kv pairs is named "error" and its value is an error, it is
// additionally attached via WithError so spoor can format it however its
// configured output does.
func (l *Logger) Error(msg string, kv ...any) {
	logger := l.raw()
	for i := 0; i+1 < len(kv); i += 2 {
		if name, _ := kv[i].(string); name == "error" {
			if err, ok := kv[i+1].(error); ok {
				logger = logger.WithError(err)
			}
		}
	}
	withKV(logger, kv).Error(msg)
}

// SetLevel adjusts the process-wide log level.
func SetLevel(level spoor.LogLevel) { spoor.SetLevel(level) }

// GetLevel reports the process-wide log level.
func GetLevel() spoor.LogLevel { return spoor.GetLevel() }
