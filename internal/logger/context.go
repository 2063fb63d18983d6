package logger

import (
	"context"
	"sync"
)

type ctxKey struct{}

var (
	fallback   = New(nil)
	fallbackMu sync.RWMutex
)

// SetDefaultLogger replaces the logger returned for contexts that carry none.
func SetDefaultLogger(l *Logger) {
	if l == nil {
		return
	}
	fallbackMu.Lock()
	fallback = l
	fallbackMu.Unlock()
}

// WithContext attaches l to ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or the default logger.
// A nil ctx is allowed.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
			return l
		}
	}
	fallbackMu.RLock()
	defer fallbackMu.RUnlock()
	return fallback
}

// WithField returns a context whose logger carries one more field.
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	return FromContext(ctx).WithField(key, value).WithContext(ctx)
}

// SetJobID tags every later log line with the job run ID.
func SetJobID(ctx context.Context, id string) context.Context {
	return WithField(ctx, FieldJobID, id)
}

func SetComponent(ctx context.Context, name string) context.Context {
	return WithField(ctx, FieldComponent, name)
}

func SetSource(ctx context.Context, source string) context.Context {
	return WithField(ctx, FieldSource, source)
}
