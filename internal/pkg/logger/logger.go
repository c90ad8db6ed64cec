package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	base   = zap.NewNop().Sugar()
	baseMx sync.RWMutex
)

// Init builds the process logger. It is safe to call more than once, the last
// call wins.
func Init(level string, development bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("zapcore.ParseLevel: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("cfg.Build: %w", err)
	}

	Set(l)
	return nil
}

// Set replaces the process logger.
func Set(l *zap.Logger) {
	baseMx.Lock()
	defer baseMx.Unlock()
	base = l.Sugar()
}

// WithFields returns a context whose logger carries the given key/value pairs.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	return context.WithValue(ctx, ctxKey{}, fromContext(ctx).With(keysAndValues...))
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	baseMx.RLock()
	defer baseMx.RUnlock()
	return base
}

func Sync() {
	_ = fromContext(context.Background()).Sync()
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Errorf(format, args...)
}

func Error(ctx context.Context, msg string) {
	fromContext(ctx).Error(msg)
}

func Fatal(ctx context.Context, err error) {
	fromContext(ctx).Fatal(err)
}
