package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey int

const tenantKey ctxKey = iota

var (
	mu     sync.RWMutex
	global = &logger{zap: zap.NewNop()}
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
)

type logger struct {
	zap *zap.Logger
}

// Init replaces the global logger. levelStr is one of debug, info, warn, error.
func Init(levelStr string, asJSON bool) error {
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return fmt.Errorf("logger.Init: parse level %q: %w", levelStr, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if asJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level)

	mu.Lock()
	global = &logger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
	mu.Unlock()

	return nil
}

func SetNopLogger() {
	mu.Lock()
	global = &logger{zap: zap.NewNop()}
	mu.Unlock()
}

func SetLevel(l zapcore.Level) { level.SetLevel(l) }

func L() *logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func With(fields ...Field) *logger {
	return &logger{zap: L().zap.With(fields...)}
}

// WithTenant returns a context whose log lines carry tenant_id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

func TenantFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(tenantKey).(string)
	return id, ok && id != ""
}

func Sync() error { return L().zap.Sync() }

func (l *logger) With(fields ...Field) *logger {
	return &logger{zap: l.zap.With(fields...)}
}

func (l *logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.zap.Debug(msg, withContext(ctx, fields)...)
}

func (l *logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zap.Info(msg, withContext(ctx, fields)...)
}

func (l *logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zap.Warn(msg, withContext(ctx, fields)...)
}

func (l *logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zap.Error(msg, withContext(ctx, fields)...)
}

func Debug(ctx context.Context, msg string, fields ...Field) { L().Debug(ctx, msg, fields...) }
func Info(ctx context.Context, msg string, fields ...Field)  { L().Info(ctx, msg, fields...) }
func Warn(ctx context.Context, msg string, fields ...Field)  { L().Warn(ctx, msg, fields...) }
func Error(ctx context.Context, msg string, fields ...Field) { L().Error(ctx, msg, fields...) }

func withContext(ctx context.Context, fields []Field) []Field {
	if id, ok := TenantFromContext(ctx); ok {
		return append(fields, zap.String("tenant_id", id))
	}
	return fields
}

// NoopLogger satisfies the small logger interfaces of the platform packages.
type NoopLogger struct{}

func (NoopLogger) Debug(context.Context, string, ...Field) {}
func (NoopLogger) Info(context.Context, string, ...Field)  {}
func (NoopLogger) Warn(context.Context, string, ...Field)  {}
func (NoopLogger) Error(context.Context, string, ...Field) {}
