package logger

import "go.uber.org/zap"

const (
	LevelDebug = zap.DebugLevel
	LevelInfo  = zap.InfoLevel
	LevelWarn  = zap.WarnLevel
	LevelError = zap.ErrorLevel
	LevelFatal = zap.FatalLevel
)

var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Duration = zap.Duration
	Time     = zap.Time
	Bool     = zap.Bool
	ErrorF   = zap.Error
	Any      = zap.Any
)

type (
	Field = zap.Field
	Level = zap.AtomicLevel
)
