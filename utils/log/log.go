package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

func Debug(format string, args ...interface{}) {
	zap.S().Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	zap.S().Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	zap.S().Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	zap.S().Errorf(format, args...)
}

func Fatal(format string, args ...interface{}) {
	zap.S().Fatalf(format, args...)
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARNING
	ERROR
)

// SetLevel adjusts the minimum level emitted by the global logger.
func SetLevel(l Level) {
	switch l {
	case DEBUG:
		level.SetLevel(zapcore.DebugLevel)
	case INFO:
		level.SetLevel(zapcore.InfoLevel)
	case WARNING:
		level.SetLevel(zapcore.WarnLevel)
	case ERROR:
		level.SetLevel(zapcore.ErrorLevel)
	}
}

// LevelFromString maps a configuration string to a Level. Unknown
// values fall back to INFO.
func LevelFromString(s string) Level {
	switch s {
	case "debug":
		return DEBUG
	case "warning", "warn":
		return WARNING
	case "error":
		return ERROR
	default:
		return INFO
	}
}
