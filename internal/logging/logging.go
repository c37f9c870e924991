// Package logging provides the process-wide structured logger for
// streammd: a thin wrapper around zap with no resource-identity
// fields, since a single-shot CLI process has none to attach.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envLogLevel = "LOG_LEVEL"

var (
	globalLogger *zap.SugaredLogger
	initOnce     sync.Once
)

// New builds (once) and returns the global logger, reading LOG_LEVEL
// from the environment. Unset or unrecognized values default to INFO,
// per the CLI's documented environment contract.
func New() *zap.SugaredLogger {
	initOnce.Do(func() {
		level := parseLevel(os.Getenv(envLogLevel))

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.TimeKey = "ts"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.Lock(os.Stderr),
			level,
		)
		globalLogger = zap.New(core).Sugar()
	})
	return globalLogger
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "", "INFO":
		return zapcore.InfoLevel
	default:
		return zapcore.InfoLevel
	}
}
