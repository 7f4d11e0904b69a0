// Package log provides the process-wide logger, a thin wrapper around a
// zap SugaredLogger so callers never need to carry a logger around.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger

func init() {
	// Allow overriding the default log level via $LOG_LEVEL, so that the
	// environment variable can be set globally even when running tests.
	level := "info"
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		level = s
	}
	Init(level, "stderr")
}

// Logger returns the underlying SugaredLogger.
func Logger() *zap.SugaredLogger { return log }

// Init initializes the logger. Output can be "stdout", "stderr" or a file path.
func Init(logLevel, output string) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFromString(logLevel))
	cfg.OutputPaths = []string{output}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000")

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	log = logger.WithOptions(zap.AddCallerSkip(1)).Sugar()
	log.Debugf("logger initialized at level %s with output %s", logLevel, output)
}

func levelFromString(logLevel string) zapcore.Level {
	switch logLevel {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func Debug(args ...any) { log.Debug(args...) }

func Info(args ...any) { log.Info(args...) }

func Warn(args ...any) { log.Warn(args...) }

func Error(args ...any) { log.Error(args...) }

func Fatal(args ...any) { log.Fatal(args...) }

func Debugf(template string, args ...any) { log.Debugf(template, args...) }

func Infof(template string, args ...any) { log.Infof(template, args...) }

func Warnf(template string, args ...any) { log.Warnf(template, args...) }

func Errorf(template string, args ...any) { log.Errorf(template, args...) }

func Fatalf(template string, args ...any) { log.Fatalf(template, args...) }
