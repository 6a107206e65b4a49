package logging

import (
	"context"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

type contextKey string

const loggerKey = contextKey("logger")

const defaultName = "ratechain"

var (
	defaultLogger     hclog.Logger
	defaultLoggerOnce sync.Once
)

func DefaultLogger() hclog.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLogger(defaultName, "info", false)
	})
	return defaultLogger
}

// NewLogger returns a stderr logger. Unknown levels fall back to info
func NewLogger(name, level string, json bool) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      lvl,
		Output:     os.Stderr,
		JSONFormat: json,
	})
}

func WithLogger(ctx context.Context, logger hclog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func FromContext(ctx context.Context) hclog.Logger {
	if logger, ok := ctx.Value(loggerKey).(hclog.Logger); ok {
		return logger
	}
	return DefaultLogger()
}
