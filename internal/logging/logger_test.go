package logging

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	logger := hclog.NewNullLogger()
	ctx := WithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Errorf("expected logger from context")
	}

	if FromContext(context.Background()) != DefaultLogger() {
		t.Errorf("expected default logger")
	}
}

func TestNewLogger_Level(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		level    string
		expected hclog.Level
	}{
		{name: "test_debug", level: "debug", expected: hclog.Debug},
		{name: "test_warn", level: "WARN", expected: hclog.Warn},
		{name: "test_unknown", level: "verbose", expected: hclog.Info},
		{name: "test_empty", level: "", expected: hclog.Info},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger := NewLogger("test", tc.level, false)
			if logger.GetLevel() != tc.expected {
				t.Errorf("level mismatch: want %s, got %s", tc.expected, logger.GetLevel())
			}
		})
	}
}
