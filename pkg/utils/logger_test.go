package utils

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(true) returned nil logger")
		}
		if !logger.Core().Enabled(zap.DebugLevel) {
			t.Error("debug logger should enable debug level")
		}
		_ = logger.Sync()
	})

	t.Run("production mode returns info logger", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger.Core().Enabled(zap.DebugLevel) {
			t.Error("production logger should not enable debug level")
		}
		_ = logger.Sync()
	})
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("OrNop should return the given logger")
	}
}
