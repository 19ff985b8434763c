package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("debug")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	for _, lvl := range []string{"invalid", ""} {
		logger = NewLogger(lvl)
		if logger.GetLevel() != zerolog.InfoLevel {
			t.Fatalf("%q: expected info fallback, got %s", lvl, logger.GetLevel())
		}
	}
}

func TestNewTeeLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "signals.log")
	logger, closer, err := NewTeeLogger("warn", path)
	if err != nil {
		t.Fatalf("tee logger: %v", err)
	}
	logger.Info().Msg("dropped")
	logger.Warn().Str("sym", "AAPL").Msg("kept")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "dropped") || !strings.Contains(string(data), `"sym":"AAPL"`) {
		t.Fatalf("unexpected log file %s", data)
	}
}
