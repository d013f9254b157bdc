package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != slog.LevelInfo {
		t.Errorf("Level = %v, want INFO", cfg.Level)
	}
	if cfg.MaxSizeMB != 50 {
		t.Errorf("MaxSizeMB = %v, want 50", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 10 {
		t.Errorf("MaxBackups = %v, want 10", cfg.MaxBackups)
	}
	if !cfg.Compress {
		t.Error("Compress should default to true")
	}
}

func TestDefaultLogDir(t *testing.T) {
	dir := DefaultLogDir()
	if !strings.HasSuffix(dir, "rpgbase/logs") && !strings.HasSuffix(dir, `rpgbase\logs`) {
		t.Errorf("DefaultLogDir() = %v, want suffix rpgbase/logs", dir)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(context.Background(), logger)
	if From(ctx) != logger {
		t.Error("From should return the logger stored in the context")
	}

	ctx = WithAttrs(ctx, "battle", 7)
	From(ctx).Info("round")
	if !strings.Contains(buf.String(), "battle=7") {
		t.Errorf("log output = %q, want battle=7", buf.String())
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.JSON = true

	slog.New(newHandler(&buf, cfg)).Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("JSON handler output = %q", buf.String())
	}
}
