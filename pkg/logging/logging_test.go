package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"camara_chat/pkg/config"
)

func TestInitCreatesLogFile(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "logs", "camara_chat.log")

	cfg := config.Default()
	cfg.LogFile = logPath
	cfg.LogFormat = "json"
	cfg.LogLevel = "info"

	logger, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	logger.Info("hello", slog.String("component", "test"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Expected log file to have content")
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("Expected log to contain message, got: %s", string(data))
	}
}

func TestInitTextFormat(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "camara_chat.log")

	cfg := config.Default()
	cfg.LogFile = logPath
	cfg.LogFormat = "text"

	logger, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	logger.Info("chat_submit_start", "length", 3)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), "msg=chat_submit_start") {
		t.Fatalf("Expected text handler output, got: %s", string(data))
	}
}

func TestInitRespectsLevel(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.LogFile = filepath.Join(tmpDir, "camara_chat.log")
	cfg.LogLevel = "warn"

	logger, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Expected info to be disabled at warn level")
	}
	if !logger.Enabled(ctx, slog.LevelWarn) {
		t.Error("Expected warn to be enabled at warn level")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTraceLevelName(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logPath := filepath.Join(t.TempDir(), "camara_chat.log")
	cfg := config.Default()
	cfg.LogFile = logPath
	cfg.LogFormat = "text"
	cfg.LogLevel = "trace"

	if _, err := Init(cfg); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Trace(context.Background(), "chatapi_request_body", "body", `{"message":"Olá"}`)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "level=TRACE") || strings.Contains(got, "DEBUG-4") {
		t.Fatalf("Expected TRACE level name, got: %s", got)
	}
	if !strings.Contains(got, "msg=chatapi_request_body") {
		t.Fatalf("Expected trace message, got: %s", got)
	}
}

func TestTraceDisabledAtDebug(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logPath := filepath.Join(t.TempDir(), "camara_chat.log")
	cfg := config.Default()
	cfg.LogFile = logPath
	cfg.LogLevel = "debug"

	if _, err := Init(cfg); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Trace(context.Background(), "answer_prompt", "messages", 3)
	slog.Debug("answer_complete")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if strings.Contains(string(data), "answer_prompt") {
		t.Fatalf("Trace should be dropped at debug level, got: %s", string(data))
	}
	if !strings.Contains(string(data), "answer_complete") {
		t.Fatalf("Expected debug output, got: %s", string(data))
	}
}
