package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tonearm/internal/logging"
	"tonearm/internal/services"
)

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(string(content), "INFO message without caller") {
		t.Fatalf("unexpected console line: %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "debug",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerPrefixesComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-component.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "scanner").Info("cycle complete", logging.Int("enqueued", 2))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "scanner: cycle complete enqueued=2") {
		t.Fatalf("unexpected console line: %q", content)
	}
}

func TestNewJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("json message", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{`"msg":"json message"`, `"level":"info"`, `"k":"v"`, `"ts":`} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "invalid",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") {
		t.Fatalf("debug line should be filtered at default level: %q", content)
	}
	if !strings.Contains(string(content), "visible") {
		t.Fatalf("info line missing: %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, 123)
	ctx = services.WithLane(ctx, "analyze")
	ctx = services.WithRequestID(ctx, "req-xyz")

	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithContext(ctx, logger).Info("contextual log")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{`"job_id":123`, `"lane":"analyze"`, `"correlation_id":"req-xyz"`} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("never seen", logging.Error(os.ErrNotExist))
}
