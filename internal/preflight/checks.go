package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"tonearm/internal/analyzer"
	"tonearm/internal/config"
)

// CheckAnalyzer verifies that the analyzer API is reachable and the key
// is valid. It uses a 30-second timeout and a single attempt.
func CheckAnalyzer(ctx context.Context, cfg *config.Config) Result {
	const name = "Analyzer API"
	if cfg == nil || cfg.Analyzer.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := analyzer.NewClient(analyzer.Config{
		APIKey:         cfg.Analyzer.APIKey,
		BaseURL:        cfg.Analyzer.BaseURL,
		Model:          cfg.Analyzer.Model,
		TimeoutSeconds: cfg.Analyzer.TimeoutSeconds,
	}, analyzer.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAnalyzerError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeAnalyzerError produces a human-readable summary for analyzer
// health check failures.
func summarizeAnalyzerError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (analyzer API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (analyzer API unreachable)"
	}
	return err.Error()
}
