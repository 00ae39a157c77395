// Package daemonctl orchestrates the daemon process from the CLI:
// launching a detached daemon, stopping it via its pid file, and
// collecting status with offline fallbacks when the API is unreachable.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"tonearm/internal/api"
	"tonearm/internal/config"
	"tonearm/internal/jobs"
	"tonearm/internal/paths"
	"tonearm/internal/preflight"
	"tonearm/internal/status"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	APIAddr    string
	ConfigPath string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
}

// ErrDaemonNotRunning indicates no live daemon process was found.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Launch starts a detached tonearm daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if addr := strings.TrimSpace(opts.APIAddr); addr != "" {
		args = append(args, "--api", addr)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForDaemon polls the API until the daemon answers or the timeout expires.
func WaitForDaemon(ctx context.Context, client *api.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := client.Status(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon when no instance answers the API.
func EnsureStarted(ctx context.Context, client *api.Client, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if _, err := client.Status(ctx); err == nil {
		return StartResult{State: StartStateAlreadyRunning}, nil
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	if err := WaitForDaemon(ctx, client, waitTimeout); err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true}, nil
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// PIDFilePath returns the daemon pid file location for the given config.
func PIDFilePath(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return filepath.Join(cfg.Paths.LogDir, "tonearmd.pid")
}

// ReadPIDFile parses the daemon pid file. A missing file yields
// ErrDaemonNotRunning.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrDaemonNotRunning
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon pid file %q is malformed", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}

// StopAndTerminate signals the daemon with SIGTERM and escalates to
// SIGKILL when it does not exit within gracePeriod. Stale pid files are
// cleaned up along the way.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	pidPath := PIDFilePath(cfg)
	if pidPath == "" {
		return StopResult{}, errors.New("configuration not available")
	}
	pid, err := ReadPIDFile(pidPath)
	if err != nil {
		return StopResult{}, err
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	if !processAlive(pid) {
		_ = os.Remove(pidPath)
		return StopResult{}, ErrDaemonNotRunning
	}

	result := StopResult{PID: pid}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return result, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	deadline := time.Now().Add(gracePeriod)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return result, nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	result.ForcedKill = true
	_ = os.Remove(pidPath)
	_ = os.Remove(filepath.Join(cfg.Paths.StateDir, "tonearmd.lock"))
	return result, nil
}

// Restart stops the daemon if running, then launches a fresh instance.
func Restart(ctx context.Context, client *api.Client, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(ctx, client, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

// Overview combines daemon reachability, the pipeline snapshot, and
// environment checks for the status command.
type Overview struct {
	Running                 bool
	Snapshot                *status.Snapshot
	Checks                  []preflight.Result
	NotificationsConfigured bool
}

// BuildOverview collects daemon status, falling back to a direct store
// read when the daemon is not reachable.
func BuildOverview(ctx context.Context, client *api.Client, cfg *config.Config) (*Overview, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}

	overview := &Overview{
		NotificationsConfigured: strings.TrimSpace(cfg.Notifications.NtfyTopic) != "",
	}

	if snapshot, err := client.Status(ctx); err == nil {
		overview.Running = true
		overview.Snapshot = snapshot
	} else {
		queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if store, openErr := jobs.Open(cfg); openErr == nil {
			aggregator := status.NewAggregator(store, paths.NewManager(cfg, "", nil))
			if snapshot, snapErr := aggregator.Snapshot(queryCtx); snapErr == nil {
				overview.Snapshot = snapshot
			}
			_ = store.Close()
		}
	}

	overview.Checks = preflight.RunAll(ctx, cfg)
	return overview, nil
}
