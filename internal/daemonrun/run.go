// Package daemonrun wires the full daemon process together: logging,
// job store, workflow lanes, path manager, event hub, and the daemon
// lifecycle, then blocks until the process is signalled.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"tonearm/internal/analyzer"
	"tonearm/internal/config"
	"tonearm/internal/daemon"
	"tonearm/internal/events"
	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/mover"
	"tonearm/internal/notifications"
	"tonearm/internal/paths"
	"tonearm/internal/scanner"
	"tonearm/internal/workflow"
)

// eventHubCapacity bounds the status event ring; SSE clients that fall
// further behind than this resync from the bootstrap snapshot.
const eventHubCapacity = 1024

// Options configures daemon process runtime behavior.
type Options struct {
	// ConfigPath is the resolved path of the loaded config file; path
	// confirmations persist back to it.
	ConfigPath  string
	LogLevel    string
	Development bool
}

// Run starts the tonearm daemon runtime loop and blocks until the
// context is cancelled or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("tonearm-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update tonearm.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "tonearm-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "tonearmd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	// Nothing can be legitimately in flight before the lanes start, so
	// revert every analyzing/moving row left by an earlier crash.
	if reset, err := store.ResetStaleJobs(signalCtx, 0); err != nil {
		logger.Warn("startup job recovery failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "startup_recovery_failed"),
			logging.String(logging.FieldErrorHint, "check job database access"),
		)
	} else if reset > 0 {
		logger.Info("recovered interrupted jobs",
			logging.Int64("jobs", reset),
			logging.String(logging.FieldEventType, "startup_recovery"),
		)
	}

	pathManager := paths.NewManager(cfg, opts.ConfigPath, logger)
	hub := events.NewHub(eventHubCapacity)
	notifier := notifications.NewService(cfg)

	workflowManager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	registerStages(workflowManager, cfg, store, logger, pathManager, notifier)

	d, err := daemon.New(cfg, store, logger, workflowManager, pathManager, hub)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()
	workflowManager.SetAnnouncer(d.Announcer())

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration, lock file, and API bind address"),
			logging.String(logging.FieldImpact, "no folders will be processed"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("tonearm daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *jobs.Store, logger *slog.Logger, pathManager *paths.Manager, notifier notifications.Service) {
	if mgr == nil || cfg == nil {
		return
	}
	mgr.ConfigureStages(workflow.StageSet{
		Scanner:  scanner.NewWithDependencies(cfg, store, logger, pathManager, notifier),
		Analyzer: analyzer.NewWithDependencies(cfg, store, logger, newProposalSource(cfg), notifier),
		Mover:    mover.NewWithDependencies(cfg, store, logger, pathManager, notifier),
	})
}

func newProposalSource(cfg *config.Config) analyzer.ProposalSource {
	return analyzer.NewClient(analyzer.Config{
		APIKey:         cfg.Analyzer.APIKey,
		BaseURL:        cfg.Analyzer.BaseURL,
		Model:          cfg.Analyzer.Model,
		TimeoutSeconds: cfg.Analyzer.TimeoutSeconds,
	})
}

// ensureCurrentLogPointer keeps LogDir/tonearm.log pointing at the
// newest run-scoped log file.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "tonearm.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
