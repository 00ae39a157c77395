package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tonearm/internal/config"
	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/notifications"
	"tonearm/internal/services"
	"tonearm/internal/stage"
)

// SourceProvider yields the active source root. Path staging can promote a
// new source while the daemon runs, so the root is read per cycle rather
// than captured at construction.
type SourceProvider interface {
	CurrentSource() string
}

type staticSource string

func (s staticSource) CurrentSource() string { return string(s) }

// Scanner enumerates the source root and enqueues unseen folders.
type Scanner struct {
	store    *jobs.Store
	cfg      *config.Config
	logger   *slog.Logger
	sources  SourceProvider
	notifier notifications.Service
}

// New constructs the scan producer using default dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, sources SourceProvider) *Scanner {
	return NewWithDependencies(cfg, store, logger, sources, notifications.NewService(cfg))
}

// NewWithDependencies allows injecting the notifier (used in tests). A nil
// sources provider pins the root from cfg.
func NewWithDependencies(cfg *config.Config, store *jobs.Store, logger *slog.Logger, sources SourceProvider, notifier notifications.Service) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if sources == nil {
		sources = staticSource(cfg.Paths.SourceDir)
	}
	return &Scanner{
		store:    store,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "scanner")),
		sources:  sources,
		notifier: notifier,
	}
}

// SetLogger replaces the scanner's logger; the workflow manager injects
// lane-scoped loggers through this hook.
func (s *Scanner) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger.With(logging.String(logging.FieldComponent, "scanner"))
}

// RunOnce performs a single scan cycle and returns how many folders it
// queued. An unreadable source root fails the cycle without side effects;
// an unconfigured one makes the cycle a no-op.
func (s *Scanner) RunOnce(ctx context.Context) (int, error) {
	logger := logging.WithContext(ctx, s.logger)

	s.runWatchdog(ctx, logger)

	source := strings.TrimSpace(s.sources.CurrentSource())
	if source == "" {
		logger.Debug("scan skipped; no source root configured")
		return 0, nil
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "scanner", "read source root",
			fmt.Sprintf("Source root %s is not readable", source), err)
	}

	discovered := 0
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		folder := filepath.Join(source, entry.Name())

		seen, err := s.store.HasJobForFolder(ctx, folder)
		if err != nil {
			return discovered, services.Wrap(services.ErrTransient, "scanner", "check folder history",
				"Job store lookup failed during scan", err)
		}
		if seen {
			continue
		}

		if _, err := s.store.Enqueue(ctx, folder, jobs.TypeScanDiscovered); err != nil {
			// Lost a race with a concurrent enqueue for the same folder.
			if errors.Is(err, jobs.ErrActiveJobExists) {
				logger.Debug("folder enqueued elsewhere", logging.String(logging.FieldFolder, folder))
				continue
			}
			return discovered, services.Wrap(services.ErrTransient, "scanner", "enqueue folder",
				"Discovered folder could not be queued", err)
		}
		discovered++
		logger.Info("folder queued for analysis", logging.String(logging.FieldFolder, folder))
	}

	if discovered > 0 {
		logger.Info("scan cycle complete",
			logging.String("source_dir", source),
			logging.Int("discovered", discovered))
		if s.notifier != nil {
			if err := s.notifier.ScanSummary(ctx, discovered); err != nil {
				logger.Warn("scan notification failed", logging.Error(err))
			}
		}
	} else {
		logger.Debug("scan cycle found nothing new", logging.String("source_dir", source))
	}
	return discovered, nil
}

// runWatchdog re-queues in-flight jobs abandoned past the stale threshold.
// A non-positive threshold disables the per-cycle pass; startup recovery
// calls ResetStaleJobs directly with age zero.
func (s *Scanner) runWatchdog(ctx context.Context, logger *slog.Logger) {
	threshold := s.cfg.StaleJobTimeout()
	if threshold <= 0 {
		return
	}
	reset, err := s.store.ResetStaleJobs(ctx, threshold)
	if err != nil {
		logger.Warn("stale job sweep failed", logging.Error(err))
		return
	}
	if reset > 0 {
		logger.Info("stale jobs returned to their queues",
			logging.Int64("reset", reset),
			logging.Duration("threshold", threshold))
	}
}

// HealthCheck verifies the source root is configured and readable.
func (s *Scanner) HealthCheck(ctx context.Context) stage.Health {
	const name = "scanner"
	if s == nil || s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if s.store == nil {
		return stage.Unhealthy(name, "job store unavailable")
	}
	source := strings.TrimSpace(s.sources.CurrentSource())
	if source == "" {
		return stage.Unhealthy(name, "source root not configured; stage one via the paths API")
	}
	info, err := os.Stat(source)
	if err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("source root %s is not accessible", source))
	}
	if !info.IsDir() {
		return stage.Unhealthy(name, fmt.Sprintf("source root %s is not a directory", source))
	}
	return stage.Healthy(name)
}
