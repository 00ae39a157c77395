package mover

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"tonearm/internal/config"
	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/notifications"
	"tonearm/internal/services"
	"tonearm/internal/stage"
)

// TargetProvider yields the active target root. Path staging can promote a
// new target while the daemon runs, so the root is read per move rather than
// captured at construction.
type TargetProvider interface {
	CurrentTarget() string
}

type staticTarget string

func (s staticTarget) CurrentTarget() string { return string(s) }

// Mover is the move stage handler. It relocates a claimed folder into the
// target library and lands the completed transition.
type Mover struct {
	store    *jobs.Store
	cfg      *config.Config
	logger   *slog.Logger
	targets  TargetProvider
	notifier notifications.Service
}

// New constructs the move stage handler using default dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, targets TargetProvider) *Mover {
	return NewWithDependencies(cfg, store, logger, targets, notifications.NewService(cfg))
}

// NewWithDependencies allows injecting the notifier (used in tests). A nil
// targets provider pins the root from cfg.
func NewWithDependencies(cfg *config.Config, store *jobs.Store, logger *slog.Logger, targets TargetProvider, notifier notifications.Service) *Mover {
	if logger == nil {
		logger = logging.NewNop()
	}
	if targets == nil {
		targets = staticTarget(cfg.Paths.TargetDir)
	}
	return &Mover{
		store:    store,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "mover")),
		targets:  targets,
		notifier: notifier,
	}
}

// SetLogger replaces the handler's logger; the workflow manager injects
// lane-scoped loggers through this hook.
func (m *Mover) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	m.logger = logger.With(logging.String(logging.FieldComponent, "mover"))
}

// Prepare logs the move start for a freshly claimed job.
func (m *Mover) Prepare(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("starting library move", logging.String(logging.FieldFolder, job.FolderPath))
	return nil
}

// Execute relocates the folder to its proposal-derived destination and marks
// the job completed. Failures leave the source folder untouched.
func (m *Mover) Execute(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, m.logger)

	proposal, err := stage.RequireProposal(job)
	if err != nil {
		return err
	}

	srcInfo, err := os.Stat(job.FolderPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "mover", "stat source",
			"Source folder is missing; it may have been moved or deleted outside the pipeline", err)
	}
	if !srcInfo.IsDir() {
		return services.Wrap(services.ErrValidation, "mover", "stat source",
			"Source path is not a directory", nil)
	}

	dst := DestinationDir(m.targets.CurrentTarget(), proposal)
	logger.Info("relocating folder",
		logging.String("destination", dst),
		logging.String("artist", proposal.Artist),
		logging.String("album", proposal.Album),
		logging.Int("year", proposal.Year),
	)

	if err := relocate(job.FolderPath, dst); err != nil {
		if errors.Is(err, errDestinationExists) {
			return services.Wrap(services.ErrValidation, "mover", "check destination",
				"Destination already exists; adjust the proposal or clear the existing folder, then reconsider", err)
		}
		return services.Wrap(services.ErrTransient, "mover", "relocate folder",
			"Failed to move folder into the library", err)
	}

	ok, err := m.store.MarkCompleted(ctx, job.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "mover", "mark completed",
			"Folder moved but the completion could not be persisted", err)
	}
	if !ok {
		return services.Wrap(services.ErrConflict, "mover", "mark completed",
			"Job left the moving status before completion landed", nil)
	}
	job.Status = jobs.StatusCompleted

	logger.Info("library move completed", logging.String("final_path", dst))
	if m.notifier != nil {
		if err := m.notifier.MoveCompleted(ctx, proposalLabel(proposal), dst); err != nil {
			logger.Warn("move notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the mover's configuration.
func (m *Mover) HealthCheck(ctx context.Context) stage.Health {
	const name = "mover"
	if m == nil || m.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if m.store == nil {
		return stage.Unhealthy(name, "job store unavailable")
	}
	if strings.TrimSpace(m.targets.CurrentTarget()) == "" {
		return stage.Unhealthy(name, "target library root not configured")
	}
	return stage.Healthy(name)
}
