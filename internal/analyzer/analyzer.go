package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"tonearm/internal/config"
	"tonearm/internal/jobs"
	"tonearm/internal/library"
	"tonearm/internal/logging"
	"tonearm/internal/notifications"
	"tonearm/internal/services"
	"tonearm/internal/stage"
)

// ProposalSource abstracts the remote analyzer so tests can inject fakes.
type ProposalSource interface {
	Configured() bool
	Propose(ctx context.Context, req Request) (jobs.Proposal, error)
}

// Analyzer is the analyze stage handler. It snapshots a claimed folder,
// classifies it, and either fans out collection members, skips audio-free
// folders, or lands a proposal for review.
type Analyzer struct {
	store    *jobs.Store
	cfg      *config.Config
	logger   *slog.Logger
	source   ProposalSource
	notifier notifications.Service
}

// New creates the analyze stage handler with the configured proposal source.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Analyzer {
	client := NewClient(Config{
		APIKey:         cfg.Analyzer.APIKey,
		BaseURL:        cfg.Analyzer.BaseURL,
		Model:          cfg.Analyzer.Model,
		TimeoutSeconds: cfg.Analyzer.TimeoutSeconds,
	})
	return NewWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewWithDependencies allows injecting the proposal source and notifier (used in tests).
func NewWithDependencies(cfg *config.Config, store *jobs.Store, logger *slog.Logger, source ProposalSource, notifier notifications.Service) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		store:    store,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "analyzer")),
		source:   source,
		notifier: notifier,
	}
}

// SetLogger replaces the handler's logger; the workflow manager injects
// lane-scoped loggers through this hook.
func (a *Analyzer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	a.logger = logger.With(logging.String(logging.FieldComponent, "analyzer"))
}

// Prepare logs the analysis start for a freshly claimed job.
func (a *Analyzer) Prepare(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, a.logger)
	logger.Info("starting folder analysis",
		logging.String(logging.FieldFolder, job.FolderPath),
		logging.Bool("has_feedback", strings.TrimSpace(job.UserFeedback) != ""),
		logging.Bool("has_artist_hint", strings.TrimSpace(job.ArtistHint) != ""),
	)
	return nil
}

// Execute snapshots and classifies the folder, then lands the outcome
// transition: skipped for silent folders and fanned-out collections, ready
// once a proposal is stored.
func (a *Analyzer) Execute(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, a.logger)

	snapshot, err := library.Take(job.FolderPath)
	if err != nil {
		return services.Wrap(services.ErrTransient, "analyzer", "read folder",
			"Folder could not be read; fix permissions or path and submit a reconsider verdict", err)
	}
	metadataJSON, err := snapshot.JSON()
	if err != nil {
		return services.Wrap(services.ErrTransient, "analyzer", "encode metadata",
			"Failed to encode folder metadata", err)
	}
	if err := a.store.UpdateMetadata(ctx, job.ID, metadataJSON); err != nil {
		return services.Wrap(services.ErrTransient, "analyzer", "persist metadata",
			"Failed to persist folder metadata", err)
	}
	job.MetadataJSON = metadataJSON

	kind := snapshot.Classify()
	logger.Info("folder classified",
		logging.String("kind", string(kind)),
		logging.Int("audio_files", snapshot.AudioFileCount),
		logging.Int("direct_audio", snapshot.DirectAudio),
		logging.Int("audio_subdirs", len(snapshot.AudioSubdirs)),
	)

	switch kind {
	case library.KindNoAudio:
		return a.markSkipped(ctx, logger, job, "no audio files")
	case library.KindCollection:
		return a.fanOutCollection(ctx, logger, job, snapshot)
	}

	req := Request{
		FolderName: snapshot.FolderName,
		Snapshot:   snapshot,
		ArtistHint: job.ArtistHint,
		Feedback:   job.UserFeedback,
	}

	var proposal jobs.Proposal
	if a.source != nil && a.source.Configured() {
		proposal, err = a.source.Propose(ctx, req)
		if err != nil {
			return services.Wrap(services.ErrTransient, "analyzer", "propose",
				"Analyzer call failed; submit a reconsider verdict to retry", err)
		}
	} else {
		proposal = FallbackProposal(req)
		logger.Info("analyzer not configured, using heuristic proposal")
	}

	encoded, err := proposal.JSON()
	if err != nil {
		return services.Wrap(services.ErrTransient, "analyzer", "encode proposal",
			"Failed to encode proposal", err)
	}
	ok, err := a.store.MarkReady(ctx, job.ID, encoded)
	if err != nil {
		return services.Wrap(services.ErrTransient, "analyzer", "mark ready",
			"Failed to persist proposal", err)
	}
	if !ok {
		return services.Wrap(services.ErrConflict, "analyzer", "mark ready",
			"Job left the analyzing status before the proposal landed", nil)
	}
	job.Status = jobs.StatusReady
	job.ProposalJSON = encoded

	logger.Info("proposal ready for review",
		logging.String("artist", proposal.Artist),
		logging.String("album", proposal.Album),
		logging.Int("year", proposal.Year),
		logging.String("release_type", proposal.ReleaseType),
		logging.String("confidence", proposal.Confidence),
	)
	if a.notifier != nil {
		if err := a.notifier.ProposalReady(ctx, snapshot.FolderName, proposal.Artist, proposal.Album); err != nil {
			logger.Warn("proposal notification failed", logging.Error(err))
		}
	}
	return nil
}

func (a *Analyzer) fanOutCollection(ctx context.Context, logger *slog.Logger, job *jobs.Job, snapshot *library.Snapshot) error {
	queued := 0
	for _, sub := range snapshot.AudioSubdirs {
		child := filepath.Join(job.FolderPath, sub)
		if _, err := a.store.EnqueueWithHint(ctx, child, jobs.TypeAnalyze, snapshot.FolderName); err != nil {
			if errors.Is(err, jobs.ErrActiveJobExists) {
				logger.Debug("collection member already tracked", logging.String("member", child))
				continue
			}
			return services.Wrap(services.ErrTransient, "analyzer", "enqueue collection member",
				"Could not queue a collection subfolder for analysis", err)
		}
		queued++
	}
	logger.Info("artist collection fanned out",
		logging.Int("members_queued", queued),
		logging.Int("members_total", len(snapshot.AudioSubdirs)),
	)
	return a.markSkipped(ctx, logger, job, "artist collection fanned out to per-album jobs")
}

func (a *Analyzer) markSkipped(ctx context.Context, logger *slog.Logger, job *jobs.Job, reason string) error {
	ok, err := a.store.MarkSkippedFromAnalyzing(ctx, job.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "analyzer", "mark skipped",
			"Failed to persist skip", err)
	}
	if !ok {
		return services.Wrap(services.ErrConflict, "analyzer", "mark skipped",
			"Job left the analyzing status before the skip landed", nil)
	}
	job.Status = jobs.StatusSkipped
	logger.Info("folder skipped", logging.String("reason", reason))
	return nil
}

// HealthCheck verifies the handler's dependencies. An unconfigured analyzer
// endpoint is still healthy because the heuristic fallback serves proposals.
func (a *Analyzer) HealthCheck(ctx context.Context) stage.Health {
	const name = "analyzer"
	if a == nil || a.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if a.store == nil {
		return stage.Unhealthy(name, "job store unavailable")
	}
	if a.source == nil || !a.source.Configured() {
		return stage.HealthyDetail(name, "analyzer endpoint not configured; heuristic proposals only")
	}
	return stage.Healthy(name)
}
