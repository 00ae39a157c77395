package workflow

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/services"
)

// processJob runs one claimed job through its lane's handler. The job is
// already in the lane's in-flight status; the handler lands its own
// success transition, this method captures failures.
func (m *Manager) processJob(ctx context.Context, lane *claimLane, job *jobs.Job) {
	jobCtx := services.WithRequestID(
		services.WithLane(services.WithJobID(ctx, job.ID), lane.name),
		uuid.NewString(),
	)
	cancel := func() {}
	if lane.timeout > 0 {
		jobCtx, cancel = context.WithTimeout(jobCtx, lane.timeout)
	}
	defer cancel()

	logger := logging.WithContext(jobCtx, lane.logger)
	if aware, ok := lane.handler.(loggerAware); ok {
		aware.SetLogger(lane.logger)
	}

	logger.Info("job claimed",
		logging.String(logging.FieldFolder, job.FolderPath),
		logging.String(logging.FieldStatus, string(job.Status)))
	m.announce(ctx)

	start := time.Now()
	err := lane.handler.Prepare(jobCtx, job)
	if err == nil {
		err = lane.handler.Execute(jobCtx, job)
	}
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown mid-job. Leave it in flight; startup recovery
			// returns it to its queue.
			logger.Debug("job interrupted by shutdown",
				logging.String(logging.FieldFolder, job.FolderPath))
			return
		}
		m.captureFailure(ctx, lane, logger, job, err)
		return
	}

	logger.Info("job finished",
		logging.String(logging.FieldFolder, job.FolderPath),
		logging.String(logging.FieldStatus, string(job.Status)),
		logging.Duration("job_duration", time.Since(start)))
	m.announce(ctx)
}

// captureFailure records an Execute error on the job. The write runs on
// the lane context, not the job context, so a job timeout cannot block its
// own failure from landing.
func (m *Manager) captureFailure(ctx context.Context, lane *claimLane, logger *slog.Logger, job *jobs.Job, jobErr error) {
	m.setLastError(jobErr)

	message := strings.TrimSpace(jobErr.Error())
	won, err := m.store.MarkError(ctx, job.ID, lane.to, message)
	if err != nil {
		logger.Error("job failure could not be recorded", logging.Error(err))
		return
	}
	if !won {
		logger.Warn("job changed status before its failure landed",
			logging.String(logging.FieldFolder, job.FolderPath))
		return
	}
	job.Status = jobs.StatusError
	job.ErrorMessage = message

	logger.Error("job failed",
		logging.Error(jobErr),
		logging.String(logging.FieldFolder, job.FolderPath),
		logging.String(logging.FieldErrorHint, failureHint(jobErr)))

	if m.notifier != nil {
		if nerr := m.notifier.JobFailed(ctx, filepath.Base(job.FolderPath), jobErr); nerr != nil {
			logger.Debug("failure notification failed", logging.Error(nerr))
		}
	}
	m.announce(ctx)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "fix the configuration, then submit a reconsider verdict"
	case errors.Is(err, services.ErrValidation):
		return "adjust the proposal or folder, then submit a reconsider verdict"
	case errors.Is(err, services.ErrConflict):
		return "the job moved on; no action needed"
	default:
		return "submit a reconsider verdict to retry"
	}
}
