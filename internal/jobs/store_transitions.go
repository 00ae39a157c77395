package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// claimNextAttempts bounds how many lost races ClaimNext absorbs before
// giving up until the next poll cycle.
const claimNextAttempts = 5

// Claim performs the atomic compare-and-swap that hands a job to a worker.
// Returns false when the job was not in the expected status, meaning another
// worker (or a human decision) got there first. started_at is stamped on the
// first claim into an in-flight status.
func (s *Store) Claim(ctx context.Context, id int64, from, to Status) (bool, error) {
	now := nowStamp()

	query := `UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	args := []any{to, now, id, from}
	if to.IsInFlight() {
		query = `UPDATE jobs
         SET status = ?, updated_at = ?, started_at = COALESCE(started_at, ?)
         WHERE id = ? AND status = ?`
		args = []any{to, now, now, id, from}
	}

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClaimNext picks the oldest job in the from status and claims it. A lost
// race silently advances to the next candidate. Returns nil when no
// claimable job remains.
func (s *Store) ClaimNext(ctx context.Context, from, to Status) (*Job, error) {
	for attempt := 0; attempt < claimNextAttempts; attempt++ {
		candidate, err := s.NextForStatus(ctx, from)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, nil
		}
		won, err := s.Claim(ctx, candidate.ID, from, to)
		if err != nil {
			return nil, err
		}
		if won {
			return s.GetByID(ctx, candidate.ID)
		}
	}
	return nil, nil
}

// UpdateMetadata stores the folder snapshot taken at analysis time.
func (s *Store) UpdateMetadata(ctx context.Context, id int64, metadataJSON string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET metadata_json = ?, updated_at = ? WHERE id = ?`,
		nullableString(metadataJSON),
		nowStamp(),
		id,
	); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}

// MarkReady records a successful analysis: analyzing -> ready with the
// proposal attached and any stale error cleared.
func (s *Store) MarkReady(ctx context.Context, id int64, proposalJSON string) (bool, error) {
	if strings.TrimSpace(proposalJSON) == "" {
		return false, errors.New("proposal required for ready transition")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, proposal_json = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusReady,
		proposalJSON,
		nowStamp(),
		id,
		StatusAnalyzing,
	)
	if err != nil {
		return false, fmt.Errorf("mark ready: %w", err)
	}
	return rowsChanged(res)
}

// MarkSkippedFromAnalyzing finishes a job the analyzer determined has
// nothing to process: no audio anywhere, or a collection folder whose
// albums were fanned out as their own jobs.
func (s *Store) MarkSkippedFromAnalyzing(ctx context.Context, id int64) (bool, error) {
	now := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusSkipped,
		now,
		now,
		id,
		StatusAnalyzing,
	)
	if err != nil {
		return false, fmt.Errorf("mark skipped: %w", err)
	}
	return rowsChanged(res)
}

// MarkCompleted records a successful move: moving -> completed.
func (s *Store) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	now := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, error_message = NULL, completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted,
		now,
		now,
		id,
		StatusMoving,
	)
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	return rowsChanged(res)
}

// MarkError records a stage failure with its message. Only in-flight jobs
// can fail; the job stays live until a human reconsiders it.
func (s *Store) MarkError(ctx context.Context, id int64, from Status, message string) (bool, error) {
	if !from.IsInFlight() {
		return false, fmt.Errorf("cannot fail from status %s", from)
	}
	if strings.TrimSpace(message) == "" {
		message = "unknown failure"
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusError,
		message,
		nowStamp(),
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("mark error: %w", err)
	}
	return rowsChanged(res)
}

// AcceptDecision applies a human accept: ready -> accepted with the final
// (possibly override-merged) proposal.
func (s *Store) AcceptDecision(ctx context.Context, id int64, proposalJSON string) (bool, error) {
	if strings.TrimSpace(proposalJSON) == "" {
		return false, errors.New("proposal required for accept")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, proposal_json = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusAccepted,
		proposalJSON,
		nowStamp(),
		id,
		StatusReady,
	)
	if err != nil {
		return false, fmt.Errorf("accept decision: %w", err)
	}
	return rowsChanged(res)
}

// RequeueForReconsideration applies a human reconsider: back to queued with
// feedback attached for the next analysis pass. Proposal, error, and
// completion marks are cleared so the job re-enters the pipeline clean.
func (s *Store) RequeueForReconsideration(ctx context.Context, id int64, from Status, feedback string) (bool, error) {
	if from != StatusReady && from != StatusError {
		return false, fmt.Errorf("cannot reconsider from status %s", from)
	}
	if strings.TrimSpace(feedback) == "" {
		return false, errors.New("feedback required for reconsideration")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, user_feedback = ?, proposal_json = NULL,
             error_message = NULL, completed_at = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusQueued,
		feedback,
		nowStamp(),
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("requeue for reconsideration: %w", err)
	}
	return rowsChanged(res)
}

// SkipDecision applies a human skip: ready -> terminal skipped.
func (s *Store) SkipDecision(ctx context.Context, id int64) (bool, error) {
	now := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusSkipped,
		now,
		now,
		id,
		StatusReady,
	)
	if err != nil {
		return false, fmt.Errorf("skip decision: %w", err)
	}
	return rowsChanged(res)
}

// ResetStaleJobs reverts in-flight jobs whose workers died without
// releasing them: analyzing back to queued, moving back to accepted. Only
// jobs untouched for longer than olderThan are affected; zero resets
// everything in flight, which is what startup recovery wants.
func (s *Store) ResetStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             updated_at = ?
         WHERE status IN (?, ?) AND updated_at < ?`,
		StatusAnalyzing, StatusQueued,
		StatusMoving, StatusAccepted,
		nowStamp(),
		StatusAnalyzing,
		StatusMoving,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stale jobs: %w", err)
	}
	return res.RowsAffected()
}

func rowsChanged(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
