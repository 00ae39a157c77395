package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Enqueue inserts a queued job for a folder. The partial unique index
// rejects the insert when a non-terminal job already covers the folder;
// that case surfaces as ErrActiveJobExists.
func (s *Store) Enqueue(ctx context.Context, folderPath string, jobType JobType) (*Job, error) {
	return s.EnqueueWithHint(ctx, folderPath, jobType, "")
}

// EnqueueWithHint inserts a queued job carrying an artist hint for the
// analyzer. Used when an artist-collection folder fans out into per-album
// jobs.
func (s *Store) EnqueueWithHint(ctx context.Context, folderPath string, jobType JobType, artistHint string) (*Job, error) {
	folderPath = strings.TrimSpace(folderPath)
	if folderPath == "" {
		return nil, errors.New("folder path is empty")
	}
	if jobType == "" {
		jobType = TypeScanDiscovered
	}
	timestamp := nowStamp()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            job_type, folder_path, status, artist_hint, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		string(jobType),
		folderPath,
		StatusQueued,
		nullableString(artistHint),
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrActiveJobExists, folderPath)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. Returns nil when no row matches.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// LatestForFolder returns the newest job for a folder path, or nil when the
// folder has never been enqueued.
func (s *Store) LatestForFolder(ctx context.Context, folderPath string) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE folder_path = ? ORDER BY id DESC LIMIT 1`,
		folderPath,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest for folder: %w", err)
	}
	return job, nil
}

// HasJobForFolder reports whether any job, in any status, has ever been
// recorded for the folder. Terminal history counts: a skipped or completed
// record permanently suppresses re-discovery.
func (s *Store) HasJobForFolder(ctx context.Context, folderPath string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE folder_path = ? LIMIT 1`, folderPath).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check folder: %w", err)
	}
	return true, nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// NextForStatus returns the oldest job in the given status, or nil when none
// waits.
func (s *Store) NextForStatus(ctx context.Context, status Status) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		status,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next for status: %w", err)
	}
	return job, nil
}

// ReadyJobs returns jobs awaiting a human decision, oldest first. limit <= 0
// means no limit.
func (s *Store) ReadyJobs(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ? ORDER BY created_at, id`
	args := []any{StatusReady}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ready jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// Recent returns the most recently touched jobs, newest first, optionally
// filtered by status.
func (s *Store) Recent(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	if limit <= 0 {
		limit = 10
	}

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY updated_at DESC, id DESC LIMIT ?`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause, limit)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, 0, len(statuses)+1)
		for _, status := range statuses {
			args = append(args, status)
		}
		args = append(args, limit)
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("recent jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
