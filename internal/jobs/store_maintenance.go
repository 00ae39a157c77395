package jobs

import (
	"context"
	"fmt"
)

// HealthSummary describes aggregated job counts for key lifecycle states.
type HealthSummary struct {
	Total          int
	Queued         int
	InFlight       int
	AwaitingReview int
	Errored        int
	Processed      int
}

// Counts returns the number of jobs per status. Every known status is
// present in the result, zero-filled, so callers never distinguish "no
// jobs" from "missing key".
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	counts := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		counts[status] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Total returns the number of jobs ever created.
func (s *Store) Total(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("job total: %w", err)
	}
	return total, nil
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range counts {
		health.Total += count
		switch status {
		case StatusQueued:
			health.Queued += count
		case StatusAnalyzing, StatusMoving:
			health.InFlight += count
		case StatusReady, StatusAccepted:
			health.AwaitingReview += count
		case StatusError:
			health.Errored += count
		case StatusSkipped, StatusCompleted:
			health.Processed += count
		}
	}
	return health, nil
}
