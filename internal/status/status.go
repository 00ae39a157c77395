package status

import (
	"context"
	"path/filepath"
	"time"

	"tonearm/internal/jobs"
	"tonearm/internal/paths"
	"tonearm/internal/services"
)

const (
	defaultReadyLimit  = 100
	defaultRecentLimit = 20
)

// ReadyFolder is one proposal awaiting review.
type ReadyFolder struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// JobSummary is the compact job view used in diagnostics listings.
type JobSummary struct {
	ID         int64        `json:"id"`
	Status     jobs.Status  `json:"status"`
	FolderPath string       `json:"folder_path"`
	JobType    jobs.JobType `json:"job_type"`
	Error      string       `json:"error,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Snapshot is the aggregated pipeline state at one instant.
type Snapshot struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Counts      map[jobs.Status]int `json:"counts"`
	Processed   int                 `json:"processed"`
	Total       int                 `json:"total"`
	SourceDir   string              `json:"source_dir"`
	TargetDir   string              `json:"target_dir"`
	Ready       []ReadyFolder       `json:"ready"`
	Recent      []JobSummary        `json:"recent"`
}

// Roots supplies the active library roots for snapshots.
type Roots interface {
	Current() paths.Snapshot
}

// Aggregator computes snapshots from the job store.
type Aggregator struct {
	store *jobs.Store
	roots Roots
}

// NewAggregator constructs a snapshot aggregator. roots may be nil when no
// path manager is wired (snapshots then omit the roots).
func NewAggregator(store *jobs.Store, roots Roots) *Aggregator {
	return &Aggregator{store: store, roots: roots}
}

// Snapshot recomputes the full pipeline state. Processed and total derive
// from the same counts read, so counts always sum to total.
func (a *Aggregator) Snapshot(ctx context.Context) (*Snapshot, error) {
	counts, err := a.store.Counts(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "status", "count jobs",
			"Status counts could not be read", err)
	}

	snapshot := &Snapshot{
		GeneratedAt: time.Now().UTC(),
		Counts:      counts,
	}
	for status, count := range counts {
		snapshot.Total += count
		if status.IsTerminal() {
			snapshot.Processed += count
		}
	}

	if a.roots != nil {
		roots := a.roots.Current()
		snapshot.SourceDir = roots.SourceDir
		snapshot.TargetDir = roots.TargetDir
	}

	snapshot.Ready, err = a.Ready(ctx, defaultReadyLimit)
	if err != nil {
		return nil, err
	}
	snapshot.Recent, err = a.RecentJobs(ctx, defaultRecentLimit)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Ready lists folders whose proposals await review, oldest first.
func (a *Aggregator) Ready(ctx context.Context, limit int) ([]ReadyFolder, error) {
	if limit <= 0 {
		limit = defaultReadyLimit
	}
	ready, err := a.store.ReadyJobs(ctx, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "status", "list ready jobs",
			"Ready listing could not be read", err)
	}
	folders := make([]ReadyFolder, 0, len(ready))
	for _, job := range ready {
		folders = append(folders, ReadyFolder{
			Path: job.FolderPath,
			Name: filepath.Base(job.FolderPath),
		})
	}
	return folders, nil
}

// RecentJobs lists the newest job rows for diagnostics, newest first.
func (a *Aggregator) RecentJobs(ctx context.Context, limit int) ([]JobSummary, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	recent, err := a.store.Recent(ctx, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "status", "list recent jobs",
			"Recent job listing could not be read", err)
	}
	summaries := make([]JobSummary, 0, len(recent))
	for _, job := range recent {
		summaries = append(summaries, JobSummary{
			ID:         job.ID,
			Status:     job.Status,
			FolderPath: job.FolderPath,
			JobType:    job.Type,
			Error:      job.ErrorMessage,
			UpdatedAt:  job.UpdatedAt,
		})
	}
	return summaries, nil
}
