package testsupport

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"tonearm/internal/config"
	"tonearm/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedProposal is the canned proposal SeedJob attaches when walking a job
// past the analyzing status.
var SeedProposal = jobs.Proposal{
	Artist:     "Seed Artist",
	Album:      "Seed Album",
	Year:       2001,
	Confidence: "high",
}

// SeedJob inserts a job for folderPath and walks it to the requested status
// through legal transitions only.
func SeedJob(t testing.TB, store *jobs.Store, folderPath string, status jobs.Status) *jobs.Job {
	t.Helper()

	ctx := context.Background()
	job, err := store.Enqueue(ctx, folderPath, jobs.TypeScanDiscovered)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	if status == jobs.StatusQueued {
		return job
	}

	mustClaim := func(from, to jobs.Status) {
		won, err := store.Claim(ctx, job.ID, from, to)
		if err != nil || !won {
			t.Fatalf("claim %s->%s: won=%v err=%v", from, to, won, err)
		}
	}

	mustClaim(jobs.StatusQueued, jobs.StatusAnalyzing)
	if status == jobs.StatusAnalyzing {
		return refresh(t, store, job.ID)
	}

	if status == jobs.StatusError {
		if _, err := store.MarkError(ctx, job.ID, jobs.StatusAnalyzing, "seeded failure"); err != nil {
			t.Fatalf("store.MarkError: %v", err)
		}
		return refresh(t, store, job.ID)
	}

	proposalJSON, err := SeedProposal.JSON()
	if err != nil {
		t.Fatalf("proposal JSON: %v", err)
	}
	if _, err := store.MarkReady(ctx, job.ID, proposalJSON); err != nil {
		t.Fatalf("store.MarkReady: %v", err)
	}
	if status == jobs.StatusReady {
		return refresh(t, store, job.ID)
	}

	if status == jobs.StatusSkipped {
		if _, err := store.SkipDecision(ctx, job.ID); err != nil {
			t.Fatalf("store.SkipDecision: %v", err)
		}
		return refresh(t, store, job.ID)
	}

	if _, err := store.AcceptDecision(ctx, job.ID, proposalJSON); err != nil {
		t.Fatalf("store.AcceptDecision: %v", err)
	}
	if status == jobs.StatusAccepted {
		return refresh(t, store, job.ID)
	}

	mustClaim(jobs.StatusAccepted, jobs.StatusMoving)
	if status == jobs.StatusMoving {
		return refresh(t, store, job.ID)
	}

	if status == jobs.StatusCompleted {
		if _, err := store.MarkCompleted(ctx, job.ID); err != nil {
			t.Fatalf("store.MarkCompleted: %v", err)
		}
		return refresh(t, store, job.ID)
	}

	t.Fatalf("cannot seed status %s", status)
	return nil
}

// BackdateJob rewrites a job's updated_at so stale-handling paths can be
// exercised without sleeping. It opens a second connection to the store's
// database file; WAL mode makes that safe.
func BackdateJob(t testing.TB, store *jobs.Store, id int64, age time.Duration) {
	t.Helper()

	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	stamp := time.Now().UTC().Add(-age).Format(time.RFC3339Nano)
	res, err := db.Exec(`UPDATE jobs SET updated_at = ? WHERE id = ?`, stamp, id)
	if err != nil {
		t.Fatalf("backdate job %d: %v", id, err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		t.Fatalf("backdate job %d: rows=%d err=%v", id, n, err)
	}
}

func refresh(t testing.TB, store *jobs.Store, id int64) *jobs.Job {
	t.Helper()

	job, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetByID: %v", err)
	}
	if job == nil {
		t.Fatalf("job %d vanished", id)
	}
	return job
}
