package scanner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tonearm/internal/jobs"
	"tonearm/internal/scanner"
	"tonearm/internal/services"
	"tonearm/internal/testsupport"
)

type recordingNotifier struct {
	summaries []int
}

func (r *recordingNotifier) ProposalReady(context.Context, string, string, string) error { return nil }
func (r *recordingNotifier) MoveCompleted(context.Context, string, string) error         { return nil }
func (r *recordingNotifier) JobFailed(context.Context, string, error) error              { return nil }

func (r *recordingNotifier) ScanSummary(_ context.Context, discovered int) error {
	r.summaries = append(r.summaries, discovered)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

type switchableSource struct {
	dir string
}

func (s *switchableSource) CurrentSource() string { return s.dir }

func mkdir(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	return path
}

func TestScannerQueuesNewFolders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	albumA := mkdir(t, filepath.Join(cfg.Paths.SourceDir, "1971 - Blue"))
	albumB := mkdir(t, filepath.Join(cfg.Paths.SourceDir, "Harvest"))
	mkdir(t, filepath.Join(cfg.Paths.SourceDir, ".incomplete"))
	if err := os.WriteFile(filepath.Join(cfg.Paths.SourceDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	notifier := &recordingNotifier{}
	producer := scanner.NewWithDependencies(cfg, store, nil, nil, notifier)

	discovered, err := producer.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if discovered != 2 {
		t.Fatalf("discovered = %d, want 2", discovered)
	}

	queued, err := store.List(ctx, jobs.StatusQueued)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	paths := map[string]bool{}
	for _, job := range queued {
		paths[job.FolderPath] = true
		if job.Type != jobs.TypeScanDiscovered {
			t.Fatalf("job type = %s, want scan-discovered", job.Type)
		}
	}
	if !paths[albumA] || !paths[albumB] || len(paths) != 2 {
		t.Fatalf("unexpected queued folders %v", paths)
	}
	if len(notifier.summaries) != 1 || notifier.summaries[0] != 2 {
		t.Fatalf("unexpected scan summaries %v", notifier.summaries)
	}

	discovered, err = producer.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if discovered != 0 {
		t.Fatalf("second cycle discovered = %d, want 0", discovered)
	}
	if len(notifier.summaries) != 1 {
		t.Fatalf("idle cycle must not notify, got %v", notifier.summaries)
	}
}

func TestScannerTerminalRecordSuppressesRequeue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	done := mkdir(t, filepath.Join(cfg.Paths.SourceDir, "Already Filed"))
	pending := mkdir(t, filepath.Join(cfg.Paths.SourceDir, "Awaiting Review"))
	fresh := mkdir(t, filepath.Join(cfg.Paths.SourceDir, "Brand New"))
	testsupport.SeedJob(t, store, done, jobs.StatusCompleted)
	testsupport.SeedJob(t, store, pending, jobs.StatusReady)

	producer := scanner.NewWithDependencies(cfg, store, nil, nil, &recordingNotifier{})
	discovered, err := producer.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if discovered != 1 {
		t.Fatalf("discovered = %d, want only the unseen folder", discovered)
	}

	latest, err := store.LatestForFolder(ctx, done)
	if err != nil {
		t.Fatalf("LatestForFolder: %v", err)
	}
	if latest.Status != jobs.StatusCompleted {
		t.Fatalf("terminal folder status = %s, want completed", latest.Status)
	}
	total, err := store.Total(ctx)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if total != 3 {
		t.Fatalf("total jobs = %d, want 3", total)
	}
	queued, err := store.List(ctx, jobs.StatusQueued)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(queued) != 1 || queued[0].FolderPath != fresh {
		t.Fatalf("unexpected queued jobs %+v", queued)
	}
}

func TestScannerReportsUnreadableSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sources := &switchableSource{dir: filepath.Join(testsupport.BaseDir(cfg), "unmounted")}
	producer := scanner.NewWithDependencies(cfg, store, nil, sources, &recordingNotifier{})

	discovered, err := producer.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected unreadable source to fail the cycle")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
	if discovered != 0 {
		t.Fatalf("discovered = %d, want 0", discovered)
	}
}

func TestScannerIdlesWhenSourceUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	producer := scanner.NewWithDependencies(cfg, store, nil, &switchableSource{}, &recordingNotifier{})
	discovered, err := producer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if discovered != 0 {
		t.Fatalf("discovered = %d, want 0", discovered)
	}
}

func TestScannerFollowsLiveSourceRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := testsupport.BaseDir(cfg)
	firstRoot := mkdir(t, filepath.Join(base, "incoming-a"))
	secondRoot := mkdir(t, filepath.Join(base, "incoming-b"))
	mkdir(t, filepath.Join(firstRoot, "From First"))
	wantSecond := mkdir(t, filepath.Join(secondRoot, "From Second"))

	sources := &switchableSource{dir: firstRoot}
	producer := scanner.NewWithDependencies(cfg, store, nil, sources, &recordingNotifier{})

	if discovered, err := producer.RunOnce(ctx); err != nil || discovered != 1 {
		t.Fatalf("first root cycle: discovered=%d err=%v", discovered, err)
	}

	sources.dir = secondRoot
	if discovered, err := producer.RunOnce(ctx); err != nil || discovered != 1 {
		t.Fatalf("second root cycle: discovered=%d err=%v", discovered, err)
	}
	latest, err := store.LatestForFolder(ctx, wantSecond)
	if err != nil {
		t.Fatalf("LatestForFolder: %v", err)
	}
	if latest == nil || latest.Status != jobs.StatusQueued {
		t.Fatalf("expected queued job under the promoted root, got %+v", latest)
	}
}

func TestScannerWatchdogRequeuesAbandonedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	abandoned := mkdir(t, filepath.Join(cfg.Paths.SourceDir, "Abandoned"))
	active := mkdir(t, filepath.Join(cfg.Paths.SourceDir, "Active"))
	stale := testsupport.SeedJob(t, store, abandoned, jobs.StatusAnalyzing)
	live := testsupport.SeedJob(t, store, active, jobs.StatusAnalyzing)
	testsupport.BackdateJob(t, store, stale.ID, cfg.StaleJobTimeout()+time.Hour)

	producer := scanner.NewWithDependencies(cfg, store, nil, nil, &recordingNotifier{})
	discovered, err := producer.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if discovered != 0 {
		t.Fatalf("watchdog recovery must not enqueue duplicates, discovered = %d", discovered)
	}

	recovered, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if recovered.Status != jobs.StatusQueued {
		t.Fatalf("stale job status = %s, want queued", recovered.Status)
	}
	untouched, err := store.GetByID(ctx, live.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if untouched.Status != jobs.StatusAnalyzing {
		t.Fatalf("fresh in-flight job status = %s, want analyzing", untouched.Status)
	}
}

func TestScannerHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mkdir(t, cfg.Paths.SourceDir)

	producer := scanner.NewWithDependencies(cfg, store, nil, nil, &recordingNotifier{})
	if health := producer.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy scanner, got %+v", health)
	}

	missing := scanner.NewWithDependencies(cfg, store, nil,
		&switchableSource{dir: filepath.Join(testsupport.BaseDir(cfg), "gone")}, &recordingNotifier{})
	if health := missing.HealthCheck(context.Background()); health.Ready || health.Detail == "" {
		t.Fatalf("expected unhealthy scanner with detail, got %+v", health)
	}

	unconfigured := scanner.NewWithDependencies(cfg, store, nil, &switchableSource{}, &recordingNotifier{})
	if health := unconfigured.HealthCheck(context.Background()); health.Ready {
		t.Fatalf("expected unhealthy scanner without source root, got %+v", health)
	}
}
