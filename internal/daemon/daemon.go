package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"tonearm/internal/config"
	"tonearm/internal/events"
	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/paths"
	"tonearm/internal/review"
	"tonearm/internal/status"
	"tonearm/internal/workflow"
)

// Daemon coordinates the background pipeline and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *jobs.Store
	workflow *workflow.Manager
	paths    *paths.Manager
	hub      *events.Hub

	gateway    *review.Gateway
	aggregator *status.Aggregator
	announcer  *status.Announcer

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	JobDBPath    string
	LockFilePath string
}

// New constructs a daemon around initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, wf *workflow.Manager, pm *paths.Manager, hub *events.Hub) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil || pm == nil || hub == nil {
		return nil, errors.New("daemon requires config, store, workflow manager, path manager, and event hub")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	aggregator := status.NewAggregator(store, pm)
	lockPath := filepath.Join(cfg.Paths.StateDir, "tonearmd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		workflow:   wf,
		paths:      pm,
		hub:        hub,
		gateway:    review.NewGateway(store, logger),
		aggregator: aggregator,
		announcer:  status.NewAnnouncer(aggregator, hub, logger),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Announcer exposes the daemon's status announcer so the workflow manager
// can publish through the same hub.
func (d *Daemon) Announcer() *status.Announcer {
	return d.announcer
}

// Start acquires the daemon lock, launches the workflow lanes, and brings
// up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tonearm daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.workflow.Stop()
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("tonearm daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop winds down the API server and workflow lanes and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("tonearm daemon stopped")
}

// Close stops the daemon and releases the job store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr reports the listening address of the API server, empty before
// Start.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		JobDBPath:    d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
