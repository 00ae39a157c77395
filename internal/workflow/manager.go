package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tonearm/internal/config"
	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/notifications"
	"tonearm/internal/stage"
	"tonearm/internal/status"
)

// Producer is the scan-lane runner. Unlike claim lanes it is interval
// driven and reports how many jobs it queued.
type Producer interface {
	RunOnce(ctx context.Context) (int, error)
	HealthCheck(ctx context.Context) stage.Health
}

// StageSet bundles the concrete lane runners the manager orchestrates.
// Nil entries leave the corresponding lane unconfigured.
type StageSet struct {
	Scanner  Producer
	Analyzer stage.Handler
	Mover    stage.Handler
}

type loggerAware interface {
	SetLogger(*slog.Logger)
}

type claimLane struct {
	name     string
	handler  stage.Handler
	from     jobs.Status
	to       jobs.Status
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

type scanLane struct {
	producer Producer
	interval time.Duration
	logger   *slog.Logger
}

// Manager coordinates the polling lanes over one shared job store.
type Manager struct {
	cfg       *config.Config
	store     *jobs.Store
	logger    *slog.Logger
	notifier  notifications.Service
	announcer *status.Announcer

	scan   *scanLane
	claims []*claimLane

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a workflow manager with default dependencies.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom
// notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *jobs.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		notifier: notifier,
	}
}

// SetAnnouncer wires the status announcer so every transition pushes a
// snapshot event. Safe to leave unset.
func (m *Manager) SetAnnouncer(announcer *status.Announcer) {
	m.mu.Lock()
	m.announcer = announcer
	m.mu.Unlock()
}

// ConfigureStages registers the lane runners. Must be called before Start.
func (m *Manager) ConfigureStages(set StageSet) {
	var claims []*claimLane
	if set.Analyzer != nil {
		claims = append(claims, &claimLane{
			name:     "analyze",
			handler:  set.Analyzer,
			from:     jobs.StatusQueued,
			to:       jobs.StatusAnalyzing,
			interval: m.cfg.AnalyzeInterval(),
		})
	}
	if set.Mover != nil {
		claims = append(claims, &claimLane{
			name:     "move",
			handler:  set.Mover,
			from:     jobs.StatusAccepted,
			to:       jobs.StatusMoving,
			interval: m.cfg.MoveInterval(),
			timeout:  m.cfg.MoveTimeout(),
		})
	}
	var scan *scanLane
	if set.Scanner != nil {
		scan = &scanLane{producer: set.Scanner, interval: m.cfg.ScanInterval()}
	}

	m.mu.Lock()
	m.scan = scan
	m.claims = claims
	m.mu.Unlock()
}

func (m *Manager) announce(ctx context.Context) {
	m.mu.RLock()
	announcer := m.announcer
	m.mu.RUnlock()
	announcer.Announce(ctx)
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
