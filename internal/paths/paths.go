package paths

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"tonearm/internal/config"
	"tonearm/internal/logging"
	"tonearm/internal/services"
)

// Snapshot is an immutable view of the active library roots.
type Snapshot struct {
	SourceDir string `json:"source_dir"`
	TargetDir string `json:"target_dir"`
}

// Staged holds proposed root changes that have not been confirmed yet.
// Empty fields mean the current value is kept.
type Staged struct {
	SourceDir string `json:"source_dir,omitempty"`
	TargetDir string `json:"target_dir,omitempty"`
}

// Empty reports whether nothing is staged.
func (s Staged) Empty() bool {
	return s.SourceDir == "" && s.TargetDir == ""
}

// Manager owns the active roots and the two-phase change protocol.
// Readers such as the scan producer and the move stage consult it every
// cycle, so a confirmed change applies without a daemon restart.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	cfg     *config.Config
	cfgPath string
	current Snapshot
	staged  Staged
}

// NewManager seeds the live roots from cfg. cfgPath is where a confirm
// persists the promoted roots; an empty path keeps changes in memory only.
func NewManager(cfg *config.Config, cfgPath string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		logger:  logger.With(logging.String(logging.FieldComponent, "paths")),
		cfg:     cfg,
		cfgPath: cfgPath,
		current: Snapshot{
			SourceDir: cfg.Paths.SourceDir,
			TargetDir: cfg.Paths.TargetDir,
		},
	}
}

// Current returns the active roots.
func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CurrentSource returns the active source root.
func (m *Manager) CurrentSource() string {
	return m.Current().SourceDir
}

// CurrentTarget returns the active target root.
func (m *Manager) CurrentTarget() string {
	return m.Current().TargetDir
}

// State returns the active roots together with any staged changes.
func (m *Manager) State() (Snapshot, Staged) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.staged
}

// StageSource records a proposed source root. The active pipeline is not
// affected until Confirm.
func (m *Manager) StageSource(dir string) (Staged, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expanded, err := m.expandRoot("source", dir)
	if err != nil {
		return m.staged, err
	}
	if expanded == m.pendingTarget() {
		return m.staged, services.Wrap(services.ErrConfiguration, "paths", "stage source",
			"Source and target roots must be different directories", nil)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return m.staged, services.Wrap(services.ErrConfiguration, "paths", "stage source",
			fmt.Sprintf("Source root %s is not accessible", expanded), err)
	}
	if !info.IsDir() {
		return m.staged, services.Wrap(services.ErrConfiguration, "paths", "stage source",
			fmt.Sprintf("Source root %s is not a directory", expanded), nil)
	}

	m.staged.SourceDir = expanded
	m.logger.Info("source root staged", logging.String("source_dir", expanded))
	return m.staged, nil
}

// StageTarget records a proposed target root. The directory does not have
// to exist yet; Confirm creates it.
func (m *Manager) StageTarget(dir string) (Staged, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expanded, err := m.expandRoot("target", dir)
	if err != nil {
		return m.staged, err
	}
	if expanded == m.pendingSource() {
		return m.staged, services.Wrap(services.ErrConfiguration, "paths", "stage target",
			"Source and target roots must be different directories", nil)
	}
	if info, err := os.Stat(expanded); err == nil && !info.IsDir() {
		return m.staged, services.Wrap(services.ErrConfiguration, "paths", "stage target",
			fmt.Sprintf("Target root %s exists and is not a directory", expanded), nil)
	}

	m.staged.TargetDir = expanded
	m.logger.Info("target root staged", logging.String("target_dir", expanded))
	return m.staged, nil
}

// Confirm promotes the staged roots to current, persists them, and clears
// the staged values. Jobs already in flight keep the paths they recorded.
func (m *Manager) Confirm() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged.Empty() {
		return m.current, services.Wrap(services.ErrValidation, "paths", "confirm",
			"No staged path changes to confirm", nil)
	}

	next := m.current
	if m.staged.SourceDir != "" {
		next.SourceDir = m.staged.SourceDir
	}
	if m.staged.TargetDir != "" {
		next.TargetDir = m.staged.TargetDir
	}
	if next.SourceDir == next.TargetDir {
		return m.current, services.Wrap(services.ErrConfiguration, "paths", "confirm",
			"Source and target roots must be different directories", nil)
	}
	if _, err := os.ReadDir(next.SourceDir); err != nil {
		return m.current, services.Wrap(services.ErrConfiguration, "paths", "confirm",
			fmt.Sprintf("Source root %s is not readable", next.SourceDir), err)
	}
	if err := os.MkdirAll(next.TargetDir, 0o755); err != nil {
		return m.current, services.Wrap(services.ErrConfiguration, "paths", "confirm",
			fmt.Sprintf("Target root %s could not be created", next.TargetDir), err)
	}
	if m.cfgPath != "" {
		persisted := *m.cfg
		persisted.Paths.SourceDir = next.SourceDir
		persisted.Paths.TargetDir = next.TargetDir
		if err := persisted.Save(m.cfgPath); err != nil {
			return m.current, services.Wrap(services.ErrConfiguration, "paths", "confirm",
				"Promoted roots could not be written to the config file", err)
		}
	}

	m.current = next
	m.staged = Staged{}
	m.logger.Info("library roots confirmed",
		logging.String("source_dir", next.SourceDir),
		logging.String("target_dir", next.TargetDir))
	return m.current, nil
}

// Cancel discards any staged changes and returns the unchanged roots.
func (m *Manager) Cancel() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.staged.Empty() {
		m.logger.Info("staged path changes discarded")
	}
	m.staged = Staged{}
	return m.current
}

func (m *Manager) expandRoot(role, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", services.Wrap(services.ErrConfiguration, "paths", "stage "+role,
			fmt.Sprintf("A %s root path is required", role), nil)
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "paths", "stage "+role,
			fmt.Sprintf("Could not resolve %s root %s", role, dir), err)
	}
	return expanded, nil
}

// pendingTarget is the target that would apply if Confirm ran now.
func (m *Manager) pendingTarget() string {
	if m.staged.TargetDir != "" {
		return m.staged.TargetDir
	}
	return m.current.TargetDir
}

func (m *Manager) pendingSource() string {
	if m.staged.SourceDir != "" {
		return m.staged.SourceDir
	}
	return m.current.SourceDir
}
