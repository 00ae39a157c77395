package paths_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tonearm/internal/config"
	"tonearm/internal/paths"
	"tonearm/internal/services"
	"tonearm/internal/testsupport"
)

func TestManagerStageSourceValidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := paths.NewManager(cfg, "", nil)

	if _, err := manager.StageSource("   "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("empty source: expected configuration marker, got %v", err)
	}

	missing := filepath.Join(testsupport.BaseDir(cfg), "does-not-exist")
	if _, err := manager.StageSource(missing); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing source: expected configuration marker, got %v", err)
	}

	file := filepath.Join(testsupport.BaseDir(cfg), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := manager.StageSource(file); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("file source: expected configuration marker, got %v", err)
	}

	if _, err := manager.StageSource(cfg.Paths.TargetDir); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("source equal to target: expected configuration marker, got %v", err)
	}

	if _, staged := manager.State(); !staged.Empty() {
		t.Fatalf("rejected stages must leave nothing staged, got %+v", staged)
	}
}

func TestManagerStageTargetRejectsPendingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := paths.NewManager(cfg, "", nil)

	newSource := filepath.Join(testsupport.BaseDir(cfg), "dropbox")
	if err := os.MkdirAll(newSource, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := manager.StageSource(newSource); err != nil {
		t.Fatalf("StageSource: %v", err)
	}
	if _, err := manager.StageTarget(newSource); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("target equal to staged source: expected configuration marker, got %v", err)
	}
}

func TestManagerConfirmPromotesAndPersists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	cfgPath := filepath.Join(base, "tonearm.toml")
	manager := paths.NewManager(cfg, cfgPath, nil)

	newSource := filepath.Join(base, "dropbox")
	if err := os.MkdirAll(newSource, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	newTarget := filepath.Join(base, "archive", "music")

	if _, err := manager.StageSource(newSource); err != nil {
		t.Fatalf("StageSource: %v", err)
	}
	if _, err := manager.StageTarget(newTarget); err != nil {
		t.Fatalf("StageTarget: %v", err)
	}

	current, staged := manager.State()
	if current.SourceDir != cfg.Paths.SourceDir {
		t.Fatalf("staging must not change current roots, got %q", current.SourceDir)
	}
	if staged.SourceDir != newSource || staged.TargetDir != newTarget {
		t.Fatalf("unexpected staged values %+v", staged)
	}

	promoted, err := manager.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if promoted.SourceDir != newSource || promoted.TargetDir != newTarget {
		t.Fatalf("unexpected promoted roots %+v", promoted)
	}
	if got := manager.CurrentSource(); got != newSource {
		t.Fatalf("CurrentSource = %q, want %q", got, newSource)
	}
	if got := manager.CurrentTarget(); got != newTarget {
		t.Fatalf("CurrentTarget = %q, want %q", got, newTarget)
	}
	if _, staged := manager.State(); !staged.Empty() {
		t.Fatalf("confirm must clear staged values, got %+v", staged)
	}

	info, err := os.Stat(newTarget)
	if err != nil || !info.IsDir() {
		t.Fatalf("confirm must create the target root: %v", err)
	}

	reloaded, _, found, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected config file to exist after confirm")
	}
	if reloaded.Paths.SourceDir != newSource || reloaded.Paths.TargetDir != newTarget {
		t.Fatalf("persisted roots = %q, %q", reloaded.Paths.SourceDir, reloaded.Paths.TargetDir)
	}
}

func TestManagerConfirmRequiresStagedChange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := paths.NewManager(cfg, "", nil)

	if _, err := manager.Confirm(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestManagerConfirmRejectsUnreadableSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	manager := paths.NewManager(cfg, "", nil)

	newSource := filepath.Join(base, "dropbox")
	if err := os.MkdirAll(newSource, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := manager.StageSource(newSource); err != nil {
		t.Fatalf("StageSource: %v", err)
	}
	if err := os.RemoveAll(newSource); err != nil {
		t.Fatalf("remove staged source: %v", err)
	}

	if _, err := manager.Confirm(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
	if current := manager.Current(); current.SourceDir != cfg.Paths.SourceDir {
		t.Fatalf("failed confirm must not change current roots, got %q", current.SourceDir)
	}
}

func TestManagerCancelDiscardsStagedChange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	manager := paths.NewManager(cfg, "", nil)

	newSource := filepath.Join(base, "dropbox")
	if err := os.MkdirAll(newSource, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := manager.StageSource(newSource); err != nil {
		t.Fatalf("StageSource: %v", err)
	}

	current := manager.Cancel()
	if current.SourceDir != cfg.Paths.SourceDir {
		t.Fatalf("cancel must return unchanged roots, got %q", current.SourceDir)
	}
	if _, staged := manager.State(); !staged.Empty() {
		t.Fatalf("cancel must clear staged values, got %+v", staged)
	}
	if _, err := manager.Confirm(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("confirm after cancel: expected validation marker, got %v", err)
	}
}
