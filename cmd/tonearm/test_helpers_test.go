package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tonearm/internal/config"
	"tonearm/internal/daemon"
	"tonearm/internal/events"
	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/paths"
	"tonearm/internal/stage"
	"tonearm/internal/testsupport"
	"tonearm/internal/workflow"
)

// noopProducer keeps the workflow manager satisfied without touching the
// store, so seeded jobs hold their status for the duration of a test.
type noopProducer struct{}

func (noopProducer) RunOnce(context.Context) (int, error) { return 0, nil }
func (noopProducer) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *jobs.Store
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}

	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Scanner: noopProducer{}})

	pathManager := paths.NewManager(cfg, configPath, logger)
	hub := events.NewHub(64)

	d, err := daemon.New(cfg, store, logger, mgr, pathManager, hub)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}

	t.Cleanup(func() {
		d.Close()
		cancel()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		apiAddr:    d.APIAddr(),
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--api", apiAddr}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nsource_dir = %q\ntarget_dir = %q\nstate_dir = %q\nlog_dir = %q\napi_bind = %q\n",
		cfg.Paths.SourceDir,
		cfg.Paths.TargetDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// seedFolder creates a real directory under the source root and walks a job
// for it to the requested status.
func seedFolder(t *testing.T, env *cliTestEnv, name string, status jobs.Status) *jobs.Job {
	t.Helper()
	dir := filepath.Join(env.cfg.Paths.SourceDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", name, err)
	}
	return testsupport.SeedJob(t, env.store, dir, status)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
