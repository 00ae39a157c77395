package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	SourceDir string `toml:"source_dir"`
	TargetDir string `toml:"target_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Analyzer contains connection settings for the external metadata analyzer.
type Analyzer struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workers contains polling intervals and timeouts for the pipeline lanes.
type Workers struct {
	ScanIntervalSeconds    int `toml:"scan_interval_seconds"`
	AnalyzeIntervalSeconds int `toml:"analyze_interval_seconds"`
	MoveIntervalSeconds    int `toml:"move_interval_seconds"`
	MoveTimeoutSeconds     int `toml:"move_timeout_seconds"`
	StaleJobTimeoutSeconds int `toml:"stale_job_timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for tonearm.
//
// Configuration sections by subsystem:
//   - Paths: library roots, state/log directories, API bind address
//   - Analyzer: external metadata analyzer connection settings
//   - Workers: lane polling intervals and timeouts
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Analyzer      Analyzer      `toml:"analyzer"`
	Workers       Workers       `toml:"workers"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tonearm/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tonearm.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation. The
// target library root is created on a best-effort basis so the daemon can run
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.TargetDir) != "" {
		_ = os.MkdirAll(c.Paths.TargetDir, 0o755)
	}
	return nil
}

// DatabasePath returns the SQLite file backing the job store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// ScanInterval returns the scan lane polling interval.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Workers.ScanIntervalSeconds) * time.Second
}

// AnalyzeInterval returns the analyze lane polling interval.
func (c *Config) AnalyzeInterval() time.Duration {
	return time.Duration(c.Workers.AnalyzeIntervalSeconds) * time.Second
}

// MoveInterval returns the move lane polling interval.
func (c *Config) MoveInterval() time.Duration {
	return time.Duration(c.Workers.MoveIntervalSeconds) * time.Second
}

// MoveTimeout bounds a single folder relocation.
func (c *Config) MoveTimeout() time.Duration {
	return time.Duration(c.Workers.MoveTimeoutSeconds) * time.Second
}

// AnalyzeTimeout bounds a single analyzer call.
func (c *Config) AnalyzeTimeout() time.Duration {
	return time.Duration(c.Analyzer.TimeoutSeconds) * time.Second
}

// StaleJobTimeout is the age after which in-flight jobs are considered
// abandoned and rolled back by the watchdog.
func (c *Config) StaleJobTimeout() time.Duration {
	return time.Duration(c.Workers.StaleJobTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Save writes the configuration back to path as TOML. Used by the path
// staging manager when a confirm promotes new library roots.
func (c *Config) Save(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("save config: empty path")
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
