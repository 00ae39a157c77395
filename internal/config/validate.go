package config

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable. Library roots are optional at
// startup (they can be staged through the API later) but must be absolute
// when present.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnalyzer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if dir := c.Paths.SourceDir; dir != "" && !filepath.IsAbs(dir) {
		return fmt.Errorf("paths.source_dir: %q is not absolute", dir)
	}
	if dir := c.Paths.TargetDir; dir != "" && !filepath.IsAbs(dir) {
		return fmt.Errorf("paths.target_dir: %q is not absolute", dir)
	}
	if src, dst := c.Paths.SourceDir, c.Paths.TargetDir; src != "" && src == dst {
		return fmt.Errorf("paths.target_dir: must differ from source_dir %q", src)
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind: %q is not host:port", c.Paths.APIBind)
	}
	return nil
}

func (c *Config) validateAnalyzer() error {
	parsed, err := url.Parse(c.Analyzer.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("analyzer.base_url: %q is not an absolute URL", c.Analyzer.BaseURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
