package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnalyzer()
	c.normalizeWorkers()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	// Library roots may stay empty until staged through the API.
	if strings.TrimSpace(c.Paths.SourceDir) != "" {
		if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
			return fmt.Errorf("paths.source_dir: %w", err)
		}
	} else {
		c.Paths.SourceDir = ""
	}
	if strings.TrimSpace(c.Paths.TargetDir) != "" {
		if c.Paths.TargetDir, err = expandPath(c.Paths.TargetDir); err != nil {
			return fmt.Errorf("paths.target_dir: %w", err)
		}
	} else {
		c.Paths.TargetDir = ""
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeAnalyzer() {
	c.Analyzer.APIKey = strings.TrimSpace(c.Analyzer.APIKey)
	if c.Analyzer.APIKey == "" {
		if value, ok := os.LookupEnv("TONEARM_ANALYZER_API_KEY"); ok {
			c.Analyzer.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Analyzer.APIKey = strings.TrimSpace(value)
		}
	}
	c.Analyzer.BaseURL = strings.TrimSpace(c.Analyzer.BaseURL)
	if c.Analyzer.BaseURL == "" {
		c.Analyzer.BaseURL = defaultAnalyzerBaseURL
	}
	c.Analyzer.Model = strings.TrimSpace(c.Analyzer.Model)
	if c.Analyzer.Model == "" {
		c.Analyzer.Model = defaultAnalyzerModel
	}
	if c.Analyzer.TimeoutSeconds <= 0 {
		c.Analyzer.TimeoutSeconds = defaultAnalyzerTimeoutSeconds
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.ScanIntervalSeconds <= 0 {
		c.Workers.ScanIntervalSeconds = defaultScanIntervalSeconds
	}
	if c.Workers.AnalyzeIntervalSeconds <= 0 {
		c.Workers.AnalyzeIntervalSeconds = defaultAnalyzeIntervalSeconds
	}
	if c.Workers.MoveIntervalSeconds <= 0 {
		c.Workers.MoveIntervalSeconds = defaultMoveIntervalSeconds
	}
	if c.Workers.MoveTimeoutSeconds <= 0 {
		c.Workers.MoveTimeoutSeconds = defaultMoveTimeoutSeconds
	}
	if c.Workers.StaleJobTimeoutSeconds <= 0 {
		c.Workers.StaleJobTimeoutSeconds = defaultStaleJobTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "":
		c.Logging.Format = defaultLogFormat
	case "auto", "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
