package config

const (
	defaultStateDir      = "~/.local/share/tonearm"
	defaultLogDir        = "~/.local/share/tonearm/logs"
	defaultAPIBind       = "127.0.0.1:7337"
	defaultLogFormat     = "auto"
	defaultLogLevel      = "info"
	defaultRetentionDays = 30

	defaultAnalyzerBaseURL        = "https://openrouter.ai/api/v1"
	defaultAnalyzerModel          = "google/gemini-3-flash-preview"
	defaultAnalyzerTimeoutSeconds = 60

	defaultScanIntervalSeconds    = 300
	defaultAnalyzeIntervalSeconds = 5
	defaultMoveIntervalSeconds    = 5
	defaultMoveTimeoutSeconds     = 600
	defaultStaleJobTimeoutSeconds = 1800

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Analyzer: Analyzer{
			BaseURL:        defaultAnalyzerBaseURL,
			Model:          defaultAnalyzerModel,
			TimeoutSeconds: defaultAnalyzerTimeoutSeconds,
		},
		Workers: Workers{
			ScanIntervalSeconds:    defaultScanIntervalSeconds,
			AnalyzeIntervalSeconds: defaultAnalyzeIntervalSeconds,
			MoveIntervalSeconds:    defaultMoveIntervalSeconds,
			MoveTimeoutSeconds:     defaultMoveTimeoutSeconds,
			StaleJobTimeoutSeconds: defaultStaleJobTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
