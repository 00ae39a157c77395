package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tonearm/internal/config"
	"tonearm/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	apiBind := flag.String("api", "", "Override the configured API bind address")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, resolvedPath, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "prepare directories: %v\n", err)
		os.Exit(1)
	}
	if *apiBind != "" {
		cfg.Paths.APIBind = *apiBind
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		ConfigPath: resolvedPath,
		LogLevel:   *logLevel,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "tonearmd: %v\n", err)
		os.Exit(1)
	}
}
