package main

import (
	"strings"

	"github.com/spf13/cobra"

	"tonearm/internal/daemonrun"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run the tonearm daemon in the foreground (internal)",
		Hidden:       true,
		Annotations:  map[string]string{"skipConfigLoad": "true"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ctx.apiFlag != nil {
				if addr := strings.TrimSpace(*ctx.apiFlag); addr != "" {
					cfg.Paths.APIBind = addr
				}
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				ConfigPath:  ctx.configPath,
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&development, "development", false, "Enable development logging output")
	return cmd
}
