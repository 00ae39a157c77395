package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tonearm/internal/api"
	"tonearm/internal/daemonctl"
	"tonearm/internal/jobs"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tonearm daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				cmd.Context(),
				api.NewClient(ctx.apiAddr()),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the tonearm daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := daemonctl.StopAndTerminate(cfg, 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the tonearm daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				cmd.Context(),
				api.NewClient(ctx.apiAddr()),
				cfg,
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			overview, err := daemonctl.BuildOverview(cmd.Context(), api.NewClient(ctx.apiAddr()), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if overview.Running {
				fmt.Fprintln(stdout, renderStatusLine("Tonearm", statusOK, "Running", colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Tonearm", statusWarn, "Not running (run `tonearm start`)", colorize))
			}
			for _, check := range overview.Checks {
				kind := statusError
				if check.Passed {
					kind = statusOK
				}
				fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			if overview.NotificationsConfigured {
				fmt.Fprintln(stdout, renderStatusLine("Notifications", statusOK, "Configured", colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Notifications", statusInfo, "Not configured", colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Pipeline", colorize) {
				fmt.Fprintln(stdout, line)
			}
			snapshot := overview.Snapshot
			if snapshot == nil {
				fmt.Fprintln(stdout, "Job database is not readable")
				return nil
			}
			if snapshot.Total == 0 {
				fmt.Fprintln(stdout, "No jobs recorded")
				return nil
			}
			fmt.Fprintf(stdout, "Processed %d of %d folders\n", snapshot.Processed, snapshot.Total)
			fmt.Fprint(stdout, renderTable(
				[]string{"Status", "Count"},
				buildStatusCountRows(snapshot.Counts),
				alignLeft, alignRight,
			))
			fmt.Fprintln(stdout)

			if len(snapshot.Ready) > 0 {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, "Awaiting review:")
				for _, folder := range snapshot.Ready {
					fmt.Fprintf(stdout, "  %s\n", folder.Name)
				}
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

// buildStatusCountRows lists non-zero statuses in pipeline order.
func buildStatusCountRows(counts map[jobs.Status]int) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, status := range jobs.AllStatuses() {
		count := counts[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.apiFlag != nil {
		if addr := strings.TrimSpace(*ctx.apiFlag); addr != "" {
			opts.APIAddr = addr
		}
	}
	if ctx.configFlag != nil {
		if path := strings.TrimSpace(*ctx.configFlag); path != "" {
			opts.ConfigPath = path
		}
	}
	return opts
}
