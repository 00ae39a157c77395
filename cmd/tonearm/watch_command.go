package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tonearm/internal/api"
	"tonearm/internal/events"
	"tonearm/internal/jobs"
	"tonearm/internal/status"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live pipeline status from the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				stdout := cmd.OutOrStdout()
				err := client.Events(cmd.Context(), 0, func(evt events.Event) error {
					if evt.Type != status.EventTypeStatus {
						return nil
					}
					var snapshot status.Snapshot
					if err := json.Unmarshal(evt.Payload, &snapshot); err != nil {
						return nil
					}
					fmt.Fprintln(stdout, formatWatchLine(&snapshot))
					return nil
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}

func formatWatchLine(snapshot *status.Snapshot) string {
	parts := make([]string, 0, len(snapshot.Counts)+2)
	parts = append(parts, snapshot.GeneratedAt.Local().Format("15:04:05"))
	for _, st := range jobs.AllStatuses() {
		if count := snapshot.Counts[st]; count > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", st, count))
		}
	}
	if len(parts) == 1 {
		parts = append(parts, "idle")
	}
	line := strings.Join(parts, "  ")
	if len(snapshot.Ready) > 0 {
		names := make([]string, 0, len(snapshot.Ready))
		for _, folder := range snapshot.Ready {
			names = append(names, folder.Name)
		}
		line += "  review: " + strings.Join(names, ", ")
	}
	return line
}
