package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tonearm/internal/api"
	"tonearm/internal/jobs"
	"tonearm/internal/status"
)

func newReadyCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ready",
		Short: "List folders awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				folders, err := client.Ready(cmd.Context(), limit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(folders) == 0 {
					fmt.Fprintln(stdout, "No folders awaiting review")
					return nil
				}
				rows := make([][]string, 0, len(folders))
				for _, folder := range folders {
					rows = append(rows, []string{folder.Name, folder.Path})
				}
				fmt.Fprintln(stdout, renderTable([]string{"Folder", "Path"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum folders to list (0 for the server default)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var showMetadata bool
	cmd := &cobra.Command{
		Use:   "show <folder>",
		Short: "Show the proposal for a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				path, err := resolveFolderArg(cmd, client, args[0])
				if err != nil {
					return err
				}
				detail, err := client.Folder(cmd.Context(), path)
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintln(stdout, renderTable(
					[]string{"Field", "Value"},
					buildProposalRows(detail.Proposal),
				))
				if showMetadata && len(detail.Metadata) > 0 && string(detail.Metadata) != "null" {
					pretty, err := indentJSON(detail.Metadata)
					if err != nil {
						return fmt.Errorf("render metadata: %w", err)
					}
					fmt.Fprintln(stdout)
					fmt.Fprintln(stdout, "Tag analysis:")
					fmt.Fprintln(stdout, pretty)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showMetadata, "metadata", false, "Include the raw tag analysis")
	return cmd
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent jobs with statuses and errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				debug, err := client.DebugJobs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(debug.Recent) == 0 {
					fmt.Fprintln(stdout, "No jobs recorded")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Status", "Folder", "Type", "Updated", "Error"},
					buildJobRows(debug.Recent),
					alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft,
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum jobs to list")
	return cmd
}

func buildProposalRows(proposal jobs.Proposal) [][]string {
	rows := [][]string{
		{"Artist", proposal.Artist},
		{"Album", proposal.Album},
	}
	if proposal.Year > 0 {
		rows = append(rows, []string{"Year", strconv.Itoa(proposal.Year)})
	}
	if proposal.ReleaseType != "" {
		rows = append(rows, []string{"Release type", proposal.ReleaseType})
	}
	if proposal.Confidence != "" {
		rows = append(rows, []string{"Confidence", proposal.Confidence})
	}
	if proposal.Reasoning != "" {
		rows = append(rows, []string{"Reasoning", proposal.Reasoning})
	}
	return rows
}

func buildJobRows(summaries []status.JobSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, row := range summaries {
		errText := strings.TrimSpace(row.Error)
		if len(errText) > 60 {
			errText = errText[:57] + "..."
		}
		rows = append(rows, []string{
			strconv.FormatInt(row.ID, 10),
			string(row.Status),
			row.FolderPath,
			string(row.JobType),
			row.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			errText,
		})
	}
	return rows
}

func indentJSON(raw json.RawMessage) (string, error) {
	var buf strings.Builder
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(decoded); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
