package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tonearm/internal/api"
	"tonearm/internal/config"
	"tonearm/internal/jobs"
)

func newAcceptCommand(ctx *commandContext) *cobra.Command {
	var artist, album, releaseType string
	var year int

	cmd := &cobra.Command{
		Use:   "accept <folder>",
		Short: "Accept a proposal, optionally overriding fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				path, err := resolveFolderArg(cmd, client, args[0])
				if err != nil {
					return err
				}
				req := api.DecisionRequest{Path: path, Action: "accept"}
				if artist != "" || album != "" || releaseType != "" || year > 0 {
					req.Proposal = &jobs.Proposal{
						Artist:      artist,
						Album:       album,
						Year:        year,
						ReleaseType: releaseType,
					}
				}
				resp, err := client.Decide(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted; folder is now %s\n", resp.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&artist, "artist", "", "Override the proposed artist")
	cmd.Flags().StringVar(&album, "album", "", "Override the proposed album")
	cmd.Flags().IntVar(&year, "year", 0, "Override the proposed year")
	cmd.Flags().StringVar(&releaseType, "release-type", "", "Override the proposed release type")
	return cmd
}

func newReconsiderCommand(ctx *commandContext) *cobra.Command {
	var feedback string

	cmd := &cobra.Command{
		Use:   "reconsider <folder>",
		Short: "Send a folder back for another analysis pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				path, err := resolveFolderArg(cmd, client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.Decide(cmd.Context(), api.DecisionRequest{
					Path:     path,
					Action:   "reconsider",
					Feedback: feedback,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued for re-analysis; folder is now %s\n", resp.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&feedback, "feedback", "m", "", "Hint passed to the next analysis pass")
	return cmd
}

func newSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <folder>",
		Short: "Skip a folder; it stays in place and is never organized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				path, err := resolveFolderArg(cmd, client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.Decide(cmd.Context(), api.DecisionRequest{Path: path, Action: "skip"})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Skipped; folder is now %s\n", resp.Status)
				return nil
			})
		},
	}
}

// resolveFolderArg turns a command argument into the absolute folder
// path the daemon tracks. Bare names that do not exist locally resolve
// against the daemon's current source root.
func resolveFolderArg(cmd *cobra.Command, client *api.Client, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("folder path is required")
	}

	expanded, err := config.ExpandPath(arg)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(expanded) && !strings.ContainsRune(arg, filepath.Separator) {
		if _, statErr := os.Stat(expanded); statErr != nil {
			if state, pathsErr := client.Paths(cmd.Context()); pathsErr == nil && state.Current.SourceDir != "" {
				return filepath.Join(state.Current.SourceDir, arg), nil
			}
		}
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	return abs, nil
}
