package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tonearm/internal/api"
)

func newPathsCommand(ctx *commandContext) *cobra.Command {
	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "Inspect and change the library roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				state, err := client.Paths(cmd.Context())
				if err != nil {
					return err
				}
				renderPathsState(cmd.OutOrStdout(), state)
				return nil
			})
		},
	}

	pathsCmd.AddCommand(newPathsStageCommand(ctx))
	pathsCmd.AddCommand(newPathsConfirmCommand(ctx))
	pathsCmd.AddCommand(newPathsCancelCommand(ctx))
	pathsCmd.AddCommand(newPathsBrowseCommand(ctx))

	return pathsCmd
}

func newPathsStageCommand(ctx *commandContext) *cobra.Command {
	var sourceDir, targetDir string

	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Stage new roots without applying them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceDir == "" && targetDir == "" {
				return fmt.Errorf("nothing to stage; pass --source and/or --target")
			}
			return ctx.withClient(func(client *api.Client) error {
				state, err := client.UpdatePaths(cmd.Context(), api.PathsRequest{
					SourceDir: sourceDir,
					TargetDir: targetDir,
				})
				if err != nil {
					return err
				}
				renderPathsState(cmd.OutOrStdout(), state)
				fmt.Fprintln(cmd.OutOrStdout(), "Run `tonearm paths confirm` to apply")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sourceDir, "source", "", "New source directory to stage")
	cmd.Flags().StringVar(&targetDir, "target", "", "New target directory to stage")
	return cmd
}

func newPathsConfirmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Apply the staged roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				state, err := client.UpdatePaths(cmd.Context(), api.PathsRequest{Action: api.PathsActionConfirm})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Roots updated")
				renderPathsState(cmd.OutOrStdout(), state)
				return nil
			})
		},
	}
}

func newPathsCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the staged roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				state, err := client.UpdatePaths(cmd.Context(), api.PathsRequest{Action: api.PathsActionCancel})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Staged roots discarded")
				renderPathsState(cmd.OutOrStdout(), state)
				return nil
			})
		},
	}
}

func newPathsBrowseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [dir]",
		Short: "List directories on the daemon host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				var path string
				if len(args) > 0 {
					path = args[0]
				}
				listing, err := client.List(cmd.Context(), path)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if listing.Parent != "" {
					fmt.Fprintf(stdout, "Parent: %s\n", listing.Parent)
				}
				if len(listing.Entries) == 0 {
					fmt.Fprintln(stdout, "No subdirectories")
					return nil
				}
				for _, entry := range listing.Entries {
					fmt.Fprintln(stdout, entry.Path)
				}
				return nil
			})
		},
	}
}

func renderPathsState(out io.Writer, state *api.PathsState) {
	fmt.Fprintf(out, "Source: %s\n", orUnset(state.Current.SourceDir))
	fmt.Fprintf(out, "Target: %s\n", orUnset(state.Current.TargetDir))
	if state.Staged.Empty() {
		return
	}
	fmt.Fprintln(out, "Staged changes:")
	if state.Staged.SourceDir != "" {
		fmt.Fprintf(out, "  Source -> %s\n", state.Staged.SourceDir)
	}
	if state.Staged.TargetDir != "" {
		fmt.Fprintf(out, "  Target -> %s\n", state.Staged.TargetDir)
	}
}

func orUnset(value string) string {
	if value == "" {
		return "(unset)"
	}
	return value
}
