package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/prreview/internal/git"
	"github.com/joescharf/prreview/internal/models"
	"github.com/joescharf/prreview/internal/output"
)

var prJSON bool

// localGit is replaceable in tests.
var localGit git.Client = git.NewClient()

var prCmd = &cobra.Command{
	Use:   "pr <owner/repo#number | #number | pull request URL>",
	Short: "Fetch and show a pull request",
	Long: `Fetch a pull request and its changed files, normalized the same way
the get_pull_request tool returns them.

A bare number (#42 or 42) takes owner/repo from the origin remote of the
repository in the current directory.

Examples:
  prreview pr octo/hello-world#42
  prreview pr 42
  prreview pr https://github.com/octo/hello-world/pull/42 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return prRun(cmd.Context(), args[0])
	},
}

func init() {
	prCmd.Flags().BoolVar(&prJSON, "json", false, "Print the normalized record as JSON")
	rootCmd.AddCommand(prCmd)
}

func prRun(ctx context.Context, refArg string) error {
	ref, err := git.ResolvePRRef(refArg, localGit, ".")
	if err != nil {
		return err
	}
	ui.VerboseLog("Resolved %q to %s", refArg, ref)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateGitHub(); err != nil {
		return err
	}
	ctx, _, err = withLogger(ctx, cfg)
	if err != nil {
		return err
	}

	gh, err := newGitHubClient(cfg.GitHub)
	if err != nil {
		return err
	}
	ui.VerboseLog("Fetching %s from %s", ref, cfg.GitHub.BaseURL)

	rec, err := gh.PullRequest(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", ref, err)
	}

	if prJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	printRecord(ref, rec)
	return nil
}

func printRecord(ref git.PRRef, rec *models.PullRequestRecord) {
	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(ref.String()), rec.Title)
	fmt.Fprintf(ui.Out, "  Author:  %s\n", rec.Author)
	fmt.Fprintf(ui.Out, "  State:   %s\n", output.StateColor(rec.State))
	fmt.Fprintf(ui.Out, "  Created: %s\n", rec.CreatedAt)
	fmt.Fprintf(ui.Out, "  Updated: %s\n", rec.UpdatedAt)
	if desc := strings.TrimSpace(rec.Description); desc != "" {
		fmt.Fprintln(ui.Out)
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(ui.Out, "  %s\n", line)
		}
	}
	fmt.Fprintln(ui.Out)

	if rec.FilesChangedCount == 0 {
		ui.Info("No files changed.")
		return
	}

	table := ui.Table([]string{"File", "Status", "Lines", "Patch"})
	for _, f := range rec.FileDiffs {
		patch := fmt.Sprintf("%d lines", strings.Count(f.DiffPatch, "\n")+1)
		if f.DiffPatch == "" {
			patch = "-"
		}
		_ = table.Append([]string{
			f.FilePath,
			output.StateColor(f.Status),
			output.DiffStat(f.LinesAdded, f.LinesRemoved),
			patch,
		})
	}
	_ = table.Render()

	fmt.Fprintln(ui.Out)
	ui.Info("%d files changed", rec.FilesChangedCount)
	if rec.FilesChangedCount >= git.MaxFilesPerPage {
		ui.Warning("File list may be truncated at %d entries", git.MaxFilesPerPage)
	}
}
