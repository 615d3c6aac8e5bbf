package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/prreview/internal/output"
)

var reviewLimit int

var reviewCmd = &cobra.Command{
	Use:     "review",
	Aliases: []string{"reviews"},
	Short:   "Inspect archived reviews",
}

var reviewListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List archived reviews, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewListRun(cmd.Context())
	},
}

func init() {
	reviewListCmd.Flags().IntVarP(&reviewLimit, "limit", "l", 20, "Maximum number of reviews to show (0 for all)")
	reviewCmd.AddCommand(reviewListCmd)
	rootCmd.AddCommand(reviewCmd)
}

func reviewListRun(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStore(); err != nil {
		return err
	}
	ctx, _, err = withLogger(ctx, cfg)
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = s.Close() }()

	reviews, err := s.ListReviews(ctx, reviewLimit)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		ui.Info("No reviews archived yet.")
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "State", "Files", "Archived"})
	for _, r := range reviews {
		archived := "-"
		if !r.ArchivedAt.IsZero() {
			archived = r.ArchivedAt.Local().Format(time.DateTime)
		}
		_ = table.Append([]string{
			r.ID,
			r.PRTitle,
			output.StateColor(r.State()),
			fmt.Sprintf("%d", r.FilesChanged()),
			archived,
		})
	}
	_ = table.Render()
	return nil
}
