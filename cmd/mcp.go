package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/joescharf/prreview/internal/archive"
	"github.com/joescharf/prreview/internal/config"
	"github.com/joescharf/prreview/internal/git"
	mcpserver "github.com/joescharf/prreview/internal/mcp"
)

// newGitHubClient is replaceable in tests.
var newGitHubClient = func(cfg config.GitHubConfig) (git.GitHubClient, error) {
	return git.NewGitHubClient(cfg)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

Available tools: get_pull_request, archive_to_database.
Configure in an MCP client with:

  {
    "mcpServers": {
      "prreview": { "command": "prreview", "args": ["mcp"] }
    }
  }

GITHUB_TOKEN is required. MONGO_URI defaults to mongodb://localhost:27017/.
The process exits non-zero if the token is missing or the database cannot
be reached at startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	ctx, logger, err := withLogger(ctx, cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gh, err := newGitHubClient(cfg.GitHub)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		clog.ErrorContextf(ctx, "Database initialization failed: %v", err)
		return fmt.Errorf("database initialization failed: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			clog.WarnContextf(ctx, "Closing database: %v", err)
		}
	}()
	clog.InfoContextf(ctx, "Database connected (%s/%s)", cfg.Store.Database, cfg.Store.Collection)

	srv := mcpserver.NewServer(gh, archive.NewWriter(s, cfg.Store.Timeout), buildVersion)

	clog.InfoContextf(ctx, "Starting MCP server on stdio")
	err = srv.ServeStdio(ctx, os.Stdin, os.Stdout, logger.StdLogger())
	if err != nil && !errors.Is(err, context.Canceled) {
		clog.ErrorContextf(ctx, "Critical failure in MCP server: %v", err)
		return fmt.Errorf("mcp server: %w", err)
	}
	clog.InfoContextf(ctx, "MCP server stopped")
	return nil
}
