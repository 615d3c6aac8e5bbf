package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/prreview/internal/config"
	"github.com/joescharf/prreview/internal/logging"
	"github.com/joescharf/prreview/internal/output"
	"github.com/joescharf/prreview/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
	dryRun  bool
)

// openStore is replaceable in tests.
var openStore = store.Open

var rootCmd = &cobra.Command{
	Use:   "prreview",
	Short: "Pull request retrieval and review archive for AI agents",
	Long: `prreview exposes two MCP tools to an agent runtime: one fetches a
GitHub pull request with its per-file diffs, the other archives a review
of it in a document store (MongoDB, or SQLite for local use).

Run 'prreview mcp' to serve the tools on stdio.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		if ui != nil {
			ui.Error("%v", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/prreview/config.yaml)")
}

func initConfig() {
	// .env in the working directory, like the agent runtimes expect.
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDirFunc(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// loadConfig resolves the effective configuration. --verbose forces debug
// logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// withLogger builds the stderr logger for cfg and attaches it to ctx.
func withLogger(ctx context.Context, cfg *config.Config) (context.Context, *logging.Logger, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		return ctx, nil, err
	}
	return l.WithContext(ctx), l, nil
}

// defaultStateDir is where a sqlite:// store lives when none is given.
func defaultStateDir() string {
	dir, err := configDirFunc()
	if err != nil {
		return "."
	}
	return filepath.Clean(dir)
}
