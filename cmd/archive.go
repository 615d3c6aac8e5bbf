package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joescharf/prreview/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <title> [file.json | -]",
	Short: "Archive a review document",
	Long: `Archive a JSON object as a review document, the same way the
archive_to_database tool does. The payload is read from the given file, or
from stdin when the file is "-" or omitted.

Example:
  prreview pr octo/hello-world#42 --json | prreview archive "Add greeting"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := "-"
		if len(args) == 2 {
			src = args[1]
		}
		return archiveRun(cmd.Context(), args[0], src, cmd.InOrStdin())
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}

func archiveRun(ctx context.Context, title, src string, stdin io.Reader) error {
	data, err := readPayload(src, stdin)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would archive %q with %d top-level fields", title, len(data))
		return nil
	}

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

	res := archive.NewWriter(s, cfg.Store.Timeout).Archive(ctx, title, data)
	if !res.OK() {
		return errors.New(res.Message)
	}
	ui.Success("%s", res.Message)
	return nil
}

func readPayload(src string, stdin io.Reader) (map[string]any, error) {
	var r io.Reader
	if src == "-" {
		r = stdin
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open payload: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var data map[string]any
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	if data == nil {
		return nil, errors.New("payload must be a JSON object, got null")
	}
	return data, nil
}
