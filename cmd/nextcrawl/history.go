package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/nextcrawl/internal/config"
	"github.com/nao1215/nextcrawl/internal/database"
	"github.com/nao1215/nextcrawl/internal/model"
	"github.com/nao1215/nextcrawl/internal/report"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored crawl runs",
		Long: `History lists the runs stored by crawl and bench, newest first,
followed by averages per mode and concurrency level.

Examples:
  # Show the last 20 runs
  nextcrawl history

  # Show every pool mode run as Markdown
  nextcrawl history --mode pool --limit -1 --markdown

  # Delete all stored runs
  nextcrawl history --clear`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("mode", "M", "",
		"Only list runs of this mode (async or pool)")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of runs to list (-1 = all)")
	cmd.Flags().Bool("clear", false,
		"Delete all stored runs")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON lines (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := buildHistoryFilter(cmd)
	if err != nil {
		return err
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return config.ErrConflictingReportFormats
	}

	clearAll, err := cmd.Flags().GetBool("clear")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if clearAll {
		n, err := db.Clear(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintf(out, "Deleted %d run(s) from %s\n", n, db.Path())
		return nil
	}

	records, err := db.ListRuns(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	var writer report.Writer
	switch {
	case jsonOut:
		writer = report.NewJSONWriter(out)
	case markdownOut:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd)))
	}
	_, err = writer.WriteHistory(records)
	return err
}

// buildHistoryFilter reads the --mode and --limit flags.
func buildHistoryFilter(cmd *cobra.Command) (database.ListFilter, error) {
	var filter database.ListFilter

	name, err := cmd.Flags().GetString("mode")
	if err != nil {
		return filter, err
	}
	if name != "" {
		mode, err := model.ParseMode(name)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", config.ErrInvalidMode, err)
		}
		filter.Mode = mode
	}

	filter.Limit, err = cmd.Flags().GetInt("limit")
	if err != nil {
		return filter, err
	}
	if filter.Limit == 0 || filter.Limit < -1 {
		return filter, fmt.Errorf("invalid limit: must be positive or -1, got %d", filter.Limit)
	}

	return filter, nil
}
