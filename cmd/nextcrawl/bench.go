package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/nextcrawl/internal/config"
	"github.com/nao1215/nextcrawl/internal/model"
	"github.com/nao1215/nextcrawl/internal/report"
)

var (
	// defaultBenchLevels are the concurrency levels swept by default.
	defaultBenchLevels = []int{1, 2, 4, 8, 16}

	// defaultBenchRuns is the number of runs averaged per configuration.
	defaultBenchRuns = 2
)

// NewBenchCmd creates the bench command.
func NewBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench [start-url]",
		Short: "Compare crawl modes across concurrency levels",
		Long: `Bench crawls the same start page once per mode, concurrency level and
repetition, then prints the averaged results as a table.

Every run is a full, independent crawl with the same page limit, so the
averages show how throughput scales with concurrency in each mode.
In pool mode the parse pool grows with the level too: each level runs
with that many workers unless --workers pins the pool size.
Individual runs are stored in the run history unless --no-save is given.

Examples:
  # Sweep async and pool mode over concurrency 1, 2, 4, 8, 16
  nextcrawl bench http://127.0.0.1:8000/page_0.html

  # Pool mode with the parse pool pinned to 4 workers
  nextcrawl bench --modes pool --workers 4 http://127.0.0.1:8000/page_0.html

  # Pool mode only, 5 runs per level, JSON output
  nextcrawl bench --modes pool --levels 2,4,8 --runs 5 --json http://127.0.0.1:8000/page_0.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBenchCmd,
	}

	addCrawlFlags(cmd)

	cmd.Flags().IntSlice("levels", defaultBenchLevels,
		"Concurrency levels to sweep")
	cmd.Flags().StringSlice("modes", []string{string(model.ModeAsync), string(model.ModePool)},
		"Crawl modes to compare")
	cmd.Flags().Int("runs", defaultBenchRuns,
		"Runs averaged per mode and concurrency level")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (default)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file path (creates directories if needed)")

	return cmd
}

// benchPlan is the sweep parsed from the bench flags.
type benchPlan struct {
	modes  []model.Mode
	levels []int
	runs   int
}

// size returns the number of crawls the plan performs.
func (p benchPlan) size() int {
	return len(p.modes) * len(p.levels) * p.runs
}

// runBenchCmd executes the bench command.
func runBenchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	plan, err := buildBenchPlan(cmd)
	if err != nil {
		return err
	}

	// Mode and concurrency come from the plan; validate the rest with the
	// first configuration of the sweep.
	cfg.Mode = plan.modes[0]
	cfg.Concurrency = plan.levels[0]
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, getLogJSONFlag(cmd))
	slog.SetDefault(logger)

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	progress := cmd.ErrOrStderr()
	records := make([]model.RunRecord, 0, plan.size())
	done := 0
	for _, mode := range plan.modes {
		for _, level := range plan.levels {
			for i := range plan.runs {
				runCfg := *cfg
				runCfg.Mode = mode
				runCfg.Concurrency = level
				if mode == model.ModePool && cfg.Workers == 0 {
					runCfg.Workers = level
				}

				run, err := crawlOnce(ctx, &runCfg, logger, nil)
				if err != nil {
					return fmt.Errorf("bench %s at concurrency %d (run %d): %w", mode, level, i+1, err)
				}
				done++
				fmt.Fprintf(progress, "[%d/%d] %s concurrency=%d workers=%d pages=%d %.2f pages/s\n",
					done, plan.size(), mode, level, run.Record.Workers, run.Record.PagesCrawled, run.Record.PagesPerSecond)
				records = append(records, run.Record)
			}
		}
	}

	start := cfg.StartURL
	if len(records) > 0 {
		start = records[0].StartURL
	}
	bench := &report.Bench{
		StartURL:  start,
		PageLimit: cfg.MaxPages,
		Rows:      report.Summarize(records),
	}
	if err := outputBench(cmd.OutOrStdout(), cfg, bench); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveRuns(ctx, cfg.DBDir, logger, records...); err != nil {
			logger.Error("failed to save runs", "error", err)
		}
	}

	return nil
}

// buildBenchPlan reads and validates the sweep flags.
func buildBenchPlan(cmd *cobra.Command) (benchPlan, error) {
	var plan benchPlan

	names, err := cmd.Flags().GetStringSlice("modes")
	if err != nil {
		return plan, err
	}
	if len(names) == 0 {
		return plan, errors.New("no modes to compare")
	}
	seen := make(map[model.Mode]bool, len(names))
	for _, name := range names {
		mode, err := model.ParseMode(name)
		if err != nil {
			return plan, fmt.Errorf("%w: %v", config.ErrInvalidMode, err)
		}
		if !seen[mode] {
			seen[mode] = true
			plan.modes = append(plan.modes, mode)
		}
	}

	plan.levels, err = cmd.Flags().GetIntSlice("levels")
	if err != nil {
		return plan, err
	}
	if len(plan.levels) == 0 {
		return plan, errors.New("no concurrency levels to sweep")
	}
	for _, level := range plan.levels {
		if level < 1 {
			return plan, fmt.Errorf("%w: got %d", config.ErrInvalidConcurrency, level)
		}
	}

	plan.runs, err = cmd.Flags().GetInt("runs")
	if err != nil {
		return plan, err
	}
	if plan.runs < 1 {
		return plan, fmt.Errorf("invalid runs: must be at least 1, got %d", plan.runs)
	}

	return plan, nil
}

// outputBench writes the bench in the requested format. Markdown is the
// default for benches.
func outputBench(w io.Writer, cfg *config.Config, bench *report.Bench) error {
	out, closeFn, err := openOutput(w, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeFn()

	var writer report.Writer = report.NewMarkdownWriter(out)
	if cfg.JSONReport {
		writer = report.NewJSONWriter(out, report.WithPrettyPrint())
	}
	_, err = writer.WriteBench(bench)
	return err
}
