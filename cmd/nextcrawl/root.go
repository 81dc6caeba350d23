package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for nextcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nextcrawl",
		Short: "Bounded-concurrency crawler for paginated sites",
		Long: `nextcrawl follows the "Next" links of a paginated site on a single host,
up to a page limit, and prints one JSON line of metrics per run.

Pages can be processed inline by the coordinating goroutine (async mode)
or handed to a pool of parse workers (pool mode). Use bench to compare
both modes across concurrency levels, and serve to start a local fixture
site to crawl.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewBenchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
