package main

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/nextcrawl/internal/config"
	"github.com/nao1215/nextcrawl/internal/database"
	"github.com/nao1215/nextcrawl/internal/model"
	"github.com/nao1215/nextcrawl/internal/report"
)

func TestNewBenchCmd(t *testing.T) {
	t.Parallel()

	cmd := NewBenchCmd()

	if cmd.Use != "bench [start-url]" {
		t.Errorf("expected use 'bench [start-url]', got %q", cmd.Use)
	}

	tests := []struct {
		name     string
		defValue string
	}{
		{name: "levels", defValue: "[1,2,4,8,16]"},
		{name: "modes", defValue: "[async,pool]"},
		{name: "runs", defValue: "2"},
		{name: "max-pages", defValue: "20"},
		{name: "strict", defValue: "false"},
		{name: "json", defValue: "false"},
		{name: "markdown", defValue: "false"},
		{name: "no-save", defValue: "false"},
	}

	for _, tt := range tests {
		t.Run("has "+tt.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}

	t.Run("has no concurrency or mode flag", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"concurrency", "mode"} {
			if cmd.Flags().Lookup(name) != nil {
				t.Errorf("unexpected %s flag: the sweep sets it", name)
			}
		}
	})
}

func TestBenchCmdJSON(t *testing.T) {
	t.Parallel()

	_, start := newFixtureServer(t, 6)
	cfgPath := writeConfigFile(t, "defaults: {}\n")

	stdout, stderr, err := execute(t, "bench", start, "--no-save", "-c", cfgPath,
		"--levels", "1,2", "--runs", "2", "-p", "3", "--strict", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var bench report.Bench
	if err := json.Unmarshal([]byte(stdout), &bench); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, stdout)
	}

	if bench.StartURL != start {
		t.Errorf("expected start URL %q, got %q", start, bench.StartURL)
	}
	if bench.PageLimit != 3 {
		t.Errorf("expected page limit 3, got %d", bench.PageLimit)
	}
	if len(bench.Rows) != 4 {
		t.Fatalf("expected 4 rows (2 modes x 2 levels), got %d", len(bench.Rows))
	}

	wantOrder := []struct {
		mode  model.Mode
		level int
	}{
		{model.ModeAsync, 1},
		{model.ModeAsync, 2},
		{model.ModePool, 1},
		{model.ModePool, 2},
	}
	for i, want := range wantOrder {
		row := bench.Rows[i]
		if row.Mode != want.mode || row.ConcurrencyLevel != want.level {
			t.Errorf("row %d: expected %s/%d, got %s/%d", i, want.mode, want.level, row.Mode, row.ConcurrencyLevel)
		}
		if row.Runs != 2 {
			t.Errorf("row %d: expected 2 runs, got %d", i, row.Runs)
		}
		if row.AvgPagesCrawled != 3 {
			t.Errorf("row %d: expected 3 pages on average, got %v", i, row.AvgPagesCrawled)
		}
		wantWorkers := 0
		if want.mode == model.ModePool {
			wantWorkers = want.level
		}
		if row.Workers != wantWorkers {
			t.Errorf("row %d: expected %d workers, got %d", i, wantWorkers, row.Workers)
		}
	}

	if got := strings.Count(stderr, "pages/s"); got != 8 {
		t.Errorf("expected 8 progress lines, got %d: %q", got, stderr)
	}
}

func TestBenchCmdWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []int
	}{
		{name: "pool grows with each level", want: []int{1, 4}},
		{name: "workers flag pins the pool", args: []string{"--workers", "3"}, want: []int{3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, start := newFixtureServer(t, 6)
			cfgPath := writeConfigFile(t, "defaults: {}\n")

			args := append([]string{"bench", start, "--no-save", "-c", cfgPath,
				"--modes", "pool", "--levels", "1,4", "--runs", "1", "-p", "3", "--json"}, tt.args...)
			stdout, _, err := execute(t, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var bench report.Bench
			if err := json.Unmarshal([]byte(stdout), &bench); err != nil {
				t.Fatalf("output is not JSON: %v (%q)", err, stdout)
			}
			got := make([]int, len(bench.Rows))
			for i, row := range bench.Rows {
				got[i] = row.Workers
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected workers %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBenchCmdMarkdownDefault(t *testing.T) {
	t.Parallel()

	_, start := newFixtureServer(t, 3)
	cfgPath := writeConfigFile(t, "defaults: {}\n")

	stdout, _, err := execute(t, "bench", start, "--no-save", "-c", cfgPath,
		"--levels", "1", "--runs", "1", "--modes", "async")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"# nextcrawl Benchmark", "Fastest: async at concurrency 1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got %q", want, stdout)
		}
	}
}

func TestBenchCmdSavesEveryRun(t *testing.T) {
	t.Parallel()

	_, start := newFixtureServer(t, 3)
	cfgPath := writeConfigFile(t, "defaults: {}\n")
	dbDir := t.TempDir()

	if _, _, err := execute(t, "bench", start, "-c", cfgPath, "--db-dir", dbDir,
		"--levels", "1,4", "--runs", "3", "--modes", "pool"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	n, err := db.CountRuns(context.Background())
	if err != nil {
		t.Fatalf("failed to count runs: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 stored runs, got %d", n)
	}
}

func TestBuildBenchPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantModes  []model.Mode
		wantLevels []int
		wantRuns   int
		wantErr    error
		wantMsg    string
	}{
		{
			name:       "defaults",
			wantModes:  []model.Mode{model.ModeAsync, model.ModePool},
			wantLevels: []int{1, 2, 4, 8, 16},
			wantRuns:   2,
		},
		{
			name:       "duplicate modes collapse",
			args:       []string{"--modes", "pool,POOL,async"},
			wantModes:  []model.Mode{model.ModePool, model.ModeAsync},
			wantLevels: []int{1, 2, 4, 8, 16},
			wantRuns:   2,
		},
		{
			name:    "unknown mode",
			args:    []string{"--modes", "threads"},
			wantErr: config.ErrInvalidMode,
		},
		{
			name:    "zero level",
			args:    []string{"--levels", "1,0"},
			wantErr: config.ErrInvalidConcurrency,
		},
		{
			name:    "zero runs",
			args:    []string{"--runs", "0"},
			wantMsg: "invalid runs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewBenchCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			plan, err := buildBenchPlan(cmd)
			if tt.wantErr != nil || tt.wantMsg != "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
					t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !slices.Equal(plan.modes, tt.wantModes) {
				t.Errorf("expected modes %v, got %v", tt.wantModes, plan.modes)
			}
			if !slices.Equal(plan.levels, tt.wantLevels) {
				t.Errorf("expected levels %v, got %v", tt.wantLevels, plan.levels)
			}
			if plan.runs != tt.wantRuns {
				t.Errorf("expected %d runs, got %d", tt.wantRuns, plan.runs)
			}
			if want := len(tt.wantModes) * len(tt.wantLevels) * tt.wantRuns; plan.size() != want {
				t.Errorf("expected size %d, got %d", want, plan.size())
			}
		})
	}
}
