package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/nao1215/nextcrawl/internal/fixture"
)

func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "addr", shorthand: "a", defValue: defaultServeAddr},
		{name: "pages", defValue: "100"},
		{name: "rows", defValue: "10"},
		{name: "latency", defValue: "0s"},
	}

	for _, tt := range tests {
		t.Run("has "+tt.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestServeCmdStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	cmd := NewServeCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--addr", "127.0.0.1:0", "--pages", "3"})

	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "Serving 3 pages at http://127.0.0.1:") {
		t.Errorf("unexpected banner: %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), fixture.PagePath(0)) {
		t.Errorf("expected banner to point at the first page, got %q", stdout.String())
	}
}

func TestServeCmdErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "zero pages", args: []string{"--pages", "0"}, wantMsg: "invalid pages"},
		{name: "zero rows", args: []string{"--rows", "0"}, wantMsg: "invalid rows"},
		{name: "negative latency", args: []string{"--latency", "-1s"}, wantMsg: "invalid latency"},
		{name: "bad address", args: []string{"--addr", "127.0.0.1:notaport"}, wantMsg: "failed to listen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := execute(t, append([]string{"serve"}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestServeUntilDone(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveUntilDone(ctx, ln, fixture.NewSite(2), discardLogger())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + fixture.PagePath(1))
	if err != nil {
		cancel()
		t.Fatalf("request failed: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		cancel()
		t.Fatalf("failed to read body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "<table") {
		t.Errorf("expected a table in the page, got %q", body)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
