package model

import (
	"errors"
	"testing"
)

// TestNormalizeURL tests URL identity normalization.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lower-cases scheme and host", in: "HTTP://Example.COM/Page_1.html", want: "http://example.com/Page_1.html"},
		{name: "drops fragment", in: "http://example.com/page_0.html#top", want: "http://example.com/page_0.html"},
		{name: "adds root path", in: "http://example.com", want: "http://example.com/"},
		{name: "keeps port and query", in: "http://127.0.0.1:5000/p?x=1", want: "http://127.0.0.1:5000/p?x=1"},
		{name: "trims whitespace", in: "  http://example.com/a  ", want: "http://example.com/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeURL(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}

	t.Run("rejects relative URL", func(t *testing.T) {
		t.Parallel()

		_, err := NormalizeURL("/page_0.html")
		if !errors.Is(err, ErrNotAbsoluteURL) {
			t.Errorf("expected ErrNotAbsoluteURL, got %v", err)
		}
	})

	t.Run("rejects unparsable URL", func(t *testing.T) {
		t.Parallel()

		if _, err := NormalizeURL("http://[::1"); err == nil {
			t.Error("expected error for malformed URL")
		}
	})
}

// TestSameHost tests same-host containment.
func TestSameHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		base   string
		want   bool
	}{
		{name: "same host", target: "http://example.com/next", base: "example.com", want: true},
		{name: "case insensitive", target: "http://EXAMPLE.com/next", base: "example.com", want: true},
		{name: "port ignored", target: "http://example.com:8080/next", base: "example.com", want: true},
		{name: "other host", target: "http://evil.test/next", base: "example.com", want: false},
		{name: "subdomain is a different host", target: "http://www.example.com/", base: "example.com", want: false},
		{name: "empty target", target: "", base: "example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SameHost(tt.target, tt.base); got != tt.want {
				t.Errorf("SameHost(%q, %q) = %v, expected %v", tt.target, tt.base, got, tt.want)
			}
		})
	}
}
