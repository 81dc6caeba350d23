package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotAbsoluteURL is returned when a URL lacks a scheme or host.
var ErrNotAbsoluteURL = errors.New("url must be absolute (scheme and host required)")

// NormalizeURL returns the identity form of an absolute URL.
// Scheme and host are lower-cased, the fragment is dropped and an empty
// path becomes "/". Two URLs with the same normalized form are the same page.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q: %w", raw, ErrNotAbsoluteURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// Hostname returns the lower-cased host of raw without its port.
// An unparsable URL yields an empty string.
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// SameHost reports whether target lives on baseHostname.
// The comparison ignores case and port, matching the containment rule
// applied to "Next" links.
func SameHost(target, baseHostname string) bool {
	host := Hostname(target)
	return host != "" && strings.EqualFold(host, baseHostname)
}
