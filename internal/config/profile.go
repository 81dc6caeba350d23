package config

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Profile is a named set of crawl options from the configuration file.
// Zero values mean "not set" and leave the value beneath untouched.
type Profile struct {
	// StartURL is the first page of the chain.
	StartURL string `yaml:"startUrl,omitempty"`

	// MaxPages overrides the page limit.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Concurrency overrides the concurrency level.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Mode is "async" or "pool".
	Mode string `yaml:"mode,omitempty"`

	// Workers overrides the parse pool size.
	Workers int `yaml:"workers,omitempty"`

	// Timeout is the per-fetch timeout, e.g. "5s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Strict makes the page limit a hard bound. A pointer so that an
	// explicit false in a profile can override true in the defaults.
	Strict *bool `yaml:"strict,omitempty"`

	// Rate caps requests per second.
	Rate float64 `yaml:"rate,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are extra HTTP headers. They are merged with the defaults.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .nextcrawl configuration file.
type File struct {
	// Defaults apply to every run.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Profiles maps a profile name to its options.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// GetProfile returns the defaults overlaid with the named profile.
// An empty name returns the defaults alone.
func (cf *File) GetProfile(name string) (Profile, error) {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	if name == "" {
		return result, nil
	}

	p, ok := cf.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (available: %v)", ErrProfileNotFound, name, cf.ProfileNames())
	}

	if p.StartURL != "" {
		result.StartURL = p.StartURL
	}
	if p.MaxPages != 0 {
		result.MaxPages = p.MaxPages
	}
	if p.Concurrency != 0 {
		result.Concurrency = p.Concurrency
	}
	if p.Mode != "" {
		result.Mode = p.Mode
	}
	if p.Workers != 0 {
		result.Workers = p.Workers
	}
	if p.Timeout != 0 {
		result.Timeout = p.Timeout
	}
	if p.Strict != nil {
		result.Strict = p.Strict
	}
	if p.Rate != 0 {
		result.Rate = p.Rate
	}
	if p.UserAgent != "" {
		result.UserAgent = p.UserAgent
	}
	if len(p.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(p.Headers))
		}
		for k, v := range p.Headers {
			result.Headers[k] = v
		}
	}

	return result, nil
}

// ProfileNames returns the profile names in sorted order.
func (cf *File) ProfileNames() []string {
	return slices.Sorted(maps.Keys(cf.Profiles))
}
