package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/nextcrawl/internal/model"
)

// Default configuration values.
const (
	// DefaultMaxPages is the page limit of a run.
	DefaultMaxPages = 20

	// DefaultConcurrency is the number of pages allowed in progress at once.
	DefaultConcurrency = 4

	// DefaultMode is the crawl mode used when none is given.
	DefaultMode = model.ModeAsync

	// DefaultTimeout is the per-fetch timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies nextcrawl in HTTP requests.
	DefaultUserAgent = "nextcrawl/1.0 (+https://github.com/nao1215/nextcrawl)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "nextcrawl"
)

// Config holds all options of a crawl run.
// It is populated from the config file and CLI flags and passed down
// explicitly; nothing reads it from global state.
type Config struct {
	// StartURL is the first page of the chain. Its host bounds the crawl.
	StartURL string

	// MaxPages is the page limit, counted in successful fetches.
	MaxPages int

	// Concurrency is the number of pages allowed in progress at once.
	Concurrency int

	// Mode selects async or pool processing.
	Mode model.Mode

	// Workers is the parse pool size in pool mode.
	// Zero means one worker per CPU.
	Workers int

	// Timeout is the per-fetch timeout.
	Timeout time.Duration

	// StrictLimit makes MaxPages a hard bound instead of a soft one.
	StrictLimit bool

	// Rate caps requests per second. Zero disables rate limiting.
	Rate float64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// MaxBodySize is the maximum response body size in bytes.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit configuration file path.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// Profile names the profile to apply from the configuration file.
	Profile string

	// JSONReport prints only the JSON metrics line. This is the default
	// output when neither JSONReport nor MarkdownReport is set.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints a Markdown report instead of the JSON line.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory of the run history database.
	DBDir string

	// SaveToDB stores the run record in the history database.
	SaveToDB bool

	// MetricsAddr serves Prometheus metrics on this address during the run.
	// Empty disables the endpoint.
	MetricsAddr string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxPages:    DefaultMaxPages,
		Concurrency: DefaultConcurrency,
		Mode:        DefaultMode,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// EffectiveWorkers returns the parse pool size, resolving zero to the
// number of CPUs.
func (c *Config) EffectiveWorkers() int {
	if c.Workers == 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// ApplyProfile copies the values set in p onto c.
// Zero values in p leave c unchanged. Headers are merged, p winning.
func (c *Config) ApplyProfile(p Profile) {
	if p.StartURL != "" {
		c.StartURL = p.StartURL
	}
	if p.MaxPages != 0 {
		c.MaxPages = p.MaxPages
	}
	if p.Concurrency != 0 {
		c.Concurrency = p.Concurrency
	}
	if p.Mode != "" {
		c.Mode = model.Mode(p.Mode)
	}
	if p.Workers != 0 {
		c.Workers = p.Workers
	}
	if p.Timeout != 0 {
		c.Timeout = p.Timeout
	}
	if p.Strict != nil {
		c.StrictLimit = *p.Strict
	}
	if p.Rate != 0 {
		c.Rate = p.Rate
	}
	if p.UserAgent != "" {
		c.UserAgent = p.UserAgent
	}
	if len(p.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(p.Headers))
		}
		for k, v := range p.Headers {
			c.Headers[k] = v
		}
	}
}

// XDGDataDir returns the XDG data directory for nextcrawl.
// On Linux: ~/.local/share/nextcrawl
// On macOS: ~/Library/Application Support/nextcrawl
// On Windows: %LOCALAPPDATA%\nextcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for nextcrawl.
// On Linux: ~/.config/nextcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flags and the config file are merged, before any
// network activity.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	if _, err := model.NormalizeURL(c.StartURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStartURL, err)
	}
	if c.MaxPages < 1 {
		return ErrInvalidPageLimit
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if _, err := model.ParseMode(string(c.Mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMode, err)
	}
	if c.Workers < 0 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Rate < 0 {
		return ErrInvalidRate
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
