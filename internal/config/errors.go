package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoStartURL is returned when neither an argument nor a profile gives a start URL.
	ErrNoStartURL = errors.New("no start URL specified: pass one as an argument or set it in a profile")

	// ErrInvalidStartURL is returned when the start URL is not absolute.
	ErrInvalidStartURL = errors.New("invalid start URL")

	// ErrInvalidPageLimit is returned when the page limit is below 1.
	ErrInvalidPageLimit = errors.New("invalid max pages: must be at least 1")

	// ErrInvalidConcurrency is returned when the concurrency level is below 1.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidMode is returned for a mode other than async or pool.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidWorkers is returned when the worker count is negative.
	// Zero selects one worker per CPU.
	ErrInvalidWorkers = errors.New("invalid workers: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRate is returned when the rate limit is negative.
	ErrInvalidRate = errors.New("invalid rate: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrProfileNotFound is returned when the requested profile is not in the config file.
	ErrProfileNotFound = errors.New("profile not found")
)
