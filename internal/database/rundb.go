package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/nextcrawl/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "nextcrawl.db"

// RunDB stores the metrics record of every crawl run in SQLite.
// Only run results are kept; the frontier and visited set of a crawl are
// never written.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the run database inside dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (rdb *RunDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		concurrency INTEGER NOT NULL,
		pages_crawled INTEGER NOT NULL,
		total_time_seconds REAL NOT NULL,
		pages_per_second REAL NOT NULL,
		start_url TEXT NOT NULL DEFAULT '',
		page_limit INTEGER NOT NULL DEFAULT 0,
		workers INTEGER NOT NULL DEFAULT 0,
		fetch_failures INTEGER NOT NULL DEFAULT 0,
		parse_failures INTEGER NOT NULL DEFAULT 0,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	_, err := rdb.db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores rec and returns its ID. A zero Timestamp is replaced by
// the current time.
func (rdb *RunDB) SaveRun(ctx context.Context, rec model.RunRecord) (int64, error) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO runs (mode, concurrency, pages_crawled, total_time_seconds, pages_per_second,
		start_url, page_limit, workers, fetch_failures, parse_failures, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := rdb.db.ExecContext(ctx, query,
		rec.Mode.String(),
		rec.ConcurrencyLevel,
		rec.PagesCrawled,
		rec.TotalTimeSeconds,
		rec.PagesPerSecond,
		rec.StartURL,
		rec.PageLimit,
		rec.Workers,
		rec.FetchFailures,
		rec.ParseFailures,
		ts.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	return res.LastInsertId()
}

// ListFilter selects which runs ListRuns returns.
type ListFilter struct {
	// Mode restricts the result to one mode. Empty means all modes.
	Mode model.Mode

	// Limit caps the number of runs. Zero or negative means no limit.
	Limit int
}

// ListRuns returns stored runs, newest first.
func (rdb *RunDB) ListRuns(ctx context.Context, filter ListFilter) ([]model.RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	mode := filter.Mode.String()
	records, err := rdb.queryRuns(ctx,
		`WHERE (? = '' OR mode = ?) ORDER BY timestamp DESC, id DESC LIMIT ?`,
		mode, mode, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = make([]model.RunRecord, 0)
	}
	return records, nil
}

// GetRun returns the run with the given ID, or nil if there is none.
func (rdb *RunDB) GetRun(ctx context.Context, id int64) (*model.RunRecord, error) {
	runs, err := rdb.queryRuns(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// queryRuns is ListRuns with a custom WHERE clause.
func (rdb *RunDB) queryRuns(ctx context.Context, where string, args ...any) ([]model.RunRecord, error) {
	query := `
	SELECT id, mode, concurrency, pages_crawled, total_time_seconds, pages_per_second,
		start_url, page_limit, workers, fetch_failures, parse_failures, timestamp
	FROM runs ` + where

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []model.RunRecord
	for rows.Next() {
		var (
			rec       model.RunRecord
			mode      string
			timestamp string
		)
		if err := rows.Scan(
			&rec.ID, &mode, &rec.ConcurrencyLevel, &rec.PagesCrawled,
			&rec.TotalTimeSeconds, &rec.PagesPerSecond, &rec.StartURL,
			&rec.PageLimit, &rec.Workers, &rec.FetchFailures, &rec.ParseFailures,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Mode = model.Mode(mode)
		rec.Timestamp = parseTimestamp(timestamp)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountRuns returns the number of stored runs.
func (rdb *RunDB) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := rdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// Clear deletes every stored run and returns how many were removed.
func (rdb *RunDB) Clear(ctx context.Context) (int64, error) {
	res, err := rdb.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear runs: %w", err)
	}
	return res.RowsAffected()
}

// timestampLayout is fixed-width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestampFormats are the layouts a stored timestamp may use.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp, returning zero time if no
// layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
