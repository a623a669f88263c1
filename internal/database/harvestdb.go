package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/idcmap/idcmap/internal/model"
)

// HarvestDB provides SQLite-based storage for fetched payloads and
// completed harvest results.
//
// Design decision: We use a single database file per output directory
// rather than separate files per region. This keeps cross-region queries
// simple and makes backup/restore a one-file operation.
type HarvestDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HarvestDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HarvestDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HarvestDB, error) {
	dbPath := filepath.Join(dbDir, "idcmap.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections buy nothing
	// for this write-heavy workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HarvestDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HarvestDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HarvestDB) createTables() error {
	schema := `
	-- Payloads store raw page retrievals keyed by content hash
	CREATE TABLE IF NOT EXISTS payloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		mechanism TEXT NOT NULL,
		page_index INTEGER NOT NULL,
		content_type TEXT,
		body TEXT NOT NULL,
		hash TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(hash)
	);

	CREATE INDEX IF NOT EXISTS idx_payloads_url ON payloads(url);
	CREATE INDEX IF NOT EXISTS idx_payloads_mechanism ON payloads(mechanism);
	CREATE INDEX IF NOT EXISTS idx_payloads_fetched ON payloads(fetched_at);

	-- Harvest results store complete run outcomes as JSON
	CREATE TABLE IF NOT EXISTS harvest_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		region TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		result_json TEXT NOT NULL,
		record_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_region ON harvest_results(region);
	CREATE INDEX IF NOT EXISTS idx_results_timestamp ON harvest_results(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Put inserts or refreshes a payload. Identical content (same hash) is
// stored once; a re-fetch only bumps the timestamp and provenance. This
// satisfies the traversal controller's payload store interface.
func (hdb *HarvestDB) Put(ctx context.Context, p *model.Payload) error {
	query := `
	INSERT INTO payloads (url, mechanism, page_index, content_type, body, hash)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(hash) DO UPDATE SET
		url = excluded.url,
		mechanism = excluded.mechanism,
		page_index = excluded.page_index,
		content_type = excluded.content_type,
		fetched_at = CURRENT_TIMESTAMP
	`

	_, err := hdb.db.ExecContext(ctx, query,
		p.URL,
		p.Mechanism,
		p.PageIndex,
		p.ContentType,
		p.Body,
		p.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payload: %w", err)
	}
	return nil
}

// GetPayload retrieves a cached payload by content hash.
// Returns nil without error when the hash is unknown.
func (hdb *HarvestDB) GetPayload(ctx context.Context, hash string) (*model.Payload, error) {
	query := `
	SELECT url, mechanism, page_index, content_type, body, hash, fetched_at
	FROM payloads
	WHERE hash = ?
	`

	var p model.Payload
	var contentType sql.NullString
	var fetchedAt string

	err := hdb.db.QueryRowContext(ctx, query, hash).Scan(
		&p.URL,
		&p.Mechanism,
		&p.PageIndex,
		&contentType,
		&p.Body,
		&p.Hash,
		&fetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payload: %w", err)
	}

	p.ContentType = contentType.String
	p.FetchedAt = parseTimestamp(fetchedAt)
	return &p, nil
}

// HasRecentFetch checks whether a URL produced a payload within the
// specified duration. Used to skip re-fetching on resumed runs.
func (hdb *HarvestDB) HasRecentFetch(ctx context.Context, url string, within time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM payloads
	WHERE url = ? AND fetched_at > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(within.Seconds()))

	var count int
	err := hdb.db.QueryRowContext(ctx, query, url, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent fetch: %w", err)
	}

	return count > 0, nil
}

// SaveResult saves a complete harvest result as JSON.
func (hdb *HarvestDB) SaveResult(ctx context.Context, result *model.HarvestResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	query := `
	INSERT INTO harvest_results (region, result_json, record_count)
	VALUES (?, ?, ?)
	`

	_, err = hdb.db.ExecContext(ctx, query,
		result.Region,
		string(resultJSON),
		len(result.Records),
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

// LatestResult retrieves the most recent harvest result for a region.
// Returns nil without error when the region has no stored runs.
func (hdb *HarvestDB) LatestResult(ctx context.Context, regionName string) (*model.HarvestResult, error) {
	query := `
	SELECT result_json FROM harvest_results
	WHERE region = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var resultJSON string
	err := hdb.db.QueryRowContext(ctx, query, regionName).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result model.HarvestResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}

	return &result, nil
}

// ListRegions returns all regions with at least one stored harvest run.
func (hdb *HarvestDB) ListRegions(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT region FROM harvest_results
	ORDER BY region
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, r)
	}

	return regions, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
