package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/cmsfinger/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "cmsfinger.db"

// storedTimeLayout has a fixed width so that stored timestamps sort correctly as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB stores scan results in SQLite.
// It is safe for concurrent use.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
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

// ErrNotFound is returned when no database exists and creation was not requested.
var ErrNotFound = errors.New("history database not found")

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

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
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		matches TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		body_digest TEXT NOT NULL DEFAULT '',
		scanned_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_url ON scan_results(url);
	CREATE INDEX IF NOT EXISTS idx_results_scanned_at ON scan_results(scanned_at);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Record is one stored scan result.
type Record struct {
	ID         int64
	URL        string
	Matches    []string
	Attempts   int
	BodyDigest string
	ScannedAt  time.Time
}

// Result converts the record back into a scan result.
func (r Record) Result() model.ScanResult {
	return model.ScanResult{
		URL:        r.URL,
		Matches:    r.Matches,
		Attempts:   r.Attempts,
		BodyDigest: r.BodyDigest,
		ScannedAt:  r.ScannedAt,
	}
}

// SaveResult stores r and returns its row ID.
func (h *HistoryDB) SaveResult(ctx context.Context, r model.ScanResult) (int64, error) {
	matches := r.Matches
	if matches == nil {
		matches = []string{}
	}
	matchesJSON, err := json.Marshal(matches)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize matches: %w", err)
	}

	scannedAt := r.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now()
	}

	query := `
	INSERT INTO scan_results (url, matches, attempts, body_digest, scanned_at)
	VALUES (?, ?, ?, ?, ?)
	`
	res, err := h.db.ExecContext(ctx, query,
		r.URL,
		string(matchesJSON),
		r.Attempts,
		r.BodyDigest,
		scannedAt.UTC().Format(storedTimeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan result: %w", err)
	}
	return res.LastInsertId()
}

// ListResults returns stored results, newest first. An empty url selects
// every URL; a limit of zero or less returns all rows.
func (h *HistoryDB) ListResults(ctx context.Context, url string, limit int) ([]Record, error) {
	query := `
	SELECT id, url, matches, attempts, body_digest, scanned_at
	FROM scan_results
	WHERE (? = '' OR url = ?)
	ORDER BY scanned_at DESC, id DESC
	`
	args := []any{url, url}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan results: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var matchesJSON, scannedAt string
		if err := rows.Scan(&rec.ID, &rec.URL, &matchesJSON, &rec.Attempts, &rec.BodyDigest, &scannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		if err := json.Unmarshal([]byte(matchesJSON), &rec.Matches); err != nil {
			rec.Matches = []string{}
		}
		rec.ScannedAt = parseTimestamp(scannedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestResult returns the most recent record for url, or nil when the URL
// has never been recorded.
func (h *HistoryDB) LatestResult(ctx context.Context, url string) (*Record, error) {
	if url == "" {
		return nil, nil
	}
	records, err := h.ListResults(ctx, url, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ListURLs returns every recorded URL in alphabetical order.
func (h *HistoryDB) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT url FROM scan_results ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	urls := make([]string, 0)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns zero time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
