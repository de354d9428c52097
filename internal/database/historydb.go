package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pageloader/internal/model"
)

// FileName is the name of the history database inside the data directory.
const FileName = "history.db"

// HistoryDB records finished runs in SQLite.
//
// Design decision: Resources live in their own table rather than as a JSON
// column so that a page's history can be listed without decoding every
// resource row.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
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

// ErrNotFound is returned by Open when the database does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("history database not found")

// Open opens or creates a HistoryDB in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
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

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_url TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		state TEXT NOT NULL,
		started TEXT NOT NULL,
		finished TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		saved_path TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_page_url ON runs(page_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);

	CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		target TEXT NOT NULL,
		url TEXT NOT NULL,
		path TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_resources_run ON resources(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Save records a finished run and its resources in one transaction.
// The assigned row id is stored in summary.ID and returned.
func (hdb *HistoryDB) Save(ctx context.Context, summary *model.Summary) (int64, error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (page_url, output_dir, state, started, finished, duration_ms, saved_path, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.PageURL,
		summary.OutputDir,
		summary.State.String(),
		formatTimestamp(summary.Started),
		formatTimestamp(summary.Finished),
		summary.DurationMS,
		summary.SavedPath,
		summary.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, res := range summary.Resources {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO resources (run_id, kind, target, url, path)
		VALUES (?, ?, ?, ?, ?)
		`, id, res.Kind.String(), res.Target, res.URL, res.Path)
		if err != nil {
			return 0, fmt.Errorf("failed to insert resource: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	summary.ID = id
	return id, nil
}

// List returns the most recent runs, newest first. limit <= 0 means no limit.
func (hdb *HistoryDB) List(ctx context.Context, limit int) ([]*model.Summary, error) {
	return hdb.query(ctx, "", limit)
}

// ListByURL returns the most recent runs of one page URL, newest first.
func (hdb *HistoryDB) ListByURL(ctx context.Context, pageURL string, limit int) ([]*model.Summary, error) {
	return hdb.query(ctx, pageURL, limit)
}

// Get retrieves a run by its id. It returns nil, nil when no such run exists.
func (hdb *HistoryDB) Get(ctx context.Context, id int64) (*model.Summary, error) {
	row := hdb.db.QueryRowContext(ctx, `
	SELECT id, page_url, output_dir, state, started, finished, duration_ms, saved_path, error
	FROM runs WHERE id = ?
	`, id)

	summary, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if err := hdb.loadResources(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (hdb *HistoryDB) query(ctx context.Context, pageURL string, limit int) ([]*model.Summary, error) {
	query := `
	SELECT id, page_url, output_dir, state, started, finished, duration_ms, saved_path, error
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if pageURL != "" {
		query += " AND page_url = ?"
		args = append(args, pageURL)
	}
	query += " ORDER BY started DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var results []*model.Summary
	for rows.Next() {
		summary, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, summary)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	// Close before loading resources: the pool holds a single connection.
	_ = rows.Close()

	for _, summary := range results {
		if err := hdb.loadResources(ctx, summary); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (hdb *HistoryDB) loadResources(ctx context.Context, summary *model.Summary) error {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT kind, target, url, path FROM resources
	WHERE run_id = ?
	ORDER BY id
	`, summary.ID)
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res model.ResourceSummary
		var kind string
		if err := rows.Scan(&kind, &res.Target, &res.URL, &res.Path); err != nil {
			return fmt.Errorf("failed to scan resource: %w", err)
		}
		k, ok := model.ParseElementKind(kind)
		if !ok {
			return fmt.Errorf("unknown resource kind %q in run %d", kind, summary.ID)
		}
		res.Kind = k
		summary.Resources = append(summary.Resources, res)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}
	summary.ResourceCount = len(summary.Resources)
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Summary, error) {
	var (
		summary  model.Summary
		state    string
		started  string
		finished string
	)
	err := row.Scan(
		&summary.ID,
		&summary.PageURL,
		&summary.OutputDir,
		&state,
		&started,
		&finished,
		&summary.DurationMS,
		&summary.SavedPath,
		&summary.Error,
	)
	if err != nil {
		return nil, err
	}
	summary.State = model.ParseRunState(state)
	summary.Started = parseTimestamp(started)
	summary.Finished = parseTimestamp(finished)
	return &summary, nil
}

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats a row may carry.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
