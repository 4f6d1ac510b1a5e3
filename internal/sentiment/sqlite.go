package sentiment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/tickerdesk/tickerdesk/pkg/models"
)

// keyPrefix matches the entry naming the dashboard has always used for
// per-ticker info.
const keyPrefix = "tickerInfo-"

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is a durable key-value store for sentiment reports, one row
// per symbol with a JSON-serialized report as the value.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the cache database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS cache_entries (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get retrieves the report for a symbol, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, symbol string) (*models.SentimentReport, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE key = ?`, keyPrefix+symbol,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry for %s: %w", symbol, err)
	}

	var report models.SentimentReport
	if err := json.Unmarshal([]byte(value), &report); err != nil {
		return nil, fmt.Errorf("decode cache entry for %s: %w", symbol, err)
	}
	return &report, nil
}

// Put writes the whole entry for a symbol, replacing any previous value.
func (s *SQLiteStore) Put(ctx context.Context, report *models.SentimentReport) error {
	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode cache entry for %s: %w", report.Symbol, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (key, value) VALUES (?, ?)`,
		keyPrefix+report.Symbol, string(value),
	)
	if err != nil {
		return fmt.Errorf("write cache entry for %s: %w", report.Symbol, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
