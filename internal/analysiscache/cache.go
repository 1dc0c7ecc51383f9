package analysiscache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"cadence/internal/detect"
	"cadence/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases must be cleared with `cadence cache clear`.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Key identifies one detection result: the audio content plus everything that
// influences the backend's output.
type Key struct {
	AudioSHA256 string
	Backend     string
	Params      string
}

// Cache persists detection results in SQLite so unchanged audio is not
// re-analyzed. All lookups are soft: any cache failure degrades to a miss.
type Cache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the cache database under dir and applies
// the schema. A file lock serializes schema initialization across processes.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	logger = logging.NewComponentLogger(logger, "analysiscache")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "analysis.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	dbPath := filepath.Join(dir, "analysis.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, path: dbPath, logger: logger}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := c.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'cadence cache clear')",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Lookup returns the cached events for key if present. Failures are logged
// and reported as a miss.
func (c *Cache) Lookup(ctx context.Context, key Key) ([]detect.Event, bool) {
	if c == nil || key.AudioSHA256 == "" {
		return nil, false
	}

	var payload string
	err := c.db.QueryRowContext(ctx,
		"SELECT events FROM analysis_results WHERE audio_sha256 = ? AND backend = ? AND params = ?",
		key.AudioSHA256, key.Backend, key.Params,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache lookup failed", logging.Error(err))
		return nil, false
	}

	var events []detect.Event
	if err := json.Unmarshal([]byte(payload), &events); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss",
			logging.String("audio_sha256", key.AudioSHA256),
			logging.Error(err))
		return nil, false
	}
	return events, true
}

// Store persists the events for key, replacing any previous entry.
func (c *Cache) Store(ctx context.Context, key Key, events []detect.Event) error {
	if c == nil {
		return nil
	}
	if key.AudioSHA256 == "" {
		return errors.New("store: audio digest required")
	}

	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO analysis_results (audio_sha256, backend, params, events, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (audio_sha256, backend, params) DO UPDATE SET
             events = excluded.events,
             created_at = excluded.created_at`,
		key.AudioSHA256, key.Backend, key.Params, string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store analysis result: %w", err)
	}
	return nil
}

// Stats reports the number of cached results.
func (c *Cache) Stats(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	var count int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM analysis_results").Scan(&count); err != nil {
		return 0, fmt.Errorf("count analysis results: %w", err)
	}
	return count, nil
}

// Clear removes every cached result.
func (c *Cache) Clear(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if _, err := c.db.ExecContext(ctx, "DELETE FROM analysis_results"); err != nil {
		return fmt.Errorf("clear analysis results: %w", err)
	}
	return nil
}
