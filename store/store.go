// Package store persists population history across runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pthm-cable/meadow/telemetry"
)

// ErrNotConfigured is returned by calls on a nil or closed store.
var ErrNotConfigured = errors.New("store is not configured")

// Run is one recorded simulation run.
type Run struct {
	ID        int64     `json:"id"`
	Seed      int64     `json:"seed"`
	StartedAt time.Time `json:"started_at"`
	Config    string    `json:"-"` // effective YAML config
	Samples   int       `json:"samples"`
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			config TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			predators INTEGER NOT NULL,
			prey INTEGER NOT NULL,
			plants INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun registers a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context, seed int64, config string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotConfigured
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (seed, started_at, config) VALUES (?, ?, ?)`,
		seed, toMillis(time.Now()), config,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// AppendSamples stores samples for a run in one transaction. A sample for
// an already recorded tick replaces the old one.
func (s *Store) AppendSamples(ctx context.Context, runID int64, samples []telemetry.Sample) (err error) {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO samples (run_id, tick, predators, prey, plants) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, smp := range samples {
		if _, err = stmt.ExecContext(ctx, runID, smp.Tick, smp.Predators, smp.Prey, smp.Plants); err != nil {
			return fmt.Errorf("insert sample %d: %w", smp.Tick, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit samples: %w", err)
	}
	return nil
}

// AddBookmark records a bookmark for a run.
func (s *Store) AddBookmark(ctx context.Context, runID int64, b telemetry.Bookmark) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (run_id, tick, type, description) VALUES (?, ?, ?, ?)`,
		runID, b.Tick, string(b.Type), b.Description,
	)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seed, r.started_at, r.config, COUNT(s.tick)
		FROM runs r LEFT JOIN samples s ON s.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &r.Seed, &started, &r.Config, &r.Samples); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = fromMillis(started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Samples returns a run's samples with tick > since, in tick order.
func (s *Store) Samples(ctx context.Context, runID int64, since int) ([]telemetry.Sample, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, predators, prey, plants FROM samples WHERE run_id = ? AND tick > ? ORDER BY tick`,
		runID, since)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Sample
	for rows.Next() {
		var smp telemetry.Sample
		if err := rows.Scan(&smp.Tick, &smp.Predators, &smp.Prey, &smp.Plants); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Bookmarks returns a run's bookmarks in tick order.
func (s *Store) Bookmarks(ctx context.Context, runID int64) ([]telemetry.Bookmark, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, type, description FROM bookmarks WHERE run_id = ? ORDER BY tick, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Bookmark
	for rows.Next() {
		var b telemetry.Bookmark
		var typ string
		if err := rows.Scan(&b.Tick, &typ, &b.Description); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		b.Type = telemetry.BookmarkType(typ)
		out = append(out, b)
	}
	return out, rows.Err()
}
