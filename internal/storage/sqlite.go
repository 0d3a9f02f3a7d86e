// Package storage provides SQLite-based persistence for finished runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("storage: run not found")

// Store manages the SQLite database connection for run history.
type Store struct {
	db *sql.DB
}

// Run is one finished (or abandoned) session.
type Run struct {
	ID           int64
	Layout       string
	Seed         uint64
	Steps        int
	BlocksBroken int
	BlocksTotal  int
	Won          bool
	Lost         bool
	Snapshot     []byte // msgpack-encoded final state, may be empty
	CreatedAt    time.Time
}

// LayoutStats contains aggregated statistics for one layout.
type LayoutStats struct {
	Layout       string
	Runs         int
	Wins         int
	Losses       int
	BestBroken   int
	AvgBroken    float64
	FastestWin   int // Steps of the quickest win, 0 if none
	LastPlayedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			layout TEXT NOT NULL,
			seed INTEGER NOT NULL DEFAULT 0,
			steps INTEGER NOT NULL,
			blocks_broken INTEGER NOT NULL,
			blocks_total INTEGER NOT NULL,
			won INTEGER NOT NULL DEFAULT 0,
			lost INTEGER NOT NULL DEFAULT 0,
			snapshot BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_layout ON runs(layout);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(layout, blocks_broken DESC, steps ASC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a run. Returns the ID of the inserted record.
func (s *Store) SaveRun(r Run) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (layout, seed, steps, blocks_broken, blocks_total, won, lost, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Layout, int64(r.Seed), r.Steps, r.BlocksBroken, r.BlocksTotal, r.Won, r.Lost, r.Snapshot, //#nosec G115 -- seed stored as raw bits
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const runColumns = `id, layout, seed, steps, blocks_broken, blocks_total, won, lost, snapshot, created_at`

// TopRuns retrieves the best N runs for the given layout: most blocks
// broken first, fewer steps breaking ties.
func (s *Store) TopRuns(layout string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE layout = ?
		 ORDER BY blocks_broken DESC, steps ASC, id ASC
		 LIMIT ?`,
		layout, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// RecentRuns retrieves the most recent runs across all layouts.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// BestRun returns the top run for the layout, or ErrNotFound.
func (s *Store) BestRun(layout string) (Run, error) {
	runs, err := s.TopRuns(layout, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNotFound
	}
	return runs[0], nil
}

// RunByID retrieves a run by its ID.
func (s *Store) RunByID(id int64) (Run, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	if err != nil {
		return Run{}, fmt.Errorf("storage: cannot query run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNotFound
	}
	return runs[0], nil
}

// ClearRuns deletes all runs for the given layout.
func (s *Store) ClearRuns(layout string) error {
	_, err := s.db.Exec("DELETE FROM runs WHERE layout = ?", layout)
	if err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

// Stats retrieves aggregated statistics for a layout. A layout with no runs
// yields zero stats.
func (s *Store) Stats(layout string) (LayoutStats, error) {
	st := LayoutStats{Layout: layout}

	var avg sql.NullFloat64
	var best, fastest sql.NullInt64
	var last any
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(won), 0),
		        COALESCE(SUM(lost), 0),
		        MAX(blocks_broken),
		        AVG(blocks_broken),
		        MIN(CASE WHEN won = 1 THEN steps END),
		        MAX(created_at)
		 FROM runs
		 WHERE layout = ?`,
		layout,
	).Scan(&st.Runs, &st.Wins, &st.Losses, &best, &avg, &fastest, &last)
	if err != nil {
		return st, fmt.Errorf("storage: cannot query stats: %w", err)
	}

	st.BestBroken = int(best.Int64)
	st.AvgBroken = avg.Float64
	st.FastestWin = int(fastest.Int64)
	st.LastPlayedAt = parseTime(last)
	return st, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var seed int64
		var createdAt any
		if err := rows.Scan(&r.ID, &r.Layout, &seed, &r.Steps, &r.BlocksBroken, &r.BlocksTotal,
			&r.Won, &r.Lost, &r.Snapshot, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Seed = uint64(seed) //#nosec G115 -- seed stored as raw bits
		r.CreatedAt = parseTime(createdAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
