package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kachinap/sandpile-project/internal/core"
	"github.com/kachinap/sandpile-project/internal/sims/sandpile"
)

// DB is the SQLite-backed store for snapshots and experiment runs.
type DB struct {
	*sql.DB
	log *slog.Logger
}

// Snapshot is a stored grid together with the parameters it was taken under.
type Snapshot struct {
	ID        string
	Label     string
	Threshold int
	Boundary  sandpile.BoundaryMode
	Mass      int
	CreatedAt time.Time
	Grid      *core.IntGrid
}

// Run is one recorded avalanche experiment.
type Run struct {
	ID           string
	Config       sandpile.Config
	Avalanches   int
	TotalTopples int
	CreatedAt    time.Time
}

// OpenDB opens (or creates) the database at path and migrates it to the
// latest schema. A nil logger discards migration output.
func OpenDB(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Pragmas are per connection.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
		PRAGMA journal_mode = WAL;
	`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}

	db := &DB{DB: sqlDB, log: logger}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// InsertSnapshot stores s and returns its ID. Empty ID and zero CreatedAt
// are filled in; Mass is always recomputed from the grid.
func (db *DB) InsertSnapshot(ctx context.Context, s *Snapshot) (string, error) {
	if s == nil || s.Grid == nil {
		return "", fmt.Errorf("insert snapshot: nil grid")
	}
	if err := checkLabel(s.Label); err != nil {
		return "", err
	}
	blob, err := EncodeGrid(s.Grid)
	if err != nil {
		return "", err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.Mass = s.Grid.Mass()

	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (snapshot_id, label, size, threshold, boundary, mass, grid_blob, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Label, s.Grid.N, s.Threshold, string(s.Boundary), s.Mass, blob, s.CreatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert snapshot %q: %w", s.Label, err)
	}
	return s.ID, nil
}

// GetSnapshot returns the snapshot whose ID is ref or, when ref is not a
// UUID, the most recent snapshot labelled ref.
func (db *DB) GetSnapshot(ctx context.Context, ref string) (*Snapshot, error) {
	const cols = `snapshot_id, label, threshold, boundary, mass, grid_blob, created_unix_nanos`
	var row *sql.Row
	if _, err := uuid.Parse(ref); err == nil {
		row = db.QueryRowContext(ctx, `SELECT `+cols+` FROM snapshots WHERE snapshot_id = ?`, ref)
	} else {
		row = db.QueryRowContext(ctx, `SELECT `+cols+` FROM snapshots WHERE label = ?
			ORDER BY created_unix_nanos DESC, rowid DESC LIMIT 1`, ref)
	}

	var (
		s        Snapshot
		boundary string
		blob     []byte
		created  int64
	)
	err := row.Scan(&s.ID, &s.Label, &s.Threshold, &boundary, &s.Mass, &blob, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %q: %w", ref, err)
	}
	s.Grid, err = DecodeGrid(blob)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", ref, err)
	}
	s.Boundary = sandpile.BoundaryMode(boundary)
	s.CreatedAt = time.Unix(0, created)
	return &s, nil
}

// SaveSnapshot stores g under label without experiment metadata.
func (db *DB) SaveSnapshot(ctx context.Context, label string, g *core.IntGrid) (string, error) {
	return db.InsertSnapshot(ctx, &Snapshot{Label: label, Grid: g})
}

// LoadSnapshot returns the grid of GetSnapshot(ref).
func (db *DB) LoadSnapshot(ctx context.Context, ref string) (*core.IntGrid, error) {
	s, err := db.GetSnapshot(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.Grid, nil
}

// InsertRun records run and its avalanches in one transaction and returns
// the run ID. Avalanche counts and totals are derived from avs.
func (db *DB) InsertRun(ctx context.Context, run Run, avs []sandpile.Avalanche) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.Avalanches = len(avs)
	run.TotalTopples = 0
	for _, a := range avs {
		run.TotalTopples += a.Size
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run insert: %w", err)
	}
	defer tx.Rollback()

	c := run.Config
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, size, threshold, fill, boundary, placement, band_width, seed,
			avalanche_count, total_topples, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, c.Size, c.Threshold, c.Fill, string(c.Boundary), c.Placement, c.BandWidth, c.Seed,
		run.Avalanches, run.TotalTopples, run.CreatedAt.UnixNano()); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO avalanches (run_id, seq, deposit_row, deposit_col, size, sweeps)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare avalanche insert: %w", err)
	}
	defer stmt.Close()
	for i, a := range avs {
		if _, err := stmt.ExecContext(ctx, run.ID, i, a.Deposit.Row, a.Deposit.Col, a.Size, a.Sweeps); err != nil {
			return "", fmt.Errorf("insert avalanche %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	db.log.Debug("recorded run", "run_id", run.ID, "avalanches", run.Avalanches)
	return run.ID, nil
}

// RunSizes returns the avalanche sizes of a run in deposition order.
func (db *DB) RunSizes(ctx context.Context, runID string) ([]int, error) {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("query run %q: %w", runID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}

	rows, err := db.QueryContext(ctx, `SELECT size FROM avalanches WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query avalanches of %q: %w", runID, err)
	}
	defer rows.Close()

	sizes := []int{}
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns all of them.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, size, threshold, fill, boundary, placement, band_width, seed,
			avalanche_count, total_topples, created_unix_nanos
		FROM runs ORDER BY created_unix_nanos DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			boundary string
			created  int64
		)
		c := &r.Config
		if err := rows.Scan(&r.ID, &c.Size, &c.Threshold, &c.Fill, &boundary, &c.Placement, &c.BandWidth, &c.Seed,
			&r.Avalanches, &r.TotalTopples, &created); err != nil {
			return nil, err
		}
		c.Boundary = sandpile.BoundaryMode(boundary)
		r.CreatedAt = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
