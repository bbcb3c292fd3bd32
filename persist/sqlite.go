package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/TrevorS/pointindex"
)

// Info describes a snapshot held by a SQLite store.
type Info struct {
	ID        uuid.UUID
	Name      string
	Dims      int
	Metric    string
	Entries   int
	CreatedAt time.Time
}

// SQLite stores named index snapshots in a SQLite database, one row per
// entry. Saving under an existing name replaces that snapshot.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the store at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			version INTEGER NOT NULL,
			dims INTEGER NOT NULL,
			min_entries INTEGER NOT NULL,
			max_entries INTEGER NOT NULL,
			metric TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS entries (
			snapshot_id TEXT NOT NULL,
			id INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			PRIMARY KEY (snapshot_id, id)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

// Save stores ix under name and returns the new snapshot's identifier.
func (s *SQLite) Save(ctx context.Context, name string, ix *pointindex.Index) (uuid.UUID, error) {
	snap := FromIndex(ix)
	entries, err := snap.Entries()
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if err := deleteByName(ctx, tx, name); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, version, dims, min_entries, max_entries, metric, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), name, snap.Version, snap.Dims, snap.MinEntries, snap.MaxEntries, snap.Metric, time.Now().UnixNano())
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO entries (snapshot_id, id, x, y, z) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return uuid.Nil, err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, id.String(), e.ID, e.Point[0], e.Point[1], e.Point[2]); err != nil {
			return uuid.Nil, fmt.Errorf("insert entry %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Load restores the snapshot stored under name. base supplies Workers and
// Logger, as for Snapshot.Restore.
func (s *SQLite) Load(ctx context.Context, name string, base pointindex.Config) (*pointindex.Index, error) {
	var (
		id   string
		snap Snapshot
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, version, dims, min_entries, max_entries, metric FROM snapshots WHERE name = ?", name).
		Scan(&id, &snap.Version, &snap.Dims, &snap.MinEntries, &snap.MaxEntries, &snap.Metric)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	if snap.Dims != 2 && snap.Dims != 3 {
		return nil, fmt.Errorf("%w: dims %d", ErrCorrupt, snap.Dims)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, x, y, z FROM entries WHERE snapshot_id = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eid     int
			x, y, z float64
		)
		if err := rows.Scan(&eid, &x, &y, &z); err != nil {
			return nil, err
		}
		p := pointindex.Point{x, y, z}
		snap.IDs = append(snap.IDs, eid)
		snap.Coords = append(snap.Coords, p[:snap.Dims]...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap.Restore(base)
}

// List returns every stored snapshot, oldest first.
func (s *SQLite) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.dims, s.metric, s.created_at, COUNT(e.id)
		FROM snapshots s LEFT JOIN entries e ON e.snapshot_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at, s.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info    Info
			rawID   string
			created int64
		)
		if err := rows.Scan(&rawID, &info.Name, &info.Dims, &info.Metric, &created, &info.Entries); err != nil {
			return nil, err
		}
		if info.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("%w: snapshot id %q", ErrCorrupt, rawID)
		}
		info.CreatedAt = time.Unix(0, created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes the snapshot stored under name. It reports whether a
// snapshot was removed.
func (s *SQLite) Delete(ctx context.Context, name string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots WHERE name = ?", name).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}
	if err := deleteByName(ctx, tx, name); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func deleteByName(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM entries WHERE snapshot_id IN (SELECT id FROM snapshots WHERE name = ?)", name); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
