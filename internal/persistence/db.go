// Package persistence provides the SQLite event journal. The simulation
// only writes to it; nothing is restored from it on startup.
package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tidewater/internal/engine"
)

// ErrNoRun is returned when events are saved before BeginRun.
var ErrNoRun = errors.New("persistence: no active run")

// Run describes one simulation session.
type Run struct {
	ID        string    `db:"id" json:"id"`
	Seed      int64     `db:"seed" json:"seed"`
	Radius    int       `db:"radius" json:"radius"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
}

// DB wraps a SQLite connection for the event journal.
type DB struct {
	conn  *sqlx.DB
	runID string
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		radius INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		category TEXT NOT NULL,
		ship_id INTEGER NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_events_ship ON events(ship_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun records a new session and makes it the target of SaveEvents.
func (db *DB) BeginRun(seed int64, radius int) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		Radius:    radius,
		StartedAt: time.Now().UTC(),
	}
	_, err := db.conn.NamedExec(
		"INSERT INTO runs (id, seed, radius, started_at) VALUES (:id, :seed, :radius, :started_at)",
		run,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	db.runID = run.ID
	slog.Info("journal run started", "run", run.ID, "seed", seed)
	return run, nil
}

// RunID returns the active run, or "" before BeginRun.
func (db *DB) RunID() string {
	return db.runID
}

// Runs lists every recorded session, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, radius, started_at FROM runs ORDER BY started_at DESC")
	return runs, err
}

// SaveEvents appends events to the active run. It implements engine.Journal.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	if db.runID == "" {
		return ErrNoRun
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, tick, category, ship_id, q, r, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.Exec(db.runID, e.Tick, e.Category, uint64(e.Ship), e.Q, e.R, e.Description)
		if err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// RecentEvents returns the most recent N events of the active run, newest
// first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		`SELECT tick, category, ship_id, q, r, description FROM events
		 WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		db.runID, limit,
	)
	return events, err
}

// CountEvents returns how many events of category the active run holds.
// An empty category counts everything.
func (db *DB) CountEvents(category string) (int, error) {
	var n int
	var err error
	if category == "" {
		err = db.conn.Get(&n, "SELECT COUNT(*) FROM events WHERE run_id = ?", db.runID)
	} else {
		err = db.conn.Get(&n, "SELECT COUNT(*) FROM events WHERE run_id = ? AND category = ?", db.runID, category)
	}
	return n, err
}
