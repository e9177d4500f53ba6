// Package persistence stores world checkpoints: a zstd-compressed JSON payload
// per checkpoint plus a SQLite index of their metadata.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Meta describes one checkpoint without loading it.
type Meta struct {
	Name         string    `json:"name"`
	Slot         int       `json:"slot"` // 0 for named checkpoints
	CreatedAt    time.Time `json:"created_at"`
	SimTime      string    `json:"sim_time"`
	TotalDays    int       `json:"total_days"`
	Tick         uint64    `json:"tick"`
	AgentCount   int       `json:"agent_count"`
	Version      int       `json:"version"`
	Description  string    `json:"description"`
	PayloadBytes int64     `json:"payload_bytes"`
	InstanceID   string    `json:"instance_id"`
}

// metaRow is the table layout of Meta.
type metaRow struct {
	Name         string `db:"name"`
	Slot         int    `db:"slot"`
	CreatedAt    int64  `db:"created_at"` // unix nanoseconds
	SimTime      string `db:"sim_time"`
	TotalDays    int    `db:"total_days"`
	Tick         int64  `db:"tick"`
	AgentCount   int    `db:"agent_count"`
	Version      int    `db:"version"`
	Description  string `db:"description"`
	PayloadBytes int64  `db:"payload_bytes"`
	InstanceID   string `db:"instance_id"`
}

func (r metaRow) meta() Meta {
	return Meta{
		Name:         r.Name,
		Slot:         r.Slot,
		CreatedAt:    time.Unix(0, r.CreatedAt).UTC(),
		SimTime:      r.SimTime,
		TotalDays:    r.TotalDays,
		Tick:         uint64(r.Tick),
		AgentCount:   r.AgentCount,
		Version:      r.Version,
		Description:  r.Description,
		PayloadBytes: r.PayloadBytes,
		InstanceID:   r.InstanceID,
	}
}

func rowOf(m Meta) metaRow {
	return metaRow{
		Name:         m.Name,
		Slot:         m.Slot,
		CreatedAt:    m.CreatedAt.UnixNano(),
		SimTime:      m.SimTime,
		TotalDays:    m.TotalDays,
		Tick:         int64(m.Tick),
		AgentCount:   m.AgentCount,
		Version:      m.Version,
		Description:  m.Description,
		PayloadBytes: m.PayloadBytes,
		InstanceID:   m.InstanceID,
	}
}

// Index is the SQLite table of checkpoint metadata.
type Index struct {
	conn *sqlx.DB
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	conn.SetMaxOpenConns(1)

	idx := &Index{conn: conn}
	if err := idx.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return idx, nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.conn.Close()
}

func (idx *Index) migrate() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := idx.conn.Exec(p); err != nil {
			return err
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		name TEXT PRIMARY KEY,
		slot INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		sim_time TEXT NOT NULL,
		total_days INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		agent_count INTEGER NOT NULL,
		version INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		payload_bytes INTEGER NOT NULL,
		instance_id TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_checkpoints_created ON checkpoints(created_at);
	`
	_, err := idx.conn.Exec(schema)
	return err
}

// Put inserts or replaces the row for m.Name.
func (idx *Index) Put(m Meta) error {
	_, err := idx.conn.NamedExec(`INSERT OR REPLACE INTO checkpoints
		(name, slot, created_at, sim_time, total_days, tick, agent_count,
		 version, description, payload_bytes, instance_id)
		VALUES (:name, :slot, :created_at, :sim_time, :total_days, :tick, :agent_count,
		 :version, :description, :payload_bytes, :instance_id)`, rowOf(m))
	if err != nil {
		return fmt.Errorf("index %q: %w", m.Name, err)
	}
	return nil
}

// Get returns the row for name, or ErrNotFound.
func (idx *Index) Get(name string) (Meta, error) {
	var row metaRow
	err := idx.conn.Get(&row, "SELECT * FROM checkpoints WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, fmt.Errorf("checkpoint %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Meta{}, err
	}
	return row.meta(), nil
}

// List returns every row, newest first.
func (idx *Index) List() ([]Meta, error) {
	var rows []metaRow
	if err := idx.conn.Select(&rows, "SELECT * FROM checkpoints ORDER BY created_at DESC, name ASC"); err != nil {
		return nil, err
	}
	out := make([]Meta, len(rows))
	for i, r := range rows {
		out[i] = r.meta()
	}
	return out, nil
}

// Remove deletes the row for name, or returns ErrNotFound.
func (idx *Index) Remove(name string) error {
	res, err := idx.conn.Exec("DELETE FROM checkpoints WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("checkpoint %q: %w", name, ErrNotFound)
	}
	return nil
}
