// Package store persists genome snapshots and liftover chain
// registrations in DuckDB, so a host can rebuild its registry and engine
// configuration across processes.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/strandtools/refgenome/internal/genome"
)

// Store manages a DuckDB connection for the genome catalog.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS genomes (
		name VARCHAR PRIMARY KEY,
		snapshot VARCHAR,
		created_at TIMESTAMP
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS liftovers (
		source VARCHAR,
		target VARCHAR,
		chain_path VARCHAR,
		chains INTEGER,
		created_at TIMESTAMP,
		PRIMARY KEY (source, target)
	)`)
	return err
}

// PutGenome stores or replaces a genome's snapshot under its name.
func (s *Store) PutGenome(g *genome.ReferenceGenome) error {
	snap, err := json.Marshal(g.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", g.Name(), err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO genomes (name, snapshot, created_at) VALUES (?, ?, ?)`,
		g.Name(), string(snap), time.Now())
	if err != nil {
		return fmt.Errorf("store genome %s: %w", g.Name(), err)
	}
	return nil
}

// GetGenome loads a genome by name, re-running construction validation.
func (s *Store) GetGenome(name string) (*genome.ReferenceGenome, error) {
	var raw string
	err := s.db.QueryRow(`SELECT snapshot FROM genomes WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &genome.NotFoundError{Kind: "genome", Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("load genome %s: %w", name, err)
	}
	var snap genome.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", name, err)
	}
	return genome.FromSnapshot(snap)
}

// ListGenomes returns the stored genome names, sorted.
func (s *Store) ListGenomes() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM genomes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list genomes: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// DeleteGenome removes a stored genome.
func (s *Store) DeleteGenome(name string) error {
	res, err := s.db.Exec(`DELETE FROM genomes WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete genome %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &genome.NotFoundError{Kind: "genome", Name: name}
	}
	return nil
}

// LiftoverRecord is one registered chain mapping.
type LiftoverRecord struct {
	Source    string
	Target    string
	ChainPath string
	Chains    int
}

// RecordLiftover stores or replaces a chain registration.
func (s *Store) RecordLiftover(rec LiftoverRecord) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO liftovers (source, target, chain_path, chains, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Source, rec.Target, rec.ChainPath, rec.Chains, time.Now())
	if err != nil {
		return fmt.Errorf("record liftover %s -> %s: %w", rec.Source, rec.Target, err)
	}
	return nil
}

// Liftovers returns the chain registrations for a source genome.
func (s *Store) Liftovers(source string) ([]LiftoverRecord, error) {
	rows, err := s.db.Query(`SELECT source, target, chain_path, chains FROM liftovers WHERE source = ? ORDER BY target`, source)
	if err != nil {
		return nil, fmt.Errorf("list liftovers for %s: %w", source, err)
	}
	defer rows.Close()
	var recs []LiftoverRecord
	for rows.Next() {
		var r LiftoverRecord
		if err := rows.Scan(&r.Source, &r.Target, &r.ChainPath, &r.Chains); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// RemoveLiftover deletes a chain registration.
func (s *Store) RemoveLiftover(source, target string) error {
	res, err := s.db.Exec(`DELETE FROM liftovers WHERE source = ? AND target = ?`, source, target)
	if err != nil {
		return fmt.Errorf("remove liftover %s -> %s: %w", source, target, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &genome.NotFoundError{Kind: "liftover", Name: source + " -> " + target}
	}
	return nil
}
