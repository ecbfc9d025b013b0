package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is a sqlite-backed record index. It carries the same data as the
// JSON librarian; use it when the catalog is shared between tools or too
// large to keep as a flat file.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed initializes) a sqlite catalog at path.
// Use ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog: empty db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS models (
  name       TEXT PRIMARY KEY,
  category   TEXT NOT NULL,
  bounds     TEXT NOT NULL, -- JSON
  do_not_use INTEGER NOT NULL DEFAULT 0,
  shelves    TEXT           -- JSON, NULL when the model has no shelves
);
CREATE INDEX IF NOT EXISTS idx_models_category ON models(category);
`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put inserts or replaces one record.
func (s *Store) Put(r Record) error {
	if r.Name == "" {
		return fmt.Errorf("catalog: record with empty name")
	}
	bounds, err := json.Marshal(r.Bounds)
	if err != nil {
		return err
	}
	var shelves any
	if r.Shelves != nil {
		b, err := json.Marshal(r.Shelves)
		if err != nil {
			return err
		}
		shelves = string(b)
	}
	doNotUse := 0
	if r.DoNotUse {
		doNotUse = 1
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO models (name, category, bounds, do_not_use, shelves) VALUES (?, ?, ?, ?, ?)`,
		r.Name, r.Category, string(bounds), doNotUse, shelves)
	return err
}

// Librarian loads every record into an in-memory librarian.
func (s *Store) Librarian() (*Librarian, error) {
	rows, err := s.db.Query(`SELECT name, category, bounds, do_not_use, shelves FROM models ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r        Record
			bounds   string
			doNotUse int
			shelves  sql.NullString
		)
		if err := rows.Scan(&r.Name, &r.Category, &bounds, &doNotUse, &shelves); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(bounds), &r.Bounds); err != nil {
			return nil, fmt.Errorf("catalog: model %s: bad bounds: %w", r.Name, err)
		}
		r.DoNotUse = doNotUse != 0
		if shelves.Valid {
			var sd ShelfData
			if err := json.Unmarshal([]byte(shelves.String), &sd); err != nil {
				return nil, fmt.Errorf("catalog: model %s: bad shelves: %w", r.Name, err)
			}
			r.Shelves = &sd
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return New(records)
}
