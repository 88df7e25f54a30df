// Package sqlite is a single-file Datastore on SQLite. Properties live in a
// JSON text column and equality filters use json_extract.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"bizreviews/internal/domain"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Store struct {
	db *sql.DB
}

// Open creates the database file (and its directory) if needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=off")
	if err != nil {
		return nil, err
	}
	// one writer keeps SQLITE_BUSY out of the request path
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		`CREATE TABLE IF NOT EXISTS entity_ids (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			kind  TEXT    NOT NULL,
			id    INTEGER NOT NULL,
			props TEXT    NOT NULL,
			PRIMARY KEY (kind, id)
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AllocateID(ctx context.Context, kind string) (domain.Key, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO entity_ids (kind) VALUES (?)", kind)
	if err != nil {
		return domain.Key{}, fmt.Errorf("sqlite: allocate %s id: %w", kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Key{}, fmt.Errorf("sqlite: allocate %s id: %w", kind, err)
	}
	return domain.Key{Kind: kind, ID: id}, nil
}

func (s *Store) Get(ctx context.Context, key domain.Key) (domain.Entity, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT props FROM entities WHERE kind = ? AND id = ?",
		key.Kind, key.ID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entity{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Entity{}, fmt.Errorf("sqlite: get %s %d: %w", key.Kind, key.ID, err)
	}
	props, err := decodeProps(raw)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("sqlite: decode %s %d: %w", key.Kind, key.ID, err)
	}
	return domain.Entity{Key: key, Props: props}, nil
}

func (s *Store) Put(ctx context.Context, e domain.Entity) error {
	if e.Key.Kind == "" || e.Key.ID <= 0 {
		return fmt.Errorf("sqlite: incomplete key %+v", e.Key)
	}
	props := e.Props
	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (kind, id, props) VALUES (?, ?, ?)
		 ON CONFLICT(kind, id) DO UPDATE SET props = excluded.props`,
		e.Key.Kind, e.Key.ID, string(b),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put %s %d: %w", e.Key.Kind, e.Key.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key domain.Key) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entities WHERE kind = ? AND id = ?", key.Kind, key.ID); err != nil {
		return fmt.Errorf("sqlite: delete %s %d: %w", key.Kind, key.ID, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, kind string, filters ...domain.Filter) ([]domain.Entity, error) {
	var sb strings.Builder
	sb.WriteString("SELECT id, props FROM entities WHERE kind = ?")
	args := []any{kind}
	for _, f := range filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("sqlite: invalid filter field %q", f.Field)
		}
		sb.WriteString(" AND json_extract(props, ?) = ?")
		args = append(args, "$."+f.Field, f.Value)
	}
	sb.WriteString(" ORDER BY id")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]domain.Entity, 0)
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		props, err := decodeProps(raw)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decode %s %d: %w", kind, id, err)
		}
		out = append(out, domain.Entity{Key: domain.Key{Kind: kind, ID: id}, Props: props})
	}
	return out, rows.Err()
}

func decodeProps(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, err
	}
	if props == nil {
		props = map[string]any{}
	}
	return props, nil
}
