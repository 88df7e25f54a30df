package mysql

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bizreviews/internal/domain"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Datastore keeps every kind in one JSON-column table.
type Datastore struct{ db *sql.DB }

func New(db *sql.DB) *Datastore { return &Datastore{db: db} }

// EnsureSchema creates the tables when they are missing.
func (d *Datastore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createSequenceSQL, createEntitiesSQL} {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql: ensure schema: %w", err)
		}
	}
	return nil
}

func (d *Datastore) AllocateID(ctx context.Context, kind string) (domain.Key, error) {
	res, err := d.db.ExecContext(ctx, allocateIDSQL, kind)
	if err != nil {
		return domain.Key{}, fmt.Errorf("mysql: allocate %s id: %w", kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Key{}, fmt.Errorf("mysql: allocate %s id: %w", kind, err)
	}
	return domain.Key{Kind: kind, ID: id}, nil
}

func (d *Datastore) Get(ctx context.Context, key domain.Key) (domain.Entity, error) {
	var raw []byte
	err := d.db.QueryRowContext(ctx, getEntitySQL, key.Kind, key.ID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entity{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Entity{}, fmt.Errorf("mysql: get %s %d: %w", key.Kind, key.ID, err)
	}
	props, err := decodeProps(raw)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("mysql: decode %s %d: %w", key.Kind, key.ID, err)
	}
	return domain.Entity{Key: key, Props: props}, nil
}

func (d *Datastore) Put(ctx context.Context, e domain.Entity) error {
	if e.Key.Kind == "" || e.Key.ID <= 0 {
		return fmt.Errorf("mysql: incomplete key %+v", e.Key)
	}
	props := e.Props
	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("mysql: encode %s %d: %w", e.Key.Kind, e.Key.ID, err)
	}
	if _, err := d.db.ExecContext(ctx, upsertEntitySQL, e.Key.Kind, e.Key.ID, string(b)); err != nil {
		return fmt.Errorf("mysql: put %s %d: %w", e.Key.Kind, e.Key.ID, err)
	}
	return nil
}

func (d *Datastore) Delete(ctx context.Context, key domain.Key) error {
	if _, err := d.db.ExecContext(ctx, deleteEntitySQL, key.Kind, key.ID); err != nil {
		return fmt.Errorf("mysql: delete %s %d: %w", key.Kind, key.ID, err)
	}
	return nil
}

func (d *Datastore) Query(ctx context.Context, kind string, filters ...domain.Filter) ([]domain.Entity, error) {
	var sb strings.Builder
	sb.WriteString(queryEntitiesPrefix)
	args := make([]any, 0, 1+2*len(filters))
	args = append(args, kind)
	for _, f := range filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("mysql: invalid filter field %q", f.Field)
		}
		if _, ok := f.Value.(string); ok {
			sb.WriteString(stringFilterSQL)
		} else {
			sb.WriteString(numericFilterSQL)
		}
		args = append(args, "$."+f.Field, f.Value)
	}
	sb.WriteString(queryEntitiesSuffix)

	rows, err := d.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: query %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]domain.Entity, 0)
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("mysql: scan %s: %w", kind, err)
		}
		props, err := decodeProps(raw)
		if err != nil {
			return nil, fmt.Errorf("mysql: decode %s %d: %w", kind, id, err)
		}
		out = append(out, domain.Entity{Key: domain.Key{Kind: kind, ID: id}, Props: props})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: query %s: %w", kind, err)
	}
	return out, nil
}

// decodeProps keeps numbers as json.Number so 64-bit ids survive the trip.
func decodeProps(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
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
