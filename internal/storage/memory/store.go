// Package memory is an in-process Datastore. Data is lost on restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"sort"
	"sync"

	"bizreviews/internal/domain"
)

// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	next  int64
	kinds map[string]map[int64]map[string]any
}

func New() *Store {
	return &Store{kinds: make(map[string]map[int64]map[string]any)}
}

func (s *Store) AllocateID(_ context.Context, kind string) (domain.Key, error) {
	if kind == "" {
		return domain.Key{}, fmt.Errorf("memory: empty kind")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return domain.Key{Kind: kind, ID: s.next}, nil
}

func (s *Store) Get(_ context.Context, key domain.Key) (domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	props, ok := s.kinds[key.Kind][key.ID]
	if !ok {
		return domain.Entity{}, domain.ErrNotFound
	}
	return domain.Entity{Key: key, Props: maps.Clone(props)}, nil
}

func (s *Store) Put(_ context.Context, e domain.Entity) error {
	if e.Key.Kind == "" || e.Key.ID <= 0 {
		return fmt.Errorf("memory: incomplete key %+v", e.Key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kinds[e.Key.Kind]; !ok {
		s.kinds[e.Key.Kind] = make(map[int64]map[string]any)
	}
	s.kinds[e.Key.Kind][e.Key.ID] = maps.Clone(e.Props)
	return nil
}

// Delete is idempotent.
func (s *Store) Delete(_ context.Context, key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kinds[key.Kind], key.ID)
	return nil
}

func (s *Store) Query(_ context.Context, kind string, filters ...domain.Filter) ([]domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Entity, 0)
	for id, props := range s.kinds[kind] {
		if !matches(props, filters) {
			continue
		}
		out = append(out, domain.Entity{Key: domain.Key{Kind: kind, ID: id}, Props: maps.Clone(props)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.ID < out[j].Key.ID })
	return out, nil
}

func matches(props map[string]any, filters []domain.Filter) bool {
	for _, f := range filters {
		v, ok := props[f.Field]
		if !ok || normalize(v) != normalize(f.Value) {
			return false
		}
	}
	return true
}

// normalize maps every numeric representation onto int64 when the value
// is integral and fits, and onto float64 otherwise, so that int64(7),
// float64(7) and json.Number("7") compare equal while distinct 64-bit ids
// never collapse onto one float.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case float32:
		return integral(float64(t))
	case float64:
		return integral(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return integral(f)
		}
		return t.String()
	}
	return v
}

func integral(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}
