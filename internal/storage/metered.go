package storage

import (
	"context"
	"errors"
	"time"

	"bizreviews/internal/adapters/observability"
	"bizreviews/internal/domain"
)

// Metered wraps a Datastore and records per-operation counts and latency.
type Metered struct {
	backend string
	next    domain.Datastore
}

func NewMetered(backend string, next domain.Datastore) *Metered {
	return &Metered{backend: backend, next: next}
}

func (m *Metered) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	observability.ObserveDatastore(m.backend, op, result, time.Since(start))
}

func (m *Metered) AllocateID(ctx context.Context, kind string) (k domain.Key, err error) {
	defer func(start time.Time) { m.observe("allocate", start, err) }(time.Now())
	return m.next.AllocateID(ctx, kind)
}

func (m *Metered) Get(ctx context.Context, key domain.Key) (e domain.Entity, err error) {
	defer func(start time.Time) { m.observe("get", start, err) }(time.Now())
	return m.next.Get(ctx, key)
}

func (m *Metered) Put(ctx context.Context, e domain.Entity) (err error) {
	defer func(start time.Time) { m.observe("put", start, err) }(time.Now())
	return m.next.Put(ctx, e)
}

func (m *Metered) Delete(ctx context.Context, key domain.Key) (err error) {
	defer func(start time.Time) { m.observe("delete", start, err) }(time.Now())
	return m.next.Delete(ctx, key)
}

func (m *Metered) Query(ctx context.Context, kind string, filters ...domain.Filter) (es []domain.Entity, err error) {
	defer func(start time.Time) { m.observe("query", start, err) }(time.Now())
	return m.next.Query(ctx, kind, filters...)
}
