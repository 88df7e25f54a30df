package domain

import "context"

// Key addresses one entity: a kind plus a server-assigned numeric id.
type Key struct {
	Kind string
	ID   int64
}

// Entity is a stored record. Props holds plain JSON-compatible values;
// numbers may come back as int64, float64 or json.Number depending on
// the backend, so readers must convert flexibly.
type Entity struct {
	Key   Key
	Props map[string]any
}

// Filter is an equality predicate on a top-level property.
type Filter struct {
	Field string
	Value any
}

// Datastore is the storage collaborator. Each call is individually atomic;
// there are no multi-entity transactions.
type Datastore interface {
	AllocateID(ctx context.Context, kind string) (Key, error)
	Get(ctx context.Context, key Key) (Entity, error) // ErrNotFound when absent
	Put(ctx context.Context, e Entity) error
	Delete(ctx context.Context, key Key) error
	// Query returns every entity of kind matching all filters, ordered by id.
	Query(ctx context.Context, kind string, filters ...Filter) ([]Entity, error)
}

// ReviewGuard serializes review creation per (user, business) pair across
// processes. Claim returns false when another creation holds the pair.
type ReviewGuard interface {
	Claim(ctx context.Context, userID, businessID int64) (bool, error)
	Release(ctx context.Context, userID, businessID int64) error
}

// ReviewsAPI is the remote surface of this service, used by the seeder.
type ReviewsAPI interface {
	ListOwnerBusinesses(ctx context.Context, ownerID int64) ([]Business, error)
	CreateBusiness(ctx context.Context, in BusinessInput) (Business, error)
	CreateReview(ctx context.Context, in ReviewInput) (Review, error)
}
