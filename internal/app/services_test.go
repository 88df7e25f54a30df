package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bizreviews/internal/app"
	"bizreviews/internal/domain"
	"bizreviews/internal/storage/memory"
)

// ---- fakes ----

// flakyStore wraps the memory store and fails Delete for chosen ids.
type flakyStore struct {
	*memory.Store

	mu        sync.Mutex
	failTimes map[int64]int // remaining failures per id; -1 fails forever
	deletes   map[int64]int
}

func newFlaky() *flakyStore {
	return &flakyStore{Store: memory.New(), failTimes: map[int64]int{}, deletes: map[int64]int{}}
}

func (f *flakyStore) Delete(ctx context.Context, key domain.Key) error {
	f.mu.Lock()
	f.deletes[key.ID]++
	n := f.failTimes[key.ID]
	if n != 0 {
		if n > 0 {
			f.failTimes[key.ID] = n - 1
		}
		f.mu.Unlock()
		return errors.New("transient write failure")
	}
	f.mu.Unlock()
	return f.Store.Delete(ctx, key)
}

type fakeGuard struct {
	held     bool
	err      error
	claims   int
	releases int
}

func (g *fakeGuard) Claim(ctx context.Context, userID, businessID int64) (bool, error) {
	g.claims++
	if g.err != nil {
		return false, g.err
	}
	return !g.held, nil
}

func (g *fakeGuard) Release(ctx context.Context, userID, businessID int64) error {
	g.releases++
	return nil
}

func ptr[T any](v T) *T { return &v }

func cafe(owner int64) domain.BusinessInput {
	return domain.BusinessInput{OwnerID: owner, Name: "Cafe", StreetAddress: "1 Main St", City: "X", State: "CA", ZipCode: "90001"}
}

func fastCascade() app.CascadeOptions {
	return app.CascadeOptions{Workers: 2, Retries: 2, InitialDelay: time.Millisecond}
}

// ---- business tests ----

func TestBusiness_CreateGetListByOwner(t *testing.T) {
	ctx := context.Background()
	svc := app.NewBusinessService(memory.New(), fastCascade())

	a, err := svc.Create(ctx, cafe(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, cafe(2)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, a.ID)
	if err != nil || got != a {
		t.Fatalf("get: %+v %v, want %+v", got, err, a)
	}

	all, _ := svc.List(ctx)
	if len(all) != 2 {
		t.Fatalf("list: %d", len(all))
	}
	mine, _ := svc.ListByOwner(ctx, 1)
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("by owner: %+v", mine)
	}
	none, _ := svc.ListByOwner(ctx, 99)
	if none == nil || len(none) != 0 {
		t.Fatalf("empty owner listing should be a non-nil empty slice: %#v", none)
	}
}

func TestBusiness_UpdateMissingIsNotFound(t *testing.T) {
	ds := memory.New()
	svc := app.NewBusinessService(ds, fastCascade())

	_, err := svc.Update(context.Background(), 77, cafe(1))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	es, _ := ds.Query(context.Background(), domain.KindBusiness)
	if len(es) != 0 {
		t.Fatalf("update must not create: %+v", es)
	}
}

func TestBusiness_DeleteCascadesOnlyItsReviews(t *testing.T) {
	ctx := context.Background()
	ds := newFlaky()
	biz := app.NewBusinessService(ds, fastCascade())
	rev := app.NewReviewService(ds, nil)

	b1, _ := biz.Create(ctx, cafe(1))
	b2, _ := biz.Create(ctx, cafe(1))
	for u := int64(1); u <= 5; u++ {
		if _, err := rev.Create(ctx, domain.ReviewInput{UserID: u, BusinessID: b1.ID, Stars: 4}); err != nil {
			t.Fatalf("review: %v", err)
		}
	}
	keep, _ := rev.Create(ctx, domain.ReviewInput{UserID: 1, BusinessID: b2.ID, Stars: 2})

	if err := biz.Delete(ctx, b1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := biz.Get(ctx, b1.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("business survived: %v", err)
	}
	left, _ := rev.ListByUser(ctx, 1)
	if len(left) != 1 || left[0].ID != keep.ID {
		t.Fatalf("unexpected reviews after cascade: %+v", left)
	}
}

func TestBusiness_DeleteRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	ds := newFlaky()
	biz := app.NewBusinessService(ds, fastCascade())
	rev := app.NewReviewService(ds, nil)

	b, _ := biz.Create(ctx, cafe(1))
	r, _ := rev.Create(ctx, domain.ReviewInput{UserID: 1, BusinessID: b.ID, Stars: 3})
	ds.failTimes[r.ID] = 2

	if err := biz.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete should succeed within retries: %v", err)
	}
	if ds.deletes[r.ID] != 3 {
		t.Fatalf("expected 3 attempts, got %d", ds.deletes[r.ID])
	}
}

func TestBusiness_InterruptedCascadeKeepsBusinessAndResumes(t *testing.T) {
	ctx := context.Background()
	ds := newFlaky()
	biz := app.NewBusinessService(ds, fastCascade())
	rev := app.NewReviewService(ds, nil)

	b, _ := biz.Create(ctx, cafe(1))
	ok, _ := rev.Create(ctx, domain.ReviewInput{UserID: 1, BusinessID: b.ID, Stars: 3})
	stuck, _ := rev.Create(ctx, domain.ReviewInput{UserID: 2, BusinessID: b.ID, Stars: 3})
	ds.failTimes[stuck.ID] = -1

	err := biz.Delete(ctx, b.ID)
	if !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if _, err := biz.Get(ctx, b.ID); err != nil {
		t.Fatalf("business must be kept when the cascade fails: %v", err)
	}
	if _, err := rev.Get(ctx, ok.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("healthy review should be gone: %v", err)
	}

	// the store recovers; repeating the delete finishes the job
	ds.failTimes[stuck.ID] = 0
	if err := biz.Delete(ctx, b.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := rev.Get(ctx, stuck.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stuck review still present: %v", err)
	}
}

// ---- review tests ----

func TestReview_UniquePerUserAndBusiness(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	biz := app.NewBusinessService(ds, fastCascade())
	rev := app.NewReviewService(ds, nil)

	b, _ := biz.Create(ctx, cafe(1))
	first, err := rev.Create(ctx, domain.ReviewInput{UserID: 7, BusinessID: b.ID, Stars: 5})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := rev.Create(ctx, domain.ReviewInput{UserID: 7, BusinessID: b.ID, Stars: 1}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, _ := rev.Get(ctx, first.ID)
	if got.Stars != 5 {
		t.Fatalf("first review overwritten: %+v", got)
	}
	if _, err := rev.Create(ctx, domain.ReviewInput{UserID: 8, BusinessID: b.ID, Stars: 1}); err != nil {
		t.Fatalf("other user: %v", err)
	}
}

func TestReview_LargeUserIDsStayDistinct(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	b, _ := app.NewBusinessService(ds, fastCascade()).Create(ctx, cafe(1))
	rev := app.NewReviewService(ds, nil)

	const a, c = int64(9007199254740992), int64(9007199254740993)
	if _, err := rev.Create(ctx, domain.ReviewInput{UserID: a, BusinessID: b.ID, Stars: 5}); err != nil {
		t.Fatalf("user %d: %v", a, err)
	}
	if _, err := rev.Create(ctx, domain.ReviewInput{UserID: c, BusinessID: b.ID, Stars: 1}); err != nil {
		t.Fatalf("user %d must not collide with %d: %v", c, a, err)
	}
	for _, u := range []int64{a, c} {
		rs, _ := rev.ListByUser(ctx, u)
		if len(rs) != 1 || rs[0].UserID != u {
			t.Fatalf("reviews for %d: %+v", u, rs)
		}
	}
}

func TestReview_CreateForUnknownBusiness(t *testing.T) {
	rev := app.NewReviewService(memory.New(), nil)
	_, err := rev.Create(context.Background(), domain.ReviewInput{UserID: 1, BusinessID: 5, Stars: 1})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReview_GuardHeldIsConflict(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	b, _ := app.NewBusinessService(ds, fastCascade()).Create(ctx, cafe(1))

	g := &fakeGuard{held: true}
	rev := app.NewReviewService(ds, g)
	if _, err := rev.Create(ctx, domain.ReviewInput{UserID: 1, BusinessID: b.ID, Stars: 1}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if g.releases != 0 {
		t.Fatalf("a claim we never took must not be released")
	}
}

func TestReview_GuardClaimReleasedAfterCreate(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	b, _ := app.NewBusinessService(ds, fastCascade()).Create(ctx, cafe(1))

	g := &fakeGuard{}
	rev := app.NewReviewService(ds, g)
	if _, err := rev.Create(ctx, domain.ReviewInput{UserID: 1, BusinessID: b.ID, Stars: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.claims != 1 || g.releases != 1 {
		t.Fatalf("claims=%d releases=%d", g.claims, g.releases)
	}
}

func TestReview_GuardDownFallsBackToQuery(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	b, _ := app.NewBusinessService(ds, fastCascade()).Create(ctx, cafe(1))

	rev := app.NewReviewService(ds, &fakeGuard{err: errors.New("redis down")})
	if _, err := rev.Create(ctx, domain.ReviewInput{UserID: 1, BusinessID: b.ID, Stars: 1}); err != nil {
		t.Fatalf("create should proceed without the guard: %v", err)
	}
	if _, err := rev.Create(ctx, domain.ReviewInput{UserID: 1, BusinessID: b.ID, Stars: 2}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate must still be caught: %v", err)
	}
}

func TestReview_UpdateKeepsOwnershipAndOptionalText(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	b, _ := app.NewBusinessService(ds, fastCascade()).Create(ctx, cafe(1))
	rev := app.NewReviewService(ds, nil)

	r, _ := rev.Create(ctx, domain.ReviewInput{UserID: 3, BusinessID: b.ID, Stars: 2, ReviewText: ptr("ok")})

	got, err := rev.Update(ctx, r.ID, domain.ReviewPatch{Stars: 4})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Stars != 4 || got.ReviewText == nil || *got.ReviewText != "ok" || got.UserID != 3 || got.BusinessID != b.ID {
		t.Fatalf("stars-only update: %+v", got)
	}

	got, _ = rev.Update(ctx, r.ID, domain.ReviewPatch{Stars: 4, HasText: true})
	if got.ReviewText != nil {
		t.Fatalf("explicit null should clear text: %+v", got)
	}

	if _, err := rev.Update(ctx, 9999, domain.ReviewPatch{Stars: 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReview_DeleteMissingIsNotFound(t *testing.T) {
	rev := app.NewReviewService(memory.New(), nil)
	if err := rev.Delete(context.Background(), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---- backend failures ----

type brokenStore struct{ *memory.Store }

func (brokenStore) AllocateID(context.Context, string) (domain.Key, error) {
	return domain.Key{}, errors.New("deadline exceeded")
}

func TestBusiness_BackendFailureIsTagged(t *testing.T) {
	svc := app.NewBusinessService(brokenStore{memory.New()}, fastCascade())
	_, err := svc.Create(context.Background(), cafe(1))
	if !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("backend failure must not look like not-found")
	}
}
