package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bizreviews/internal/domain"
)

// CascadeOptions tunes the review fan-out when a business is deleted.
type CascadeOptions struct {
	Workers      int
	Retries      int
	InitialDelay time.Duration
}

type BusinessService struct {
	ds      domain.Datastore
	cascade CascadeOptions
}

func NewBusinessService(ds domain.Datastore, opts CascadeOptions) *BusinessService {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 50 * time.Millisecond
	}
	return &BusinessService{ds: ds, cascade: opts}
}

func businessKey(id int64) domain.Key { return domain.Key{Kind: domain.KindBusiness, ID: id} }

// backendErr tags anything that is not a domain outcome as a datastore failure.
func backendErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrBackend, op, err)
}

// lookupErr keeps ErrNotFound visible and classifies the rest as backend failures.
func lookupErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return backendErr(op, err)
}

func (s *BusinessService) Create(ctx context.Context, in domain.BusinessInput) (domain.Business, error) {
	key, err := s.ds.AllocateID(ctx, domain.KindBusiness)
	if err != nil {
		return domain.Business{}, backendErr("allocate business id", err)
	}
	e := domain.Entity{Key: key, Props: businessProps(in)}
	if err := s.ds.Put(ctx, e); err != nil {
		return domain.Business{}, backendErr("put business", err)
	}
	return businessFromEntity(e), nil
}

func (s *BusinessService) List(ctx context.Context) ([]domain.Business, error) {
	es, err := s.ds.Query(ctx, domain.KindBusiness)
	if err != nil {
		return nil, backendErr("list businesses", err)
	}
	return businessesFromEntities(es), nil
}

func (s *BusinessService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Business, error) {
	es, err := s.ds.Query(ctx, domain.KindBusiness, domain.Filter{Field: propOwnerID, Value: ownerID})
	if err != nil {
		return nil, backendErr("list owner businesses", err)
	}
	return businessesFromEntities(es), nil
}

func (s *BusinessService) Get(ctx context.Context, id int64) (domain.Business, error) {
	e, err := s.ds.Get(ctx, businessKey(id))
	if err != nil {
		return domain.Business{}, lookupErr(fmt.Sprintf("get business %d", id), err)
	}
	return businessFromEntity(e), nil
}

// Update merges the full attribute set over whatever is stored.
func (s *BusinessService) Update(ctx context.Context, id int64, in domain.BusinessInput) (domain.Business, error) {
	e, err := s.ds.Get(ctx, businessKey(id))
	if err != nil {
		return domain.Business{}, lookupErr(fmt.Sprintf("get business %d", id), err)
	}
	if e.Props == nil {
		e.Props = map[string]any{}
	}
	for k, v := range businessProps(in) {
		e.Props[k] = v
	}
	if err := s.ds.Put(ctx, e); err != nil {
		return domain.Business{}, backendErr("put business", err)
	}
	return businessFromEntity(e), nil
}

// Delete removes the business's reviews first and the business last, so a
// retried DELETE picks up wherever an interrupted cascade stopped.
func (s *BusinessService) Delete(ctx context.Context, id int64) error {
	key := businessKey(id)
	if _, err := s.ds.Get(ctx, key); err != nil {
		return lookupErr(fmt.Sprintf("get business %d", id), err)
	}

	reviews, err := s.ds.Query(ctx, domain.KindReview, domain.Filter{Field: propBusinessID, Value: id})
	if err != nil {
		return backendErr("list business reviews", err)
	}

	var mu sync.Mutex
	remaining := make(map[int64]struct{}, len(reviews))
	for _, r := range reviews {
		remaining[r.Key.ID] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cascade.Workers)
	for _, r := range reviews {
		rk := r.Key
		g.Go(func() error {
			if err := s.retry(gctx, func() error { return s.ds.Delete(gctx, rk) }); err != nil {
				return fmt.Errorf("delete review %d: %w", rk.ID, err)
			}
			mu.Lock()
			delete(remaining, rk.ID)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).
			Int64("business_id", id).
			Ints64("remaining_reviews", sortedIDs(remaining)).
			Msg("cascade delete interrupted; business kept for retry")
		return backendErr("cascade delete", err)
	}

	if err := s.retry(ctx, func() error { return s.ds.Delete(ctx, key) }); err != nil {
		log.Error().Err(err).Int64("business_id", id).Msg("reviews removed but business delete failed")
		return backendErr("delete business", err)
	}
	log.Info().Int64("business_id", id).Int("reviews", len(reviews)).Msg("business deleted")
	return nil
}

func (s *BusinessService) retry(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.cascade.InitialDelay
	eb.MaxElapsedTime = 0 // bounded by Retries instead
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.cascade.Retries)), ctx)
	return backoff.Retry(op, b)
}

func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
