package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bizreviews/internal/domain"
)

type ReviewService struct {
	ds    domain.Datastore
	guard domain.ReviewGuard // optional
}

func NewReviewService(ds domain.Datastore, guard domain.ReviewGuard) *ReviewService {
	return &ReviewService{ds: ds, guard: guard}
}

func reviewKey(id int64) domain.Key { return domain.Key{Kind: domain.KindReview, ID: id} }

// Create enforces one review per (user, business). The existence query and
// the insert are separate calls; the guard, when configured, closes that window.
func (s *ReviewService) Create(ctx context.Context, in domain.ReviewInput) (domain.Review, error) {
	if _, err := s.ds.Get(ctx, businessKey(in.BusinessID)); err != nil {
		return domain.Review{}, lookupErr(fmt.Sprintf("get business %d", in.BusinessID), err)
	}

	if s.guard != nil {
		ok, err := s.guard.Claim(ctx, in.UserID, in.BusinessID)
		switch {
		case err != nil:
			// claim store down: fall back to the unguarded check
			log.Warn().Err(err).
				Int64("user_id", in.UserID).
				Int64("business_id", in.BusinessID).
				Msg("review claim unavailable")
		case !ok:
			return domain.Review{}, fmt.Errorf("review for business %d by user %d in flight: %w",
				in.BusinessID, in.UserID, domain.ErrConflict)
		default:
			defer func() {
				if err := s.guard.Release(context.WithoutCancel(ctx), in.UserID, in.BusinessID); err != nil {
					log.Warn().Err(err).Int64("user_id", in.UserID).Int64("business_id", in.BusinessID).Msg("review claim release failed")
				}
			}()
		}
	}

	existing, err := s.ds.Query(ctx, domain.KindReview,
		domain.Filter{Field: propUserID, Value: in.UserID},
		domain.Filter{Field: propBusinessID, Value: in.BusinessID},
	)
	if err != nil {
		return domain.Review{}, backendErr("query existing review", err)
	}
	if len(existing) > 0 {
		return domain.Review{}, fmt.Errorf("review %d already exists: %w", existing[0].Key.ID, domain.ErrConflict)
	}

	key, err := s.ds.AllocateID(ctx, domain.KindReview)
	if err != nil {
		return domain.Review{}, backendErr("allocate review id", err)
	}
	e := domain.Entity{Key: key, Props: reviewProps(in)}
	if err := s.ds.Put(ctx, e); err != nil {
		return domain.Review{}, backendErr("put review", err)
	}
	return reviewFromEntity(e), nil
}

func (s *ReviewService) Get(ctx context.Context, id int64) (domain.Review, error) {
	e, err := s.ds.Get(ctx, reviewKey(id))
	if err != nil {
		return domain.Review{}, lookupErr(fmt.Sprintf("get review %d", id), err)
	}
	return reviewFromEntity(e), nil
}

// Update touches stars and, when sent, review_text; ownership fields never change.
func (s *ReviewService) Update(ctx context.Context, id int64, p domain.ReviewPatch) (domain.Review, error) {
	e, err := s.ds.Get(ctx, reviewKey(id))
	if err != nil {
		return domain.Review{}, lookupErr(fmt.Sprintf("get review %d", id), err)
	}
	if e.Props == nil {
		e.Props = map[string]any{}
	}
	applyPatch(e.Props, p)
	if err := s.ds.Put(ctx, e); err != nil {
		return domain.Review{}, backendErr("put review", err)
	}
	return reviewFromEntity(e), nil
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	key := reviewKey(id)
	if _, err := s.ds.Get(ctx, key); err != nil {
		return lookupErr(fmt.Sprintf("get review %d", id), err)
	}
	if err := s.ds.Delete(ctx, key); err != nil {
		return backendErr("delete review", err)
	}
	return nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID int64) ([]domain.Review, error) {
	es, err := s.ds.Query(ctx, domain.KindReview, domain.Filter{Field: propUserID, Value: userID})
	if err != nil {
		return nil, backendErr("list user reviews", err)
	}
	return reviewsFromEntities(es), nil
}
