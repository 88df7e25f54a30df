package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"bizreviews/internal/domain"
)

// SeedFile is the seeder's input. YAML is a superset of JSON, so either works.
type SeedFile struct {
	Businesses []SeedBusiness `yaml:"businesses"`
}

type SeedBusiness struct {
	OwnerID       int64        `yaml:"owner_id"`
	Name          string       `yaml:"name"`
	StreetAddress string       `yaml:"street_address"`
	City          string       `yaml:"city"`
	State         string       `yaml:"state"`
	ZipCode       string       `yaml:"zip_code"`
	Reviews       []SeedReview `yaml:"reviews"`
}

type SeedReview struct {
	UserID     int64   `yaml:"user_id"`
	Stars      float64 `yaml:"stars"`
	ReviewText *string `yaml:"review_text"`
}

func ParseSeed(raw []byte) (SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

type SeedService struct {
	api domain.ReviewsAPI
}

func NewSeedService(api domain.ReviewsAPI) *SeedService {
	return &SeedService{api: api}
}

func (sb SeedBusiness) input() domain.BusinessInput {
	return domain.BusinessInput{
		OwnerID:       sb.OwnerID,
		Name:          sb.Name,
		StreetAddress: sb.StreetAddress,
		City:          sb.City,
		State:         sb.State,
		ZipCode:       sb.ZipCode,
	}
}

// sameBusiness matches on every attribute; ids are server-assigned.
func sameBusiness(b domain.Business, in domain.BusinessInput) bool {
	return b.OwnerID == in.OwnerID &&
		b.Name == in.Name &&
		b.StreetAddress == in.StreetAddress &&
		b.City == in.City &&
		b.State == in.State &&
		b.ZipCode == in.ZipCode
}

// SeedBusiness creates one business, or reuses the owner's identical one,
// and then its reviews. Reviews that already exist (409) are skipped, so a
// seed file can be replayed.
func (s *SeedService) SeedBusiness(ctx context.Context, sb SeedBusiness) (domain.Business, error) {
	in := sb.input()
	b, found, err := s.existing(ctx, in)
	if err != nil {
		return domain.Business{}, err
	}
	if found {
		log.Info().Int64("business_id", b.ID).Str("name", b.Name).Msg("business exists, reused")
	} else {
		b, err = s.api.CreateBusiness(ctx, in)
		if err != nil {
			return domain.Business{}, fmt.Errorf("create business %q: %w", sb.Name, err)
		}
	}

	for _, r := range sb.Reviews {
		_, err := s.api.CreateReview(ctx, domain.ReviewInput{
			UserID:     r.UserID,
			BusinessID: b.ID,
			Stars:      r.Stars,
			ReviewText: r.ReviewText,
		})
		if errors.Is(err, domain.ErrConflict) {
			log.Info().Int64("business_id", b.ID).Int64("user_id", r.UserID).Msg("review exists, skipped")
			continue
		}
		if err != nil {
			return b, fmt.Errorf("create review by user %d for business %d: %w", r.UserID, b.ID, err)
		}
	}
	return b, nil
}

func (s *SeedService) existing(ctx context.Context, in domain.BusinessInput) (domain.Business, bool, error) {
	bs, err := s.api.ListOwnerBusinesses(ctx, in.OwnerID)
	if err != nil {
		return domain.Business{}, false, fmt.Errorf("list businesses of owner %d: %w", in.OwnerID, err)
	}
	for _, b := range bs {
		if sameBusiness(b, in) {
			return b, true, nil
		}
	}
	return domain.Business{}, false, nil
}
