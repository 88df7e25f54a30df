package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"bizreviews/internal/domain"
)

// property names, shared by the mappers and the equality filters
const (
	propOwnerID       = "owner_id"
	propName          = "name"
	propStreetAddress = "street_address"
	propCity          = "city"
	propState         = "state"
	propZipCode       = "zip_code"

	propUserID     = "user_id"
	propBusinessID = "business_id"
	propStars      = "stars"
	propReviewText = "review_text"
)

/********** tiny helpers **********/

// int64Flexible: int64 from whatever a backend hands back (int64/float64/json.Number/string).
func int64Flexible(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// float64Flexible mirrors int64Flexible for the numeric stars field.
func float64Flexible(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return 0
}

func strOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// optStr keeps null-vs-absent collapsed into nil.
func optStr(props map[string]any, k string) *string {
	s, ok := props[k].(string)
	if !ok {
		return nil
	}
	return &s
}

// storeStars keeps whole numbers integral so backends filter and echo them cleanly.
func storeStars(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

/********** business mapper **********/

func businessProps(in domain.BusinessInput) map[string]any {
	return map[string]any{
		propOwnerID:       in.OwnerID,
		propName:          in.Name,
		propStreetAddress: in.StreetAddress,
		propCity:          in.City,
		propState:         in.State,
		propZipCode:       in.ZipCode,
	}
}

func businessFromEntity(e domain.Entity) domain.Business {
	p := e.Props
	return domain.Business{
		ID:            e.Key.ID,
		OwnerID:       int64Flexible(p[propOwnerID]),
		Name:          strOf(p[propName]),
		StreetAddress: strOf(p[propStreetAddress]),
		City:          strOf(p[propCity]),
		State:         strOf(p[propState]),
		ZipCode:       strOf(p[propZipCode]),
	}
}

func businessesFromEntities(es []domain.Entity) []domain.Business {
	out := make([]domain.Business, 0, len(es))
	for _, e := range es {
		out = append(out, businessFromEntity(e))
	}
	return out
}

/********** review mapper **********/

func reviewProps(in domain.ReviewInput) map[string]any {
	p := map[string]any{
		propUserID:     in.UserID,
		propBusinessID: in.BusinessID,
		propStars:      storeStars(in.Stars),
	}
	if in.ReviewText != nil {
		p[propReviewText] = *in.ReviewText
	}
	return p
}

func reviewFromEntity(e domain.Entity) domain.Review {
	p := e.Props
	return domain.Review{
		ID:         e.Key.ID,
		UserID:     int64Flexible(p[propUserID]),
		BusinessID: int64Flexible(p[propBusinessID]),
		Stars:      float64Flexible(p[propStars]),
		ReviewText: optStr(p, propReviewText),
	}
}

func reviewsFromEntities(es []domain.Entity) []domain.Review {
	out := make([]domain.Review, 0, len(es))
	for _, e := range es {
		out = append(out, reviewFromEntity(e))
	}
	return out
}

// applyPatch mutates props in place: stars always, review_text only when sent.
func applyPatch(props map[string]any, p domain.ReviewPatch) {
	props[propStars] = storeStars(p.Stars)
	if !p.HasText {
		return
	}
	if p.ReviewText == nil {
		props[propReviewText] = nil
		return
	}
	props[propReviewText] = *p.ReviewText
}
