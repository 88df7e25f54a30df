package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"bizreviews/internal/domain"
)

const maxBodyBytes = 1 << 20

const (
	msgMissingField   = "The request body is missing at least one of the required attributes"
	msgMalformedBody  = "The request body must be a JSON object with correctly typed attributes"
	msgNoBusiness     = "No business with this business_id exists"
	msgNoReview       = "No review with this review_id exists"
	msgDuplicate      = "You have already submitted a review for this business. You can update your previous review, or delete it and submit a new review"
	msgMalformedID    = "The review_id must be an integer"
	msgBackendFailure = "The datastore is currently unavailable"
	msgInternal       = "Internal Server Error"
)

type errorResponse struct {
	Error string `json:"Error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// readBody caps the payload size; anything unreadable is a malformed body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedBody, err)
	}
	return b, nil
}

// writeServiceError maps domain errors onto statuses. notFound is the
// message for the entity the caller was looking up.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		writeError(w, http.StatusBadRequest, msgMissingField)
	case errors.Is(err, domain.ErrMalformedBody):
		writeError(w, http.StatusBadRequest, msgMalformedBody)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, msgDuplicate)
	case errors.Is(err, domain.ErrBackend):
		log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("datastore failure")
		writeError(w, http.StatusServiceUnavailable, msgBackendFailure)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("unexpected handler error")
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

/********** canonical response shapes **********/

type businessResponse struct {
	ID            int64  `json:"id"`
	OwnerID       int64  `json:"owner_id"`
	Name          string `json:"name"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
}

type reviewResponse struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	BusinessID int64   `json:"business_id"`
	Stars      float64 `json:"stars"`
	ReviewText *string `json:"review_text"`
}

func toBusinessResponse(b domain.Business) businessResponse {
	return businessResponse{
		ID:            b.ID,
		OwnerID:       b.OwnerID,
		Name:          b.Name,
		StreetAddress: b.StreetAddress,
		City:          b.City,
		State:         b.State,
		ZipCode:       b.ZipCode,
	}
}

func toBusinessResponses(bs []domain.Business) []businessResponse {
	out := make([]businessResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBusinessResponse(b))
	}
	return out
}

func toReviewResponse(rv domain.Review) reviewResponse {
	return reviewResponse{
		ID:         rv.ID,
		UserID:     rv.UserID,
		BusinessID: rv.BusinessID,
		Stars:      rv.Stars,
		ReviewText: rv.ReviewText,
	}
}

func toReviewResponses(rs []domain.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(rs))
	for _, rv := range rs {
		out = append(out, toReviewResponse(rv))
	}
	return out
}
