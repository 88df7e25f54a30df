package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bizreviews/internal/app"
)

// createReview: a 404 here is about the referenced business.
func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	in, err := app.ParseReviewInput(raw)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	rv, err := h.Reviews.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewResponse(rv))
}

func (h *Handlers) getReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	rv, err := h.Reviews.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, msgNoReview)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(rv))
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	raw, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, msgNoReview)
		return
	}
	patch, err := app.ParseReviewPatch(raw)
	if err != nil {
		writeServiceError(w, r, err, msgNoReview)
		return
	}
	rv, err := h.Reviews.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err, msgNoReview)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(rv))
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	if err := h.Reviews.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, msgNoReview)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listUserReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusOK, []reviewResponse{})
		return
	}
	rs, err := h.Reviews.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, msgNoReview)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponses(rs))
}
