package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bizreviews/internal/app"
)

type Handlers struct {
	Businesses *app.BusinessService
	Reviews    *app.ReviewService
	// StrictIDs answers a non-integer review id with 400 instead of the
	// legacy 200-with-error body.
	StrictIDs bool
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.mux.Post("/businesses", h.createBusiness)
	s.mux.Get("/businesses", h.listBusinesses)
	s.mux.Get("/businesses/{id:[0-9]+}", h.getBusiness)
	s.mux.Put("/businesses/{id:[0-9]+}", h.updateBusiness)
	s.mux.Delete("/businesses/{id:[0-9]+}", h.deleteBusiness)
	s.mux.Get("/owners/{id:[0-9]+}/businesses", h.listOwnerBusinesses)

	s.mux.Post("/reviews", h.createReview)
	s.mux.Get("/reviews/{id}", h.getReview)
	s.mux.Put("/reviews/{id}", h.updateReview)
	s.mux.Delete("/reviews/{id}", h.deleteReview)
	s.mux.Get("/users/{id:[0-9]+}/reviews", h.listUserReviews)
}

// pathID reads a route-validated numeric id. Digits that overflow int64
// cannot name a stored entity, so they report not found.
func pathID(w http.ResponseWriter, r *http.Request, notFound string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, notFound)
		return 0, false
	}
	return id, true
}

// reviewID parses an unconstrained path segment. Only plain digits are
// ids, as on the [0-9]+ routes; ParseInt alone would accept a sign.
func (h *Handlers) reviewID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || !digitsOnly(raw) {
		status := http.StatusOK
		if h.StrictIDs {
			status = http.StatusBadRequest
		}
		writeError(w, status, msgMalformedID)
		return 0, false
	}
	return id, true
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
