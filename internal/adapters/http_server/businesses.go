package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bizreviews/internal/app"
)

func (h *Handlers) createBusiness(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	in, err := app.ParseBusinessInput(raw)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	b, err := h.Businesses.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	writeJSON(w, http.StatusCreated, toBusinessResponse(b))
}

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Businesses.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponses(bs))
}

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgNoBusiness)
	if !ok {
		return
	}
	b, err := h.Businesses.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponse(b))
}

// updateBusiness validates before looking anything up, so an incomplete
// body is a 400 even for an unknown id.
func (h *Handlers) updateBusiness(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	in, err := app.ParseBusinessInput(raw)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	id, ok := pathID(w, r, msgNoBusiness)
	if !ok {
		return
	}
	b, err := h.Businesses.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponse(b))
}

func (h *Handlers) deleteBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgNoBusiness)
	if !ok {
		return
	}
	if err := h.Businesses.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listOwnerBusinesses(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		// no owner can have an id that overflows int64
		writeJSON(w, http.StatusOK, []businessResponse{})
		return
	}
	bs, err := h.Businesses.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, r, err, msgNoBusiness)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponses(bs))
}
