package handler

import (
	"net/http"
)

// TipMetadata resolves the public fields of a tip link.
func (h *Handler) TipMetadata(w http.ResponseWriter, r *http.Request) {
	response, err := h.issuer.Resolve(r.Context(), tipIDParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

// tipIDParam returns the id query parameter, accepting tipId as an alias.
func tipIDParam(r *http.Request) string {
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		return id
	}
	return q.Get("tipId")
}
