package handler

import (
	"net/http"

	"github.com/raid-guild/x402-tip-links/types"
)

// TipStart runs a tip attempt: it answers with the payment challenge (402) or, given a
// transaction hash, verifies and settles the payment (200).
func (h *Handler) TipStart(w http.ResponseWriter, r *http.Request) {

	// Decode the request body
	var req types.TipStartRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Execute the tip attempt
	response, err := h.negotiator.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if response.Status == types.StatusPaymentRequired {
		status = http.StatusPaymentRequired
	}
	h.writeJSON(w, status, response)
}
