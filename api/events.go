package handler

import (
	"net/http"

	"github.com/raid-guild/x402-tip-links/utils"
)

// TipEvents streams tip.settled events of a tip over a websocket.
func (h *Handler) TipEvents(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.writeError(w, r, utils.NewNotFoundError("Tip events are not enabled"))
		return
	}

	// Verify the tip exists before subscribing
	tip, err := h.issuer.Resolve(r.Context(), tipIDParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.hub.ServeWS(w, r, tip.ID)
}
