package handler

import (
	"net/http"

	"github.com/raid-guild/x402-tip-links/auth"
	"github.com/raid-guild/x402-tip-links/core"
	"github.com/raid-guild/x402-tip-links/types"
)

// CreateTipLink issues a new tip link.
func (h *Handler) CreateTipLink(w http.ResponseWriter, r *http.Request) {

	// Authenticate request
	if err := auth.Authenticate(r, h.config.Auth); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Decode the request body
	var req types.CreateTipLinkRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Resolve the base URL the link is built on
	baseURL := core.ResolveBaseURL(
		h.config.PublicBaseURL,
		r.Header.Get("X-Forwarded-Proto"),
		r.Header.Get("X-Forwarded-Host"),
		r.Host,
	)

	// Issue the tip link
	response, err := h.issuer.Issue(r.Context(), req, baseURL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "tip link created", "tip_id", response.ID)
	h.writeJSON(w, http.StatusOK, response)
}
