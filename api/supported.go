package handler

import (
	"net/http"

	"github.com/raid-guild/x402-tip-links/types"
	v2 "github.com/raid-guild/x402-tip-links/types/v2"
)

// Supported lists the payment kinds tips can be paid with.
func (h *Handler) Supported(w http.ResponseWriter, r *http.Request) {

	// Build the supported response
	kinds := make([]types.SupportedKind, 0, len(h.config.Supported))
	kinds = append(kinds, h.config.Supported...)

	h.writeJSON(w, http.StatusOK, types.SupportedResponse{
		Kinds: kinds,
	})
}

// SupportedKinds returns the supported kinds for a token on a chain.
func SupportedKinds(chainID int64, token string) []types.SupportedKind {
	return []types.SupportedKind{
		{
			X402Version: types.X402Version2,
			Scheme:      string(v2.SchemeExact),
			Network:     string(v2.NetworkForChain(chainID)),
			Asset:       token,
		},
	}
}

// Healthz reports the process is serving.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
