package handler

import (
	"log/slog"

	"github.com/raid-guild/x402-tip-links/auth"
	"github.com/raid-guild/x402-tip-links/core"
	"github.com/raid-guild/x402-tip-links/events"
	"github.com/raid-guild/x402-tip-links/types"
)

// Config configures the HTTP handlers.
type Config struct {
	PublicBaseURL string
	Auth          auth.Config
	Supported     []types.SupportedKind
}

// Handler serves the tip link endpoints.
type Handler struct {
	config     Config
	issuer     *core.Issuer
	negotiator *core.Negotiator
	hub        *events.Hub
	logger     *slog.Logger
}

// NewHandler creates the handler. hub may be nil, in which case tip events are not served.
func NewHandler(c Config, issuer *core.Issuer, negotiator *core.Negotiator, hub *events.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		config:     c,
		issuer:     issuer,
		negotiator: negotiator,
		hub:        hub,
		logger:     logger,
	}
}
