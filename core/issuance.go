package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/raid-guild/x402-tip-links/types"
	"github.com/raid-guild/x402-tip-links/utils"
)

const defaultBaseURL = "http://localhost:3000"

// Issuer creates tip links.
type Issuer struct {
	registry      Registry
	tokenDecimals int32
}

// NewIssuer creates an issuer storing links in registry.
func NewIssuer(registry Registry, tokenDecimals int32) *Issuer {
	return &Issuer{registry: registry, tokenDecimals: tokenDecimals}
}

// Issue validates the request, stores a new tip configuration and returns its shareable link.
// The registry is not touched when validation fails.
func (i *Issuer) Issue(ctx context.Context, req types.CreateTipLinkRequest, baseURL string) (types.CreateTipLinkResponse, error) {

	// Verify the required fields are present
	creator := strings.TrimSpace(req.CreatorAddress)
	amount := strings.TrimSpace(req.DefaultAmount)
	if creator == "" || amount == "" {
		return types.CreateTipLinkResponse{}, utils.NewValidationError("Missing creatorAddress or defaultAmount")
	}

	// Verify the default amount is a payable positive number
	if _, err := ParseAmount(amount, i.tokenDecimals); err != nil {
		return types.CreateTipLinkResponse{}, utils.NewValidationError("defaultAmount must be a positive number")
	}

	// Store the tip configuration
	tip, err := i.registry.Create(ctx, creator, amount)
	if err != nil {
		return types.CreateTipLinkResponse{}, utils.NewInternalError(fmt.Errorf("create tip config: %w", err))
	}

	return types.CreateTipLinkResponse{
		ID:  tip.ID,
		URL: TipURL(baseURL, tip.ID),
	}, nil
}

// Resolve returns the public fields of a tip configuration.
func (i *Issuer) Resolve(ctx context.Context, id string) (types.TipMetadataResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.TipMetadataResponse{}, utils.NewValidationError("Missing id parameter")
	}

	tip, found, err := i.registry.Get(ctx, id)
	if err != nil {
		return types.TipMetadataResponse{}, utils.NewInternalError(fmt.Errorf("get tip config: %w", err))
	}
	if !found {
		return types.TipMetadataResponse{}, utils.NewNotFoundError("Tip link not found")
	}

	return types.TipMetadataResponse{
		ID:             tip.ID,
		CreatorAddress: tip.CreatorAddress,
		DefaultAmount:  tip.DefaultAmount,
	}, nil
}

// TipURL returns the link a tipper opens to pay the tip.
func TipURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/frame?tipId=" + url.QueryEscape(id)
}

// ResolveBaseURL picks the public base URL of the service: the configured value, then
// the forwarded or direct host of the request, then the local default.
func ResolveBaseURL(configured, forwardedProto, forwardedHost, host string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return strings.TrimRight(configured, "/")
	}

	h := strings.TrimSpace(firstValue(forwardedHost))
	if h == "" {
		h = strings.TrimSpace(host)
	}
	if h == "" {
		return defaultBaseURL
	}

	proto := strings.TrimSpace(firstValue(forwardedProto))
	if proto == "" {
		proto = "https"
	}

	return strings.TrimRight(proto+"://"+h, "/")
}

// firstValue returns the first entry of a comma separated forwarded header.
func firstValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		return v[:i]
	}
	return v
}
