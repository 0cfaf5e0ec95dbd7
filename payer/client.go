package payer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raid-guild/x402-tip-links/types"
)

// APIError is an error response of the tip links API.
type APIError struct {
	StatusCode int
	Message    string
	Reason     types.InvalidReason
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("tip links api: %d %s (%s)", e.StatusCode, e.Message, e.Reason)
	}
	return fmt.Sprintf("tip links api: %d %s", e.StatusCode, e.Message)
}

// Client calls the tip links HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL. apiKey may be empty.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateTipLink issues a tip link.
func (c *Client) CreateTipLink(ctx context.Context, creatorAddress, defaultAmount string) (types.CreateTipLinkResponse, error) {
	var response types.CreateTipLinkResponse
	_, err := c.do(ctx, http.MethodPost, "/create-tip-link", types.CreateTipLinkRequest{
		CreatorAddress: creatorAddress,
		DefaultAmount:  defaultAmount,
	}, &response, http.StatusOK)
	return response, err
}

// TipMetadata resolves a tip link.
func (c *Client) TipMetadata(ctx context.Context, tipID string) (types.TipMetadataResponse, error) {
	var response types.TipMetadataResponse
	_, err := c.do(ctx, http.MethodGet, "/tip-metadata?id="+url.QueryEscape(tipID), nil, &response, http.StatusOK)
	return response, err
}

// TipStart starts or completes a tip attempt.
func (c *Client) TipStart(ctx context.Context, req types.TipStartRequest) (types.TipStartResponse, error) {
	var response types.TipStartResponse
	_, err := c.do(ctx, http.MethodPost, "/tip-start", req, &response, http.StatusOK, http.StatusPaymentRequired)
	return response, err
}

// Transferer submits token transfers.
type Transferer interface {
	Address() string
	Transfer(ctx context.Context, p TransferParams) (string, error)
}

// Tip runs the full payment flow: request the challenge, pay it with the wallet and
// submit the transaction hash as proof. amount may be empty to tip the default amount.
func (c *Client) Tip(ctx context.Context, wallet Transferer, tipID, amount string) (types.TipStartResponse, error) {
	req := types.TipStartRequest{
		TipID:         tipID,
		TipperAddress: wallet.Address(),
		Amount:        amount,
	}

	// Request the payment challenge
	challenge, err := c.TipStart(ctx, req)
	if err != nil {
		return types.TipStartResponse{}, err
	}
	if challenge.Status != types.StatusPaymentRequired || challenge.PaymentRequirements == nil {
		return types.TipStartResponse{}, fmt.Errorf("unexpected tip start status %q", challenge.Status)
	}
	if len(challenge.Accepts) == 0 {
		return types.TipStartResponse{}, errors.New("payment challenge has no accepted requirements")
	}

	// Convert the required amount from base units
	accepted := challenge.Accepts[0]
	baseUnits, ok := new(big.Int).SetString(accepted.Amount, 10)
	if !ok {
		return types.TipStartResponse{}, fmt.Errorf("invalid required amount %q", accepted.Amount)
	}

	// Pay the requirements
	txHash, err := wallet.Transfer(ctx, TransferParams{
		Token:     accepted.Asset,
		Recipient: accepted.PayTo,
		Amount:    baseUnits,
	})
	if err != nil {
		return types.TipStartResponse{}, fmt.Errorf("pay tip: %w", err)
	}

	// Submit the proof of payment for the same attempt
	req.Amount = challenge.PaymentRequirements.Amount
	req.TxHash = txHash
	return c.TipStart(ctx, req)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, accepted ...int) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	for _, status := range accepted {
		if resp.StatusCode == status {
			if err := json.Unmarshal(raw, out); err != nil {
				return resp.StatusCode, fmt.Errorf("decode response: %w", err)
			}
			return resp.StatusCode, nil
		}
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var envelope types.ErrorResponse
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
		apiErr.Reason = envelope.Reason
	}
	return resp.StatusCode, apiErr
}
