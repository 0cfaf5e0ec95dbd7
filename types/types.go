package types

import (
	"time"

	v2 "github.com/raid-guild/x402-tip-links/types/v2"
)

// TipConfig is a creator's tip link definition.
type TipConfig struct {
	ID             string `json:"id"`
	CreatorAddress string `json:"creatorAddress"`
	DefaultAmount  string `json:"defaultAmount"`
	CreatedAt      int64  `json:"createdAt"`
}

// PaymentRequirements describes the transfer a tipper must make.
type PaymentRequirements struct {
	Amount    string `json:"amount"`
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	ChainID   int64  `json:"chainId"`
}

// CreateTipLinkRequest is the request body of the create tip link operation.
type CreateTipLinkRequest struct {
	CreatorAddress string `json:"creatorAddress"`
	DefaultAmount  string `json:"defaultAmount"`
}

// CreateTipLinkResponse is the response of the create tip link operation.
type CreateTipLinkResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// TipMetadataResponse is the public view of a tip configuration.
type TipMetadataResponse struct {
	ID             string `json:"id"`
	CreatorAddress string `json:"creatorAddress"`
	DefaultAmount  string `json:"defaultAmount"`
}

// TipStartRequest is the request body of the tip start operation.
type TipStartRequest struct {
	TipID         string `json:"tipId"`
	TipperAddress string `json:"tipperAddress"`
	Amount        string `json:"amount,omitempty"`
	TxHash        string `json:"txHash,omitempty"`
}

// TipStartResponse is the response of the tip start operation.
type TipStartResponse struct {
	Status              Status                   `json:"status"`
	PaymentRequirements *PaymentRequirements     `json:"paymentRequirements,omitempty"`
	X402Version         X402Version              `json:"x402Version,omitempty"`
	Accepts             []v2.PaymentRequirements `json:"accepts,omitempty"`
	TxHash              string                   `json:"txHash,omitempty"`
	Amount              string                   `json:"amount,omitempty"`
	Message             string                   `json:"message,omitempty"`
	Replayed            bool                     `json:"replayed,omitempty"`
}

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error  string        `json:"error"`
	Reason InvalidReason `json:"reason,omitempty"`
}

// VerifyResponse is the response of the verify operation.
type VerifyResponse struct {
	IsValid       bool          `json:"isValid"`
	Payer         string        `json:"payer,omitempty"`
	InvalidReason InvalidReason `json:"invalidReason,omitempty"`
}

// Settlement is the ledger record of a settled tip, keyed by transaction hash.
type Settlement struct {
	TxHash         string    `json:"txHash"`
	TipID          string    `json:"tipId"`
	TipperAddress  string    `json:"tipperAddress"`
	CreatorAddress string    `json:"creatorAddress"`
	Amount         string    `json:"amount"`
	BaseUnits      string    `json:"baseUnits"`
	Token          string    `json:"token"`
	ChainID        int64     `json:"chainId"`
	SettledAt      time.Time `json:"settledAt"`
}

// TipSettledEvent is published once per new settlement.
type TipSettledEvent struct {
	EventID    string     `json:"eventId"`
	Type       EventType  `json:"type"`
	Settlement Settlement `json:"settlement"`
	OccurredAt string     `json:"occurredAt"`
}

// SupportedKind is a payment kind accepted by this service.
type SupportedKind struct {
	X402Version X402Version `json:"x402Version"`
	Scheme      string      `json:"scheme"`
	Network     string      `json:"network"`
	Asset       string      `json:"asset"`
}

// SupportedResponse is the response of the supported operation.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}
