package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raid-guild/x402-tip-links/types"
	v2 "github.com/raid-guild/x402-tip-links/types/v2"
	"github.com/raid-guild/x402-tip-links/utils"
)

// Registry stores tip configurations.
type Registry interface {
	Create(ctx context.Context, creatorAddress, defaultAmount string) (types.TipConfig, error)
	Get(ctx context.Context, id string) (types.TipConfig, bool, error)
}

// Ledger stores settlements keyed by normalized transaction hash.
type Ledger interface {
	Get(ctx context.Context, txHash string) (types.Settlement, bool, error)
	// Claim inserts s unless its hash is already settled, in which case the stored
	// settlement is returned with created set to false.
	Claim(ctx context.Context, s types.Settlement) (stored types.Settlement, created bool, err error)
}

// Publisher publishes settlement events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, key string) error
}

// NegotiatorConfig is the configuration of the payment negotiation service.
type NegotiatorConfig struct {
	Requirements RequirementsConfig
	TokenSymbol  string
}

// Negotiator runs the two phase payment negotiation of a tip.
type Negotiator struct {
	config    NegotiatorConfig
	registry  Registry
	ledger    Ledger
	verifier  Verifier
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewNegotiator creates a negotiator. publisher may be nil.
func NewNegotiator(c NegotiatorConfig, registry Registry, ledger Ledger, verifier Verifier, publisher Publisher, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Negotiator{
		config:    c,
		registry:  registry,
		ledger:    ledger,
		verifier:  verifier,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute runs a tip attempt. Without a transaction hash it returns the payment
// challenge, with one it verifies and settles the payment.
func (n *Negotiator) Execute(ctx context.Context, req types.TipStartRequest) (types.TipStartResponse, error) {

	// Verify the required fields are present
	tipID := strings.TrimSpace(req.TipID)
	tipper := strings.TrimSpace(req.TipperAddress)
	if tipID == "" || tipper == "" {
		return types.TipStartResponse{}, utils.NewValidationError("Missing tipId or tipperAddress")
	}

	// Get the tip configuration
	tip, found, err := n.registry.Get(ctx, tipID)
	if err != nil {
		return types.TipStartResponse{}, utils.NewInternalError(fmt.Errorf("get tip config: %w", err))
	}
	if !found {
		return types.TipStartResponse{}, utils.NewNotFoundError("Tip link not found")
	}

	// Resolve the effective amount
	amount := tip.DefaultAmount
	if override := strings.TrimSpace(req.Amount); override != "" {
		if _, err := ParseAmount(override, n.config.Requirements.TokenDecimals); err != nil {
			return types.TipStartResponse{}, utils.NewValidationError("amount must be a positive number")
		}
		amount = override
	}

	if strings.TrimSpace(req.TxHash) != "" {
		return n.Complete(ctx, tip, tipper, amount, req.TxHash)
	}
	return n.Start(tip, tipper, amount)
}

// Start returns the payment requirements the tipper must satisfy. It never pays and never persists.
func (n *Negotiator) Start(tip types.TipConfig, tipperAddress, amount string) (types.TipStartResponse, error) {
	requirements, accepted, err := BuildRequirements(n.config.Requirements, tip.CreatorAddress, amount)
	if err != nil {
		return types.TipStartResponse{}, utils.NewInternalError(fmt.Errorf("build payment requirements for tip %s: %w", tip.ID, err))
	}

	n.logger.Debug("payment required",
		"tip_id", tip.ID,
		"tipper", tipperAddress,
		"amount", requirements.Amount,
	)

	return types.TipStartResponse{
		Status:              types.StatusPaymentRequired,
		PaymentRequirements: &requirements,
		X402Version:         types.X402Version2,
		Accepts:             []v2.PaymentRequirements{accepted},
	}, nil
}

// Complete verifies the proof of payment and settles the tip. Settling is idempotent per
// transaction hash: the same attempt replays the original success and a hash used by a
// different attempt is rejected.
func (n *Negotiator) Complete(ctx context.Context, tip types.TipConfig, tipperAddress, amount, txHash string) (types.TipStartResponse, error) {

	// Verify the transaction hash is well formed
	txHash = NormalizeTxHash(txHash)
	if !IsTxHash(txHash) {
		return types.TipStartResponse{}, utils.NewVerificationError(types.InvalidReasonInvalidTxHash, "Invalid transaction hash")
	}

	// Check the ledger for an earlier settlement of the same hash
	existing, found, err := n.ledger.Get(ctx, txHash)
	if err != nil {
		return types.TipStartResponse{}, utils.NewInternalError(fmt.Errorf("get settlement %s: %w", txHash, err))
	}
	if found {
		if !sameAttempt(existing, tip.ID, tipperAddress, amount) {
			return types.TipStartResponse{}, errTransactionAlreadyUsed()
		}
		return n.success(existing, true), nil
	}

	// Convert the amount to token base units
	decimals := n.config.Requirements.TokenDecimals
	parsed, err := ParseAmount(amount, decimals)
	if err != nil {
		return types.TipStartResponse{}, utils.NewValidationError("amount must be a positive number")
	}
	baseUnits, err := ToBaseUnits(parsed, decimals)
	if err != nil {
		return types.TipStartResponse{}, utils.NewValidationError("amount must be a positive number")
	}

	// Verify the transfer on chain
	verification, err := n.verifier.Verify(ctx, VerifyTransferParams{
		TxHash: txHash,
		Token:  n.config.Requirements.Token,
		From:   tipperAddress,
		To:     tip.CreatorAddress,
		Value:  baseUnits,
	})
	if err != nil {
		return types.TipStartResponse{}, utils.NewInternalError(fmt.Errorf("verify transaction %s: %w", txHash, err))
	}
	if !verification.IsValid {
		n.logger.Info("payment verification failed",
			"tip_id", tip.ID,
			"tx_hash", txHash,
			"reason", verification.InvalidReason,
		)
		return types.TipStartResponse{}, utils.NewVerificationError(verification.InvalidReason, "Payment verification failed")
	}

	// Settle the tip in the ledger
	settlement, created, err := n.settle(ctx, types.Settlement{
		TxHash:         txHash,
		TipID:          tip.ID,
		TipperAddress:  tipperAddress,
		CreatorAddress: tip.CreatorAddress,
		Amount:         strings.TrimSpace(amount),
		BaseUnits:      baseUnits.String(),
		Token:          n.config.Requirements.Token,
		ChainID:        n.config.Requirements.ChainID,
		SettledAt:      n.now().UTC(),
	})
	if err != nil {
		return types.TipStartResponse{}, err
	}

	if created {
		n.publishSettled(ctx, settlement)
	}

	return n.success(settlement, !created), nil
}

func (n *Negotiator) success(s types.Settlement, replayed bool) types.TipStartResponse {
	return types.TipStartResponse{
		Status:   types.StatusSuccess,
		TxHash:   s.TxHash,
		Amount:   s.Amount,
		Message:  fmt.Sprintf("Successfully tipped %s %s", s.Amount, n.config.TokenSymbol),
		Replayed: replayed,
	}
}

// sameAttempt reports whether the settlement was made by the given tip attempt.
func sameAttempt(s types.Settlement, tipID, tipperAddress, amount string) bool {
	return s.TipID == tipID &&
		strings.EqualFold(strings.TrimSpace(s.TipperAddress), strings.TrimSpace(tipperAddress)) &&
		SameAmount(s.Amount, amount)
}

func errTransactionAlreadyUsed() error {
	return utils.NewVerificationError(types.InvalidReasonTransactionAlreadyUsed, "transaction already used for another tip")
}
