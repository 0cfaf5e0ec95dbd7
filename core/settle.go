package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raid-guild/x402-tip-links/types"
	"github.com/raid-guild/x402-tip-links/utils"
)

// settle claims the transaction hash in the ledger. A concurrent claim by the same
// attempt collapses into the stored settlement.
func (n *Negotiator) settle(ctx context.Context, s types.Settlement) (types.Settlement, bool, error) {

	// Claim the transaction hash
	stored, created, err := n.ledger.Claim(ctx, s)
	if err != nil {
		// Return an error that will be handled as an internal server error
		return types.Settlement{}, false, utils.NewInternalError(fmt.Errorf("claim settlement %s: %w", s.TxHash, err))
	}

	if created {
		n.logger.Info("tip settled",
			"tip_id", stored.TipID,
			"tx_hash", stored.TxHash,
			"amount", stored.Amount,
			"base_units", stored.BaseUnits,
		)
		return stored, true, nil
	}

	// Verify the stored settlement belongs to the same attempt
	if !sameAttempt(stored, s.TipID, s.TipperAddress, s.Amount) {
		return types.Settlement{}, false, errTransactionAlreadyUsed()
	}

	return stored, false, nil
}

// publishSettled publishes the tip.settled event of a new settlement. Failures are logged.
func (n *Negotiator) publishSettled(ctx context.Context, s types.Settlement) {
	if n.publisher == nil {
		return
	}

	event := types.TipSettledEvent{
		EventID:    uuid.NewString(),
		Type:       types.EventTypeTipSettled,
		Settlement: s,
		OccurredAt: n.now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to encode tip settled event", "tx_hash", s.TxHash, "error", err)
		return
	}

	if err := n.publisher.Publish(ctx, string(types.EventTypeTipSettled), payload, s.TipID); err != nil {
		n.logger.Error("failed to publish tip settled event",
			"tip_id", s.TipID,
			"tx_hash", s.TxHash,
			"error", err,
		)
	}
}
