package core

import (
	"fmt"
	"strings"

	"github.com/raid-guild/x402-tip-links/types"
	v2 "github.com/raid-guild/x402-tip-links/types/v2"
)

// RequirementsConfig describes the asset and network tips are paid in.
type RequirementsConfig struct {
	ChainID           int64
	Token             string
	TokenDecimals     int32
	TokenName         string
	TokenVersion      string
	MaxTimeoutSeconds int64
}

// BuildRequirements builds the payment requirements for paying amount to recipient.
func BuildRequirements(c RequirementsConfig, recipient string, amount string) (types.PaymentRequirements, v2.PaymentRequirements, error) {

	// Parse the amount so the base unit value is exact
	parsed, err := ParseAmount(amount, c.TokenDecimals)
	if err != nil {
		return types.PaymentRequirements{}, v2.PaymentRequirements{}, err
	}

	// Convert the amount to token base units
	baseUnits, err := ToBaseUnits(parsed, c.TokenDecimals)
	if err != nil {
		return types.PaymentRequirements{}, v2.PaymentRequirements{}, fmt.Errorf("convert amount to base units: %w", err)
	}

	requirements := types.PaymentRequirements{
		Amount:    strings.TrimSpace(amount),
		Token:     c.Token,
		Recipient: recipient,
		ChainID:   c.ChainID,
	}

	accepted := v2.PaymentRequirements{
		Scheme:            v2.SchemeExact,
		Network:           v2.NetworkForChain(c.ChainID),
		Asset:             c.Token,
		PayTo:             recipient,
		Amount:            baseUnits.String(),
		MaxTimeoutSeconds: c.MaxTimeoutSeconds,
		Extra: v2.Extra{
			Name:    c.TokenName,
			Version: c.TokenVersion,
		},
	}

	return requirements, accepted, nil
}
