package core

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyAmount       = errors.New("amount is empty")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrAmountPrecision   = errors.New("amount has more decimal places than the token supports")
	ErrAmountFormat      = errors.New("amount must be a plain decimal number")
	ErrAmountTooLarge    = errors.New("amount exceeds the token's uint256 range")
)

// maxAmountLength bounds the input before it is parsed. A uint256 has 78 digits.
const maxAmountLength = 80

// ParseAmount parses a positive decimal amount payable with the given number of token decimals.
func ParseAmount(raw string, decimals int32) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	if len(raw) > maxAmountLength {
		return decimal.Zero, ErrAmountTooLarge
	}

	// Exponent notation would let a short string expand into an unbounded integer
	if strings.ContainsAny(raw, "eE") {
		return decimal.Zero, ErrAmountFormat
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}

	if !amount.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}

	shifted := amount.Shift(decimals)
	if !shifted.IsInteger() {
		return decimal.Zero, ErrAmountPrecision
	}
	if shifted.BigInt().BitLen() > 256 {
		return decimal.Zero, ErrAmountTooLarge
	}

	return amount, nil
}

// ToBaseUnits converts a decimal amount into the integer minor units of a token.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	shifted := amount.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, ErrAmountPrecision
	}
	return shifted.BigInt(), nil
}

// SameAmount reports whether two decimal strings denote the same value.
func SameAmount(a, b string) bool {
	da, err := decimal.NewFromString(strings.TrimSpace(a))
	if err != nil {
		return false
	}
	db, err := decimal.NewFromString(strings.TrimSpace(b))
	if err != nil {
		return false
	}
	return da.Equal(db)
}
