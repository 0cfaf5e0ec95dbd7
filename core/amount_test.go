package core

import (
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw       string
		baseUnits string
		err       error
	}{
		{raw: "2.50", baseUnits: "2500000"},
		{raw: " 1 ", baseUnits: "1000000"},
		{raw: "0.000001", baseUnits: "1"},
		{raw: "1000000000000", baseUnits: "1000000000000000000"},
		{raw: "", err: ErrEmptyAmount},
		{raw: "0", err: ErrNonPositiveAmount},
		{raw: "-3", err: ErrNonPositiveAmount},
		{raw: "0.0000001", err: ErrAmountPrecision},
		{raw: "abc"},
		{raw: "NaN"},
		{raw: "1e2", err: ErrAmountFormat},
		{raw: "1E2", err: ErrAmountFormat},
		{raw: "1e100000000", err: ErrAmountFormat},
		{raw: strings.Repeat("9", 81), err: ErrAmountTooLarge},
		{raw: strings.Repeat("9", 75), err: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			amount, err := ParseAmount(tt.raw, 6)
			if tt.baseUnits == "" {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				if tt.err != nil && !errors.Is(err, tt.err) {
					t.Errorf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			units, err := ToBaseUnits(amount, 6)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if units.String() != tt.baseUnits {
				t.Errorf("expected %s, got %s", tt.baseUnits, units)
			}
		})
	}
}

func TestParseAmountLargestPayable(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	amount, err := ParseAmount(maxUint256.String(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	units, err := ToBaseUnits(amount, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if units.Cmp(maxUint256) != 0 {
		t.Errorf("expected %s, got %s", maxUint256, units)
	}

	tooLarge := new(big.Int).Add(maxUint256, big.NewInt(1))
	if _, err := ParseAmount(tooLarge.String(), 0); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestSameAmount(t *testing.T) {
	if !SameAmount("2.50", "2.5") {
		t.Error("expected 2.50 and 2.5 to be the same amount")
	}
	if SameAmount("2.50", "2.51") {
		t.Error("expected 2.50 and 2.51 to differ")
	}
	if SameAmount("abc", "abc") {
		t.Error("expected unparsable amounts to differ")
	}
}
