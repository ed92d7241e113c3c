// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and formatting them for display. Amounts keep full precision; rounding to
// two places happens only when a value is rendered.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxScale is the number of decimal places an amount may carry.
	MaxScale = 8
	// Exponent range checked before any rescale.
	maxExponent = 15
	minExponent = -64
)

// MaxAmount is the largest accepted amount.
var MaxAmount = decimal.New(1, 15)

// ParseAmount converts a user-typed decimal string into a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading plus sign. Negative, zero, non-numeric and out of range
// inputs (see CheckAmount) return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("0.005")  -> 0.005, nil (kept as is, rounded only for display)
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckAmount reports ErrInvalidAmount unless d is positive, at most
// MaxAmount and carries no more than MaxScale decimal places. Exponent
// notation such as "1e100000000" is rejected on the exponent alone, before
// the value is rescaled or rendered.
func CheckAmount(d decimal.Decimal) error {
	if d.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if exp := d.Exponent(); exp > maxExponent || exp < minExponent {
		return ErrInvalidAmount
	}
	if d.GreaterThan(MaxAmount) || !d.Equal(d.Truncate(MaxScale)) {
		return ErrInvalidAmount
	}
	return nil
}

// FormatAmount renders an amount with exactly two decimals, rounding half
// away from zero.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
