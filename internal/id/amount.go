package id

import (
	"fmt"
	"math/big"
	"strings"

	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/shopspring/decimal"
)

// NormalizeAmount accepts exactly one of a base-unit integer string or a
// decimal string and returns both canonical forms. Excess fractional
// precision is rejected rather than rounded: a payment amount the token
// cannot represent is a caller bug, not something to truncate silently.
func NormalizeAmount(baseUnits, decimalStr string, decimals int) (string, string, error) {
	if baseUnits != "" && decimalStr != "" {
		return "", "", clierr.New(clierr.CodeUsage, "use either --amount or --amount-decimal, not both")
	}
	if baseUnits == "" && decimalStr == "" {
		return "", "", clierr.New(clierr.CodeUsage, "amount is required")
	}
	if decimals < 0 {
		return "", "", clierr.New(clierr.CodeUsage, "decimals must be >= 0")
	}

	if baseUnits != "" {
		n, ok := new(big.Int).SetString(baseUnits, 10)
		if !ok {
			return "", "", clierr.New(clierr.CodeUsage, "--amount must be an integer string")
		}
		if n.Sign() < 0 {
			return "", "", clierr.New(clierr.CodeUsage, "--amount must be non-negative")
		}
		return n.String(), FormatDecimal(n.String(), decimals), nil
	}

	base, err := ToBaseUnits(decimalStr, decimals)
	if err != nil {
		return "", "", err
	}
	canonical, _ := decimal.NewFromString(strings.TrimSpace(decimalStr))
	return base, canonical.String(), nil
}

// ToBaseUnits converts a decimal amount string into base units.
func ToBaseUnits(decimalStr string, decimals int) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(decimalStr))
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, "parse decimal amount", err)
	}
	if d.Sign() < 0 {
		return "", clierr.New(clierr.CodeUsage, "amount must be non-negative")
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("decimal precision exceeds token decimals (%d)", decimals))
	}
	return shifted.Truncate(0).BigInt().String(), nil
}

// FormatDecimal renders a base-unit integer string as a decimal string.
func FormatDecimal(baseUnits string, decimals int) string {
	n, ok := new(big.Int).SetString(baseUnits, 10)
	if !ok {
		return baseUnits
	}
	return decimal.NewFromBigInt(n, -int32(decimals)).String()
}
