// Package currencyutils converts currency strings to and from integer minor units.
// Amounts never pass through floating point.
package currencyutils

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)

	// symbols and codes stripped before parsing
	currencyNoise = regexp.MustCompile(`(?i)(?:AUD|A\$|\$|\s)`)
	plainAmount   = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// StandardizeAmount removes currency symbols, whitespace and thousands separators.
// "$1,234.56" becomes "1234.56".
func StandardizeAmount(amountStr string) string {
	s := currencyNoise.ReplaceAllString(amountStr, "")
	return strings.ReplaceAll(s, ",", "")
}

// ParseAmount parses a currency string into a decimal value.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if !plainAmount.MatchString(standardized) {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s'", amountStr)
	}
	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// ToMinorUnits parses a currency string into cents. Amounts with more than two
// decimal places are rejected rather than rounded.
func ToMinorUnits(amountStr string) (int64, error) {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return 0, err
	}
	return DecimalToMinorUnits(amount)
}

// DecimalToMinorUnits converts a decimal amount to cents.
func DecimalToMinorUnits(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(hundred)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", amount.String())
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("amount %s is out of range", amount.String())
	}
	return cents.IntPart(), nil
}

// FromMinorUnits converts cents to a decimal amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatMinorUnits renders cents with two decimal places, e.g. 123456 -> "1234.56".
func FormatMinorUnits(cents int64) string {
	return FromMinorUnits(cents).StringFixed(2)
}

// FormatAmount renders cents as a display string with a dollar sign.
func FormatAmount(cents int64) string {
	if cents < 0 {
		return "-$" + FormatMinorUnits(-cents)
	}
	return "$" + FormatMinorUnits(cents)
}
