package conversion

import (
	"strings"
	"unicode/utf8"

	"ratelock/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	maxAmountTextLen = 64
	// minAmountExponent is the smallest power of ten an amount may carry.
	minAmountExponent = -18
	// maxAmountExponent is the exponent of maxAmount; any positive amount
	// with a larger exponent exceeds it.
	maxAmountExponent = 9
)

var maxAmount = decimal.NewFromInt(1_000_000_000)

// ParseAmount parses text as an exact decimal in (0, 1e9] with at most 18
// decimal places. Length and exponent are checked before any arithmetic.
func ParseAmount(text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > maxAmountTextLen {
		return decimal.Decimal{}, domain.NewValidationError("amount", "Invalid amount: %s. Must be a positive number.", abbreviate(trimmed))
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil || amount.Sign() <= 0 {
		return decimal.Decimal{}, domain.NewValidationError("amount", "Invalid amount: %s. Must be a positive number.", text)
	}
	if amount.Exponent() < minAmountExponent {
		return decimal.Decimal{}, domain.NewValidationError("amount", "Invalid amount: %s. At most %d decimal places are supported.", text, -minAmountExponent)
	}
	if amount.Exponent() > maxAmountExponent || amount.GreaterThan(maxAmount) {
		return decimal.Decimal{}, domain.NewValidationError("amount", "Invalid amount: %s. Must not exceed %s.", text, maxAmount)
	}
	return amount, nil
}

func abbreviate(text string) string {
	const keep = 16
	if len(text) <= keep {
		return text
	}
	return text[:keep] + "..."
}

// NormalizeCurrencyCodes trims and upper-cases both codes and checks that
// each is exactly three characters long.
func NormalizeCurrencyCodes(from, to string) (string, string, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	switch {
	case from == "":
		return "", "", domain.NewValidationError("from", "Missing currency codes")
	case to == "":
		return "", "", domain.NewValidationError("to", "Missing currency codes")
	case utf8.RuneCountInString(from) != 3:
		return "", "", domain.NewValidationError("from", "Currency codes must be 3 characters")
	case utf8.RuneCountInString(to) != 3:
		return "", "", domain.NewValidationError("to", "Currency codes must be 3 characters")
	}
	return from, to, nil
}
