package rate

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ratelock/internal/domain"
)

var (
	ErrRatesMissing = errors.New("rates mapping is empty")
	ErrBaseMismatch = errors.New("feed base does not match pivot currency")
	ErrInvalidRate  = errors.New("invalid rate value")
	ErrPivotRate    = errors.New("pivot currency rate must be 1")
)

// ValidatePayload checks the feed payload and returns its rate table with the
// pivot currency present at rate 1. Entries whose key is not a currency code
// are dropped with a warning. Every rate must be a finite positive
// JSON number; it is parsed straight from the literal, never through float64.
func ValidatePayload(payload domain.FeedPayload, pivot string) (map[string]decimal.Decimal, error) {
	if len(payload.Rates) == 0 {
		return nil, ErrRatesMissing
	}
	if payload.Base != "" && payload.Base != pivot {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrBaseMismatch, payload.Base, pivot)
	}

	one := decimal.NewFromInt(1)
	rates := make(map[string]decimal.Decimal, len(payload.Rates)+1)
	var skipped []string
	for code, raw := range payload.Rates {
		if !IsCurrencyCode(code) {
			skipped = append(skipped, code)
			continue
		}
		value, err := parseRate(raw)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrInvalidRate, code, err)
		}
		rates[code] = value
	}
	if len(skipped) > 0 {
		slices.Sort(skipped)
		logrus.WithField("codes", skipped).Warn("Skipping rates with invalid currency codes")
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: no valid currency codes", ErrRatesMissing)
	}

	if r, ok := rates[pivot]; ok {
		if !r.Equal(one) {
			return nil, fmt.Errorf("%w: got %s", ErrPivotRate, r)
		}
	} else {
		rates[pivot] = one
	}
	return rates, nil
}

const (
	maxRateLiteralLen = 64
	minRateExponent = -30
	maxRateExponent = 30
)

func parseRate(raw []byte) (decimal.Decimal, error) {
	literal := bytes.TrimSpace(raw)
	if len(literal) == 0 || literal[0] == '"' {
		return decimal.Decimal{}, fmt.Errorf("not a number: %s", literal)
	}
	if len(literal) > maxRateLiteralLen {
		return decimal.Decimal{}, fmt.Errorf("literal longer than %d characters", maxRateLiteralLen)
	}
	value, err := decimal.NewFromString(string(literal))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number: %s", literal)
	}
	if value.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("must be positive, got %s", literal)
	}
	if exp := value.Exponent(); exp < minRateExponent || exp > maxRateExponent {
		return decimal.Decimal{}, fmt.Errorf("exponent out of range: %s", literal)
	}
	return value, nil
}

// IsCurrencyCode reports whether code is exactly three upper-case ASCII letters.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
