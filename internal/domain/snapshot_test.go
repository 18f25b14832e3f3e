package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRateSnapshot_RateAndKnows(t *testing.T) {
	s := RateSnapshot{
		BaseCurrency: "EUR",
		Rates:        map[string]decimal.Decimal{"USD": decimal.RequireFromString("1.1")},
	}

	require.True(t, s.Knows("USD"))
	require.True(t, s.Knows("EUR"))
	require.False(t, s.Knows("GBP"))

	r, ok := s.Rate("EUR")
	require.True(t, ok)
	require.True(t, r.Equal(decimal.NewFromInt(1)))

	r, ok = s.Rate("USD")
	require.True(t, ok)
	require.Equal(t, "1.1", r.String())

	_, ok = s.Rate("GBP")
	require.False(t, ok)
}

func TestRateSnapshot_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(time.Hour)

	require.False(t, RateSnapshot{}.Expired(now))
	require.False(t, RateSnapshot{ExpiresAt: &expires}.Expired(now))
	require.True(t, RateSnapshot{ExpiresAt: &expires}.Expired(expires))
}
