package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type RateSnapshot struct {
	SnapshotID   string                     `json:"snapshot_id"`
	BaseCurrency string                     `json:"base_currency"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	FeedDate     string                     `json:"feed_date,omitempty"`
	FetchedAt    time.Time                  `json:"fetched_at"`
	ExpiresAt    *time.Time                 `json:"expires_at,omitempty"`
}

// Expired reports whether the snapshot's retention window has passed at now.
func (s RateSnapshot) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// Knows reports whether code can be converted with this snapshot.
func (s RateSnapshot) Knows(code string) bool {
	if code == s.BaseCurrency {
		return true
	}
	_, ok := s.Rates[code]
	return ok
}

// Rate returns units of code per one unit of the base currency.
func (s RateSnapshot) Rate(code string) (decimal.Decimal, bool) {
	if r, ok := s.Rates[code]; ok {
		return r, true
	}
	if code == s.BaseCurrency {
		return decimal.NewFromInt(1), true
	}
	return decimal.Decimal{}, false
}

// FeedPayload is the raw rate table as returned by the feed. Rate values are
// kept as raw JSON so that validation, not decoding, decides what is numeric.
type FeedPayload struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]json.RawMessage `json:"rates"`
}

// RateInfo is a read-only projection of the current snapshot for monitoring.
type RateInfo struct {
	SnapshotID   string    `json:"rate_snapshot_id"`
	BaseCurrency string    `json:"base_currency"`
	FeedDate     string    `json:"fetch_date,omitempty"`
	RateCount    int       `json:"rates_count"`
	FetchedAt    time.Time `json:"fetch_timestamp"`
}
