package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CalculationMethod string

const (
	MethodSameCurrency  CalculationMethod = "same_currency"
	MethodPivotToTarget CalculationMethod = "pivot_to_target"
	MethodSourceToPivot CalculationMethod = "source_to_pivot"
	MethodTriangulation CalculationMethod = "triangulation"
)

// AuditRecord is the immutable, write-once trace of one conversion.
type AuditRecord struct {
	TransactionID     string                     `json:"transaction_id"`
	FromCurrency      string                     `json:"from_currency"`
	ToCurrency        string                     `json:"to_currency"`
	OriginalAmount    decimal.Decimal            `json:"original_amount"`
	ConvertedAmount   decimal.Decimal            `json:"converted_amount"`
	SnapshotID        string                     `json:"rate_snapshot_id"`
	CalculationMethod CalculationMethod          `json:"calculation_method"`
	RatesUsed         map[string]decimal.Decimal `json:"rates_used"`
	Timestamp         time.Time                  `json:"conversion_timestamp"`
	ServiceVersion    string                     `json:"service_version"`
}
