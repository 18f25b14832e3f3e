package conversion

import (
	"ratelock/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	resultPlaces = 2
	// divisionScale bounds the quotient before the final rounding to cents.
	divisionScale = 24
)

type Calculation struct {
	Amount    decimal.Decimal
	Method    domain.CalculationMethod
	RatesUsed map[string]decimal.Decimal
}

// Calculate converts amount from one currency to another through the
// snapshot's pivot currency. Both codes must be known to the snapshot.
// The result is rounded half-up to two places; amount is always positive so
// decimal's half-away-from-zero rounding is the same thing.
func Calculate(snapshot domain.RateSnapshot, from, to string, amount decimal.Decimal) Calculation {
	fromRate, _ := snapshot.Rate(from)
	toRate, _ := snapshot.Rate(to)
	calc := Calculation{RatesUsed: map[string]decimal.Decimal{from: fromRate, to: toRate}}

	pivot := snapshot.BaseCurrency
	switch {
	case from == to:
		calc.Method = domain.MethodSameCurrency
		calc.Amount = amount
		return calc
	case from == pivot:
		calc.Method = domain.MethodPivotToTarget
		calc.Amount = amount.Mul(toRate)
	case to == pivot:
		calc.Method = domain.MethodSourceToPivot
		calc.Amount = amount.DivRound(fromRate, divisionScale)
	default:
		// amount / from * to, multiplied first so there is a single division
		calc.Method = domain.MethodTriangulation
		calc.Amount = amount.Mul(toRate).DivRound(fromRate, divisionScale)
	}
	calc.Amount = calc.Amount.Round(resultPlaces)
	return calc
}
