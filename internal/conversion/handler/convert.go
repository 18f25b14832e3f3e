package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"ratelock/internal/conversion"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ConvertResponse struct {
	ConvertedAmount       json.Number `json:"converted_amount" swaggertype:"number" example:"38.64"`
	RateSnapshotID        string      `json:"rate_snapshot_id" example:"20250110-150405.123456UTC"`
	AuditLogTransactionID string      `json:"audit_log_transaction_id" example:"audit-1736521445123456-4f1c2a9b"`
	FromCurrency          string      `json:"from_currency" example:"USD"`
	ToCurrency            string      `json:"to_currency" example:"GBP"`
	OriginalAmount        json.Number `json:"original_amount" swaggertype:"number" example:"50"`
	ConversionTimestamp   time.Time   `json:"conversion_timestamp" example:"2025-01-10T15:04:05Z"`
}

// Convert godoc
// @Summary Convert an amount
// @Description Convert an amount between two currencies using the latest rate snapshot. Every successful conversion is recorded in the audit log.
// @Tags Conversion
// @Produce json
// @Param from query string true "Source currency code" example(USD)
// @Param to query string true "Target currency code" example(GBP)
// @Param amount query string true "Amount to convert, up to 1000000000" example(50)
// @Success 200 {object} ConvertResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Failure 503 {object} errorResponse "no rate snapshot available"
// @Router /convert [get]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, amount := q.Get("from"), q.Get("to"), q.Get("amount")
	if from == "" || to == "" || amount == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: from, to, amount")
		return
	}

	res, err := h.service.Convert(r.Context(), conversion.ConvertRequest{From: from, To: to, Amount: amount})
	if err != nil {
		writeServiceError(w, err, logrus.Fields{"handler": "Convert", "from": from, "to": to})
		return
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		ConvertedAmount:       formatAmount(res.ConvertedAmount),
		RateSnapshotID:        res.SnapshotID,
		AuditLogTransactionID: res.TransactionID,
		FromCurrency:          res.FromCurrency,
		ToCurrency:            res.ToCurrency,
		OriginalAmount:        json.Number(res.OriginalAmount.String()),
		ConversionTimestamp:   res.Timestamp,
	})
}

// formatAmount renders at least two decimal places without ever dropping
// digits, so the response shows exactly the stored value.
func formatAmount(d decimal.Decimal) json.Number {
	if d.Exponent() < -2 {
		return json.Number(d.String())
	}
	return json.Number(d.StringFixed(2))
}
