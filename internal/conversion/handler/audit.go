package handler

import (
	"errors"
	"net/http"

	"ratelock/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// GetAuditRecord godoc
// @Summary Get audit record
// @Description Get the immutable audit record of a conversion by its transaction ID
// @Tags Audit
// @Produce json
// @Param transaction_id path string true "Audit transaction ID"
// @Success 200 {object} domain.AuditRecord
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /audit/{transaction_id} [get]
func (h *Handler) GetAuditRecord(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transaction_id")

	record, err := h.service.GetAuditRecord(r.Context(), transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrAuditRecordNotFound) {
			writeError(w, http.StatusNotFound, "Audit record not found")
			return
		}
		writeServiceError(w, err, logrus.Fields{"handler": "GetAuditRecord", "transaction_id": transactionID})
		return
	}

	writeJSON(w, http.StatusOK, record)
}
