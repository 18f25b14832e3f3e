package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ratelock/internal/conversion"
	"ratelock/internal/domain"

	"github.com/sirupsen/logrus"
)

type conversionService interface {
	Convert(ctx context.Context, req conversion.ConvertRequest) (conversion.ConversionResult, error)
	GetAuditRecord(ctx context.Context, transactionID string) (domain.AuditRecord, error)
	LatestRateInfo(ctx context.Context) (domain.RateInfo, error)
}

type Handler struct {
	service conversionService
}

func NewConversionHandler(service conversionService) *Handler {
	return &Handler{service: service}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps err to a status code and a caller-safe message.
// Only validation messages are passed through verbatim.
func writeServiceError(w http.ResponseWriter, err error, fields logrus.Fields) {
	switch domain.Classify(err) {
	case domain.ClassValidation:
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request")
	case domain.ClassUnavailable:
		logrus.WithError(err).WithFields(fields).Warn("no rate data available")
		writeError(w, http.StatusServiceUnavailable, "No exchange rates available")
	default:
		msg := "Internal server error"
		if domain.StageOf(err) == domain.StageAuditWrite {
			msg = "Audit logging failed"
		}
		logrus.WithError(err).WithFields(fields).WithField("stage", domain.StageOf(err)).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
