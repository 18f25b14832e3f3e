package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"ratelock/internal/rate"
)

type rateSyncer interface {
	Sync(ctx context.Context) (rate.SyncResult, error)
}

type Handler struct {
	syncer rateSyncer
}

func NewRateHandler(syncer rateSyncer) *Handler {
	return &Handler{syncer: syncer}
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
