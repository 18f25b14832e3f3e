package handler

import (
	"errors"
	"net/http"
	"time"

	"ratelock/internal/domain"

	"github.com/sirupsen/logrus"
)

type HealthResponse struct {
	Status     string     `json:"status" example:"healthy"`
	Service    string     `json:"service" example:"ratelock"`
	Timestamp  time.Time  `json:"timestamp" example:"2025-01-10T15:04:05Z"`
	LastSync   *time.Time `json:"last_sync" example:"2025-01-10T15:00:00Z"`
	SnapshotID string     `json:"rate_snapshot_id,omitempty" example:"20250110-150000.000000UTC"`
}

// Health godoc
// @Summary Service health
// @Description Liveness plus the capture time of the latest rate snapshot. last_sync is null when no snapshot is available.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Service: "ratelock", Timestamp: time.Now().UTC()}

	info, err := h.service.LatestRateInfo(r.Context())
	switch {
	case err == nil:
		lastSync := info.FetchedAt
		resp.LastSync = &lastSync
		resp.SnapshotID = info.SnapshotID
	case errors.Is(err, domain.ErrDataUnavailable):
	default:
		logrus.WithError(err).WithField("handler", "Health").Warn("latest snapshot lookup failed")
	}

	writeJSON(w, http.StatusOK, resp)
}
