package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"ratelock/internal/domain"

	"github.com/sirupsen/logrus"
)

type TriggerSyncResponse struct {
	Status            string    `json:"status" example:"success"`
	SnapshotID        string    `json:"snapshot_id" example:"20250110-150405.123456UTC"`
	CurrenciesUpdated int       `json:"currencies_updated" example:"31"`
	Created           bool      `json:"created" example:"true"`
	Timestamp         time.Time `json:"timestamp" example:"2025-01-10T15:04:05Z"`
}

// TriggerSync godoc
// @Summary Trigger rate synchronization
// @Description Fetch the rate table from the feed and store it as a new snapshot. Repeated triggers within the same snapshot id are no-ops.
// @Tags Rates
// @Produce json
// @Success 200 {object} TriggerSyncResponse
// @Failure 429 {object} errorResponse "too many sync requests"
// @Failure 500 {object} errorResponse
// @Router /rates/sync [post]
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	res, err := h.syncer.Sync(r.Context())
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "TriggerSync", "stage": domain.StageOf(err)}).Error("manual sync failed")
		writeError(w, http.StatusInternalServerError, "Rate synchronization failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(TriggerSyncResponse{
		Status:            "success",
		SnapshotID:        res.SnapshotID,
		CurrenciesUpdated: res.RateCount,
		Created:           res.Created,
		Timestamp:         res.FetchedAt,
	})
}
