package handler

import (
	"errors"
	"net/http"

	"ratelock/internal/domain"

	"github.com/sirupsen/logrus"
)

// GetCurrentRates godoc
// @Summary Current rate snapshot
// @Description Summary of the snapshot conversions are currently priced against
// @Tags Rates
// @Produce json
// @Success 200 {object} domain.RateInfo
// @Failure 500 {object} errorResponse
// @Failure 503 {object} errorResponse "no rate snapshot available"
// @Router /rates [get]
func (h *Handler) GetCurrentRates(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.LatestRateInfo(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrDataUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "No rate snapshot available")
			return
		}
		writeServiceError(w, err, logrus.Fields{"handler": "GetCurrentRates"})
		return
	}

	writeJSON(w, http.StatusOK, info)
}
