package handlers

import (
	"net/http"

	statssvc "github.com/ivankudzin/skillswap/internal/services/stats"
	"github.com/ivankudzin/skillswap/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/skillswap/internal/transport/http/errors"
)

type StatsHandler struct {
	service *statssvc.Service
}

func NewStatsHandler(service *statssvc.Service) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) Today(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "STATS_SERVICE_UNAVAILABLE", "stats service is unavailable")
		return
	}

	today, err := h.service.Today(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load matching stats")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.TodayStatsResponse{
		Date:         today.Date,
		MatchedPairs: today.MatchedPairs,
	})
}
