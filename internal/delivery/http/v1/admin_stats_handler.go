package v1

import (
	"net/http"

	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/utils"
)

type AdminStatsHandler struct {
	statsUC *usecase.StatsUsecase
}

func NewAdminStatsHandler(uc *usecase.StatsUsecase) *AdminStatsHandler {
	return &AdminStatsHandler{statsUC: uc}
}

func (h *AdminStatsHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.statsUC.GetKPIs(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, kpis)
}

func (h *AdminStatsHandler) GetDailyRevenue(w http.ResponseWriter, r *http.Request) {
	series, err := h.statsUC.GetDailyRevenue(r.Context(), queryInt(r, "days", 30))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, series)
}

func (h *AdminStatsHandler) GetLowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.statsUC.GetLowStock(r.Context(), queryInt(r, "threshold", 10))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}
