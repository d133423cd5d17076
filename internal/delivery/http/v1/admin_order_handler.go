package v1

import (
	"fmt"
	"net/http"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/logger"
	"freshmart-backend/pkg/utils"
)

type AdminOrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: uc}
}

func orderFilterFromQuery(r *http.Request) domain.OrderFilter {
	return domain.OrderFilter{
		Page:          queryInt(r, "page", 1),
		Limit:         queryInt(r, "limit", 20),
		Status:        r.URL.Query().Get("status"),
		PaymentMethod: r.URL.Query().Get("paymentMethod"),
		Search:        r.URL.Query().Get("search"),
	}
}

func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter := orderFilterFromQuery(r)
	orders, total, err := h.orderUC.GetAllOrders(r.Context(), filter)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, paginated{
		Data:  orders,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// GetOrder returns one order together with its advisory next statuses and its
// audit trail. The next-status set is computed server side; screens render
// exactly what they are given.
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.orderUC.GetOrder(r.Context(), orderID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	history, err := h.orderUC.GetOrderHistory(r.Context(), order.ID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"order":       order,
		"allowedNext": h.orderUC.AllowedNextStatuses(order),
		"history":     history,
	})
}

func (h *AdminOrderHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	history, err := h.orderUC.GetOrderHistory(r.Context(), orderID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, history)
}

type updateStatusReq struct {
	Note string `json:"note"`
}

// UpdateStatus applies one transition. The response body is the authoritative
// server record after the change.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	newStatus := r.PathValue("status")

	var req updateStatusReq
	_ = decodeBody(r, &req)

	order, err := h.orderUC.UpdateOrderStatus(r.Context(), orderID, newStatus, req.Note, user.ID)
	if err != nil {
		logger.Get().Warn().Err(err).
			Str("order_id", orderID).
			Str("new_status", newStatus).
			Str("actor", user.ID).
			Msg("Status update rejected")
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"order":       order,
		"allowedNext": h.orderUC.AllowedNextStatuses(order),
	})
}

func (h *AdminOrderHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := orderFilterFromQuery(r)
	filter.Limit = queryInt(r, "limit", 10000)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="orders-%s.csv"`, time.Now().Format("2006-01-02")))

	if err := h.orderUC.ExportOrdersCSV(r.Context(), w, filter); err != nil {
		logger.Get().Error().Err(err).Msg("CSV export failed")
	}
}
