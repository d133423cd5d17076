package v1

import (
	"net/http"

	"freshmart-backend/internal/usecase"
	"freshmart-backend/internal/worker"
	"freshmart-backend/pkg/utils"
)

type PaymentHandler struct {
	paymentUC *usecase.PaymentUsecase
	flows     *worker.FlowManager
}

func NewPaymentHandler(paymentUC *usecase.PaymentUsecase, flows *worker.FlowManager) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC, flows: flows}
}

type startPaymentReq struct {
	OrderID string `json:"orderId"`
}

// StartPayment starts (or reattaches to) the payment flow for an order and
// returns its snapshot: link payload, countdown, current state. Repeated
// calls for the same order reuse the existing link.
func (h *PaymentHandler) StartPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req startPaymentReq
	if err := decodeBody(r, &req); err != nil || req.OrderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Order ID required")
		return
	}

	flow, err := h.flows.Start(r.Context(), user.ID, req.OrderID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, flow.Snapshot())
}

// GetFlow reports the flow state for an order. An IDLE answer means no flow
// is live on this process; the caller falls back to the order record itself.
func (h *PaymentHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.flows.Snapshot(r.PathValue("orderId")))
}

// GetStatus proxies the provider's view of a payment. A terminal-success
// answer also promotes the order as a side effect.
func (h *PaymentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	orderCode := r.PathValue("orderCode")
	if orderCode == "" {
		utils.WriteError(w, http.StatusBadRequest, "Order code required")
		return
	}
	status, err := h.paymentUC.GetProviderStatus(r.Context(), orderCode)
	if err != nil {
		utils.WriteError(w, http.StatusBadGateway, "payment provider unavailable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, status)
}

type cancelPaymentReq struct {
	Reason string `json:"reason"`
}

// CancelPayment stops the flow, voids the provider link and cancels the
// order.
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orderID := r.PathValue("orderId")

	var req cancelPaymentReq
	_ = decodeBody(r, &req)

	h.flows.Cancel(orderID)

	order, err := h.paymentUC.CancelPayment(r.Context(), user.ID, orderID, req.Reason)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}
