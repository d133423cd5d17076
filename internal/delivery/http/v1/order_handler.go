package v1

import (
	"net/http"

	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/logger"
	"freshmart-backend/pkg/utils"
)

type OrderHandler struct {
	orderUC         *usecase.OrderUsecase
	paymentUC       *usecase.PaymentUsecase
	maxCartQuantity int
}

func NewOrderHandler(orderUC *usecase.OrderUsecase, paymentUC *usecase.PaymentUsecase, maxCartQuantity int) *OrderHandler {
	return &OrderHandler{
		orderUC:         orderUC,
		paymentUC:       paymentUC,
		maxCartQuantity: maxCartQuantity,
	}
}

// --- Cart ---

func (h *OrderHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	cart, err := h.orderUC.GetMyCart(r.Context(), user.ID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

type cartItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *OrderHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req cartItemReq
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > h.maxCartQuantity {
		utils.WriteError(w, http.StatusBadRequest, "Quantity out of range")
		return
	}

	cart, err := h.orderUC.AddToCart(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		logger.Get().Warn().Err(err).Str("user_id", user.ID).Msg("AddToCart failed")
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req cartItemReq
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity > h.maxCartQuantity {
		utils.WriteError(w, http.StatusBadRequest, "Quantity out of range")
		return
	}

	cart, err := h.orderUC.UpdateCartItemQuantity(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	productID := r.PathValue("productId")
	if productID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Product ID required")
		return
	}

	cart, err := h.orderUC.RemoveFromCart(r.Context(), user.ID, productID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// --- Checkout & Orders ---

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req usecase.CheckoutReq
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderUC.Checkout(r.Context(), user.ID, req)
	if err != nil {
		logger.Get().Warn().Err(err).Str("user_id", user.ID).Msg("Checkout failed")
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orders, err := h.orderUC.GetMyOrders(r.Context(), user.ID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GetMyOrder returns the order plus the flags the confirmation screen needs:
// whether this load directly followed a successful payment, and which
// statuses may come next.
func (h *OrderHandler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.orderUC.GetMyOrder(r.Context(), user.ID, orderID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"order":           order,
		"allowedNext":     h.orderUC.AllowedNextStatuses(order),
		"cameFromPayment": h.paymentUC.CameFromPayment(order.ID),
	})
}

type cancelOrderReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req cancelOrderReq
	_ = decodeBody(r, &req)

	order, err := h.orderUC.CancelOrder(r.Context(), user.ID, orderID, req.Reason)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}
