package v1

import (
	"net/http"

	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/utils"

	"github.com/shopspring/decimal"
)

type PromotionHandler struct {
	promoUC *usecase.PromotionUsecase
}

func NewPromotionHandler(uc *usecase.PromotionUsecase) *PromotionHandler {
	return &PromotionHandler{promoUC: uc}
}

type applyPromotionReq struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Apply validates a promotion code against a subtotal. An unusable code is a
// normal 200 response with valid=false, not an error.
func (h *PromotionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyPromotionReq
	if err := decodeBody(r, &req); err != nil || req.Code == "" {
		utils.WriteError(w, http.StatusBadRequest, "Promotion code required")
		return
	}

	resp, err := h.promoUC.Apply(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
