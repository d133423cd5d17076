package v1

import (
	"net/http"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/utils"
)

type AdminPromotionHandler struct {
	promoUC *usecase.PromotionUsecase
}

func NewAdminPromotionHandler(uc *usecase.PromotionUsecase) *AdminPromotionHandler {
	return &AdminPromotionHandler{promoUC: uc}
}

func (h *AdminPromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	promos, total, err := h.promoUC.List(r.Context(), page, limit)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, paginated{Data: promos, Total: total, Page: page, Limit: limit})
}

func (h *AdminPromotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	promo, err := h.promoUC.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, promo)
}

func (h *AdminPromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var promo domain.Promotion
	if err := decodeBody(r, &promo); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.promoUC.Create(r.Context(), &promo); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, promo)
}

func (h *AdminPromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var promo domain.Promotion
	if err := decodeBody(r, &promo); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	promo.ID = r.PathValue("id")
	if err := h.promoUC.Update(r.Context(), &promo); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, promo)
}

func (h *AdminPromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.promoUC.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Promotion deleted")
}
