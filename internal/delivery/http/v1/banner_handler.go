package v1

import (
	"net/http"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/utils"
)

// BannerHandler serves storefront banners and their best-effort tracking,
// plus the admin CRUD.
type BannerHandler struct {
	bannerUC *usecase.BannerUsecase
}

func NewBannerHandler(uc *usecase.BannerUsecase) *BannerHandler {
	return &BannerHandler{bannerUC: uc}
}

func (h *BannerHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	banners, err := h.bannerUC.GetActive(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, banners)
}

type trackBannerReq struct {
	Event string `json:"event"`
}

// Track always answers 202. Tracking must never surface an error to the
// storefront.
func (h *BannerHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req trackBannerReq
	_ = decodeBody(r, &req)
	h.bannerUC.Track(r.Context(), r.PathValue("id"), req.Event)
	w.WriteHeader(http.StatusAccepted)
}

// --- Admin ---

func (h *BannerHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	banners, err := h.bannerUC.GetAll(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, banners)
}

func (h *BannerHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var banner domain.Banner
	if err := decodeBody(r, &banner); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.bannerUC.Create(r.Context(), &banner); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, banner)
}

func (h *BannerHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var banner domain.Banner
	if err := decodeBody(r, &banner); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	banner.ID = r.PathValue("id")
	if err := h.bannerUC.Update(r.Context(), &banner); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, banner)
}

func (h *BannerHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.bannerUC.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Banner deleted")
}
