package v1

import (
	"net/http"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/utils"
)

type CatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUC: uc}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := domain.ProductFilter{
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
		CategoryID: r.URL.Query().Get("categoryId"),
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: true,
	}
	products, total, err := h.catalogUC.ListProducts(r.Context(), filter)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, paginated{Data: products, Total: total, Page: filter.Page, Limit: filter.Limit})
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogUC.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogUC.GetCategories(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}
