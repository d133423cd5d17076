package v1

import (
	"net/http"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/utils"
)

type AdminCatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewAdminCatalogHandler(uc *usecase.CatalogUsecase) *AdminCatalogHandler {
	return &AdminCatalogHandler{catalogUC: uc}
}

// ListProducts is the admin view: inactive products included.
func (h *AdminCatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := domain.ProductFilter{
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
		CategoryID: r.URL.Query().Get("categoryId"),
		Search:     r.URL.Query().Get("search"),
	}
	products, total, err := h.catalogUC.ListProducts(r.Context(), filter)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, paginated{Data: products, Total: total, Page: filter.Page, Limit: filter.Limit})
}

func (h *AdminCatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := decodeBody(r, &product); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.catalogUC.CreateProduct(r.Context(), &product); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, product)
}

func (h *AdminCatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := decodeBody(r, &product); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	product.ID = r.PathValue("id")
	if err := h.catalogUC.UpdateProduct(r.Context(), &product); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

func (h *AdminCatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUC.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Product deleted")
}
