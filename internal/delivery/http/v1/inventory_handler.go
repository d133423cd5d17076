package v1

import (
	"net/http"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/utils"
)

// InventoryHandler serves the admin warehouse and stock screens.
type InventoryHandler struct {
	inventoryUC *usecase.InventoryUsecase
}

func NewInventoryHandler(uc *usecase.InventoryUsecase) *InventoryHandler {
	return &InventoryHandler{inventoryUC: uc}
}

// --- Warehouses ---

func (h *InventoryHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.inventoryUC.ListWarehouses(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, warehouses)
}

func (h *InventoryHandler) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	warehouse, err := h.inventoryUC.GetWarehouse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, warehouse)
}

func (h *InventoryHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var warehouse domain.Warehouse
	if err := decodeBody(r, &warehouse); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.inventoryUC.CreateWarehouse(r.Context(), &warehouse); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, warehouse)
}

func (h *InventoryHandler) UpdateWarehouse(w http.ResponseWriter, r *http.Request) {
	var warehouse domain.Warehouse
	if err := decodeBody(r, &warehouse); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	warehouse.ID = r.PathValue("id")
	if err := h.inventoryUC.UpdateWarehouse(r.Context(), &warehouse); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, warehouse)
}

func (h *InventoryHandler) DeleteWarehouse(w http.ResponseWriter, r *http.Request) {
	if err := h.inventoryUC.DeleteWarehouse(r.Context(), r.PathValue("id")); err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Warehouse deleted")
}

// --- Documents ---

type postDocumentReq struct {
	WarehouseID string                 `json:"warehouseId"`
	Reference   string                 `json:"reference"`
	Note        string                 `json:"note"`
	Lines       []domain.InventoryLine `json:"lines"`
}

// PostReceipt posts a goods receipt. The stock and ledger effects are atomic.
func (h *InventoryHandler) PostReceipt(w http.ResponseWriter, r *http.Request) {
	h.postDocument(w, r, domain.DocumentTypeReceipt)
}

// PostIssue posts a goods issue. An issue that would drive stock negative
// rejects the whole document.
func (h *InventoryHandler) PostIssue(w http.ResponseWriter, r *http.Request) {
	h.postDocument(w, r, domain.DocumentTypeIssue)
}

func (h *InventoryHandler) postDocument(w http.ResponseWriter, r *http.Request, docType string) {
	user, ok := currentUser(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req postDocumentReq
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc := &domain.InventoryDocument{
		Type:        docType,
		WarehouseID: req.WarehouseID,
		Reference:   req.Reference,
		Note:        req.Note,
		Lines:       req.Lines,
		CreatedBy:   &user.ID,
	}
	posted, err := h.inventoryUC.PostDocument(r.Context(), doc)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, posted)
}

func inventoryFilterFromQuery(r *http.Request) domain.InventoryFilter {
	return domain.InventoryFilter{
		Page:        queryInt(r, "page", 1),
		Limit:       queryInt(r, "limit", 20),
		WarehouseID: r.URL.Query().Get("warehouseId"),
		ProductID:   r.URL.Query().Get("productId"),
		Type:        r.URL.Query().Get("type"),
	}
}

func (h *InventoryHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	h.listDocuments(w, r, domain.DocumentTypeReceipt)
}

func (h *InventoryHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	h.listDocuments(w, r, domain.DocumentTypeIssue)
}

func (h *InventoryHandler) listDocuments(w http.ResponseWriter, r *http.Request, docType string) {
	filter := inventoryFilterFromQuery(r)
	filter.Type = docType
	docs, total, err := h.inventoryUC.ListDocuments(r.Context(), filter)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, paginated{Data: docs, Total: total, Page: filter.Page, Limit: filter.Limit})
}

// --- Stock & Ledger ---

func (h *InventoryHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("id")
	if warehouseID == "" {
		warehouseID = r.URL.Query().Get("warehouseId")
	}
	stock, err := h.inventoryUC.ListStock(r.Context(), warehouseID)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stock)
}

func (h *InventoryHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	filter := inventoryFilterFromQuery(r)
	entries, total, err := h.inventoryUC.ListLedger(r.Context(), filter)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, paginated{Data: entries, Total: total, Page: filter.Page, Limit: filter.Limit})
}
