package usecase

import (
	"context"
	"fmt"

	"freshmart-backend/internal/domain"

	"github.com/google/uuid"
)

type InventoryUsecase struct {
	warehouseRepo domain.WarehouseRepository
	inventoryRepo domain.InventoryRepository
	txManager     domain.TransactionManager
}

func NewInventoryUsecase(wRepo domain.WarehouseRepository, iRepo domain.InventoryRepository, tx domain.TransactionManager) *InventoryUsecase {
	return &InventoryUsecase{
		warehouseRepo: wRepo,
		inventoryRepo: iRepo,
		txManager:     tx,
	}
}

// --- Warehouses ---

func (u *InventoryUsecase) CreateWarehouse(ctx context.Context, w *domain.Warehouse) error {
	if w.Name == "" {
		return fmt.Errorf("warehouse name is required")
	}
	w.ID = uuid.NewString()
	w.IsActive = true
	return u.warehouseRepo.Create(ctx, w)
}

func (u *InventoryUsecase) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	return u.warehouseRepo.GetByID(ctx, id)
}

func (u *InventoryUsecase) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	return u.warehouseRepo.GetAll(ctx)
}

func (u *InventoryUsecase) UpdateWarehouse(ctx context.Context, w *domain.Warehouse) error {
	return u.warehouseRepo.Update(ctx, w)
}

func (u *InventoryUsecase) DeleteWarehouse(ctx context.Context, id string) error {
	levels, err := u.inventoryRepo.ListStockLevels(ctx, id)
	if err != nil {
		return err
	}
	for _, l := range levels {
		if l.Quantity > 0 {
			return fmt.Errorf("warehouse still holds stock and cannot be deleted")
		}
	}
	return u.warehouseRepo.Delete(ctx, id)
}

// --- Documents ---

// PostDocument validates and posts a receipt or issue: the document, its
// lines, the stock adjustments and the ledger entries all commit atomically.
func (u *InventoryUsecase) PostDocument(ctx context.Context, doc *domain.InventoryDocument) (*domain.InventoryDocument, error) {
	if doc.Type != domain.DocumentTypeReceipt && doc.Type != domain.DocumentTypeIssue {
		return nil, fmt.Errorf("unknown document type: %s", doc.Type)
	}
	if len(doc.Lines) == 0 {
		return nil, fmt.Errorf("document has no lines")
	}
	if _, err := u.warehouseRepo.GetByID(ctx, doc.WarehouseID); err != nil {
		return nil, err
	}
	for i := range doc.Lines {
		if doc.Lines[i].Quantity <= 0 {
			return nil, fmt.Errorf("line quantity must be positive")
		}
		doc.Lines[i].ID = uuid.NewString()
	}
	doc.ID = uuid.NewString()

	reason := "receipt_posted"
	sign := 1
	if doc.Type == domain.DocumentTypeIssue {
		reason = "issue_posted"
		sign = -1
	}

	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.inventoryRepo.CreateDocument(txCtx, doc); err != nil {
			return err
		}
		for _, line := range doc.Lines {
			if err := u.inventoryRepo.AdjustStock(txCtx, doc.WarehouseID, line.ProductID,
				sign*line.Quantity, reason, doc.ID); err != nil {
				return fmt.Errorf("product %s: %w", line.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.inventoryRepo.GetDocumentByID(ctx, doc.ID)
}

func (u *InventoryUsecase) ListDocuments(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryDocument, int64, error) {
	return u.inventoryRepo.ListDocuments(ctx, filter)
}

func (u *InventoryUsecase) ListStock(ctx context.Context, warehouseID string) ([]domain.StockLevel, error) {
	return u.inventoryRepo.ListStockLevels(ctx, warehouseID)
}

func (u *InventoryUsecase) ListLedger(ctx context.Context, filter domain.InventoryFilter) ([]domain.LedgerEntry, int64, error) {
	return u.inventoryRepo.ListLedger(ctx, filter)
}
