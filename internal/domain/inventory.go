package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Warehouse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Inventory document types
const (
	DocumentTypeReceipt = "RECEIPT"
	DocumentTypeIssue   = "ISSUE"
)

// InventoryDocument is a goods-receipt or goods-issue voucher against a
// warehouse. Lines are immutable once the document is posted.
type InventoryDocument struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	WarehouseID string          `json:"warehouseId"`
	Reference   string          `json:"reference"`
	Note        string          `json:"note"`
	Lines       []InventoryLine `json:"lines"`
	CreatedBy   *string         `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type InventoryLine struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"documentId"`
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unitCost"`
}

// StockLevel is the current on-hand quantity of a product in a warehouse.
type StockLevel struct {
	WarehouseID string `json:"warehouseId"`
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
}

// LedgerEntry is one append-only stock movement. Delta is positive for
// receipts and negative for issues; Reference points at the causing document
// or order.
type LedgerEntry struct {
	ID          string    `json:"id"`
	WarehouseID string    `json:"warehouseId"`
	ProductID   string    `json:"productId"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason"`
	Reference   string    `json:"reference"`
	CreatedAt   time.Time `json:"createdAt"`
}

type InventoryFilter struct {
	Page        int
	Limit       int
	WarehouseID string
	ProductID   string
	Type        string
}

type WarehouseRepository interface {
	Create(ctx context.Context, w *Warehouse) error
	GetByID(ctx context.Context, id string) (*Warehouse, error)
	GetAll(ctx context.Context) ([]Warehouse, error)
	Update(ctx context.Context, w *Warehouse) error
	Delete(ctx context.Context, id string) error
}

type InventoryRepository interface {
	CreateDocument(ctx context.Context, doc *InventoryDocument) error
	GetDocumentByID(ctx context.Context, id string) (*InventoryDocument, error)
	ListDocuments(ctx context.Context, filter InventoryFilter) ([]InventoryDocument, int64, error)
	GetStockLevel(ctx context.Context, warehouseID, productID string) (int, error)
	ListStockLevels(ctx context.Context, warehouseID string) ([]StockLevel, error)
	AdjustStock(ctx context.Context, warehouseID, productID string, delta int, reason, reference string) error
	ListLedger(ctx context.Context, filter InventoryFilter) ([]LedgerEntry, int64, error)
}
