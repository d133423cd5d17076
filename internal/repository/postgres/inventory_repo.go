package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freshmart-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type warehouseRepository struct {
	db *pgxpool.Pool
}

func NewWarehouseRepository(db *pgxpool.Pool) domain.WarehouseRepository {
	return &warehouseRepository{db: db}
}

func (r *warehouseRepository) Create(ctx context.Context, w *domain.Warehouse) error {
	_, err := q(ctx, r.db).Exec(ctx,
		`INSERT INTO warehouses (id, name, address, is_active) VALUES ($1, $2, $3, $4)`,
		w.ID, w.Name, w.Address, w.IsActive)
	return err
}

func (r *warehouseRepository) GetByID(ctx context.Context, id string) (*domain.Warehouse, error) {
	var w domain.Warehouse
	err := q(ctx, r.db).QueryRow(ctx,
		`SELECT id, name, address, is_active, created_at, updated_at FROM warehouses WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &w.Address, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("warehouse not found")
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *warehouseRepository) GetAll(ctx context.Context) ([]domain.Warehouse, error) {
	rows, err := q(ctx, r.db).Query(ctx,
		`SELECT id, name, address, is_active, created_at, updated_at FROM warehouses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warehouses []domain.Warehouse
	for rows.Next() {
		var w domain.Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Address, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (r *warehouseRepository) Update(ctx context.Context, w *domain.Warehouse) error {
	tag, err := q(ctx, r.db).Exec(ctx,
		`UPDATE warehouses SET name = $1, address = $2, is_active = $3, updated_at = NOW() WHERE id = $4`,
		w.Name, w.Address, w.IsActive, w.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("warehouse not found")
	}
	return nil
}

func (r *warehouseRepository) Delete(ctx context.Context, id string) error {
	tag, err := q(ctx, r.db).Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("warehouse not found")
	}
	return nil
}

// --- Inventory ---

type inventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) domain.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) CreateDocument(ctx context.Context, doc *domain.InventoryDocument) error {
	_, err := q(ctx, r.db).Exec(ctx, `
		INSERT INTO inventory_documents (id, type, warehouse_id, reference, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Type, doc.WarehouseID, doc.Reference, doc.Note, doc.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	for _, line := range doc.Lines {
		_, err = q(ctx, r.db).Exec(ctx, `
			INSERT INTO inventory_lines (id, document_id, product_id, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5)`,
			line.ID, doc.ID, line.ProductID, line.Quantity, decimalToNumeric(line.UnitCost))
		if err != nil {
			return fmt.Errorf("failed to insert document line: %w", err)
		}
	}
	return nil
}

func (r *inventoryRepository) loadLines(ctx context.Context, documentID string) ([]domain.InventoryLine, error) {
	rows, err := q(ctx, r.db).Query(ctx, `
		SELECT id, document_id, product_id, quantity, unit_cost
		FROM inventory_lines WHERE document_id = $1`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.InventoryLine
	for rows.Next() {
		var l domain.InventoryLine
		var cost pgtype.Numeric
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.ProductID, &l.Quantity, &cost); err != nil {
			return nil, err
		}
		l.UnitCost = numericToDecimal(cost)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *inventoryRepository) GetDocumentByID(ctx context.Context, id string) (*domain.InventoryDocument, error) {
	var doc domain.InventoryDocument
	err := q(ctx, r.db).QueryRow(ctx, `
		SELECT id, type, warehouse_id, reference, note, created_by, created_at
		FROM inventory_documents WHERE id = $1`, id).
		Scan(&doc.ID, &doc.Type, &doc.WarehouseID, &doc.Reference, &doc.Note, &doc.CreatedBy, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document not found")
	}
	if err != nil {
		return nil, err
	}
	doc.Lines, err = r.loadLines(ctx, doc.ID)
	return &doc, err
}

func (r *inventoryRepository) ListDocuments(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryDocument, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	idx := 1
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", idx))
		args = append(args, filter.Type)
		idx++
	}
	if filter.WarehouseID != "" {
		where = append(where, fmt.Sprintf("warehouse_id = $%d", idx))
		args = append(args, filter.WarehouseID)
		idx++
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	if err := q(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_documents WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, type, warehouse_id, reference, note, created_by, created_at
		FROM inventory_documents WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		whereClause, idx, idx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []domain.InventoryDocument
	for rows.Next() {
		var doc domain.InventoryDocument
		if err := rows.Scan(&doc.ID, &doc.Type, &doc.WarehouseID, &doc.Reference, &doc.Note, &doc.CreatedBy, &doc.CreatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range docs {
		docs[i].Lines, err = r.loadLines(ctx, docs[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return docs, total, nil
}

func (r *inventoryRepository) GetStockLevel(ctx context.Context, warehouseID, productID string) (int, error) {
	var qty int
	err := q(ctx, r.db).QueryRow(ctx, `
		SELECT quantity FROM stock_levels WHERE warehouse_id = $1 AND product_id = $2`,
		warehouseID, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}

func (r *inventoryRepository) ListStockLevels(ctx context.Context, warehouseID string) ([]domain.StockLevel, error) {
	rows, err := q(ctx, r.db).Query(ctx, `
		SELECT warehouse_id, product_id, quantity FROM stock_levels
		WHERE warehouse_id = $1 ORDER BY product_id`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []domain.StockLevel
	for rows.Next() {
		var l domain.StockLevel
		if err := rows.Scan(&l.WarehouseID, &l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// AdjustStock applies a movement and appends the ledger entry in one shot. The
// CHECK constraint on stock_levels.quantity makes negative stock impossible at
// the database level too.
func (r *inventoryRepository) AdjustStock(ctx context.Context, warehouseID, productID string, delta int, reason, reference string) error {
	tag, err := q(ctx, r.db).Exec(ctx, `
		INSERT INTO stock_levels (warehouse_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (warehouse_id, product_id)
		DO UPDATE SET quantity = stock_levels.quantity + $3
		WHERE stock_levels.quantity + $3 >= 0`,
		warehouseID, productID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insufficient stock")
	}

	_, err = q(ctx, r.db).Exec(ctx, `
		INSERT INTO stock_ledger (id, warehouse_id, product_id, delta, reason, reference)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)`,
		warehouseID, productID, delta, reason, reference)
	return err
}

func (r *inventoryRepository) ListLedger(ctx context.Context, filter domain.InventoryFilter) ([]domain.LedgerEntry, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	idx := 1
	if filter.WarehouseID != "" {
		where = append(where, fmt.Sprintf("warehouse_id = $%d", idx))
		args = append(args, filter.WarehouseID)
		idx++
	}
	if filter.ProductID != "" {
		where = append(where, fmt.Sprintf("product_id = $%d", idx))
		args = append(args, filter.ProductID)
		idx++
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	if err := q(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_ledger WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, warehouse_id, product_id, delta, reason, reference, created_at
		FROM stock_ledger WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		whereClause, idx, idx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.WarehouseID, &e.ProductID, &e.Delta, &e.Reason, &e.Reference, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
