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

type productRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) domain.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, slug, description, category_id, base_price,
	sale_price, stock_status, image_url, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var base, sale pgtype.Numeric
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.CategoryID,
		&base, &sale, &p.StockStatus, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.BasePrice = numericToDecimal(base)
	p.SalePrice = numericToDecimalPtr(sale)
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	_, err := q(ctx, r.db).Exec(ctx, `
		INSERT INTO products (id, name, slug, description, category_id, base_price,
			sale_price, stock_status, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.Slug, p.Description, p.CategoryID,
		decimalToNumeric(p.BasePrice), decimalPtrToNumeric(p.SalePrice),
		p.StockStatus, p.ImageURL, p.IsActive)
	return err
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(q(ctx, r.db).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product not found")
	}
	return p, err
}

func (r *productRepository) GetAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	idx := 1
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if filter.CategoryID != "" {
		where = append(where, fmt.Sprintf("category_id = $%d", idx))
		args = append(args, filter.CategoryID)
		idx++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", idx))
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	if err := q(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, idx, idx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	tag, err := q(ctx, r.db).Exec(ctx, `
		UPDATE products SET name = $1, slug = $2, description = $3, category_id = $4,
			base_price = $5, sale_price = $6, stock_status = $7, image_url = $8,
			is_active = $9, updated_at = NOW()
		WHERE id = $10`,
		p.Name, p.Slug, p.Description, p.CategoryID,
		decimalToNumeric(p.BasePrice), decimalPtrToNumeric(p.SalePrice),
		p.StockStatus, p.ImageURL, p.IsActive, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	tag, err := q(ctx, r.db).Exec(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

func (r *productRepository) GetCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := q(ctx, r.db).Query(ctx,
		`SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
