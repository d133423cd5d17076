package postgres

import (
	"context"
	"errors"
	"fmt"

	"freshmart-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type promotionRepository struct {
	db *pgxpool.Pool
}

func NewPromotionRepository(db *pgxpool.Pool) domain.PromotionRepository {
	return &promotionRepository{db: db}
}

const promotionColumns = `id, code, type, value, min_spend, usage_limit, used_count,
	is_active, start_at, expires_at, created_at, updated_at`

func scanPromotion(row pgx.Row) (*domain.Promotion, error) {
	var p domain.Promotion
	var value, minSpend pgtype.Numeric
	err := row.Scan(&p.ID, &p.Code, &p.Type, &value, &minSpend, &p.UsageLimit,
		&p.UsedCount, &p.IsActive, &p.StartAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Value = numericToDecimal(value)
	p.MinSpend = numericToDecimal(minSpend)
	return &p, nil
}

func (r *promotionRepository) Create(ctx context.Context, p *domain.Promotion) error {
	_, err := q(ctx, r.db).Exec(ctx, `
		INSERT INTO promotions (id, code, type, value, min_spend, usage_limit, is_active, start_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Code, p.Type, decimalToNumeric(p.Value), decimalToNumeric(p.MinSpend),
		p.UsageLimit, p.IsActive, p.StartAt, p.ExpiresAt)
	return err
}

func (r *promotionRepository) GetByID(ctx context.Context, id string) (*domain.Promotion, error) {
	p, err := scanPromotion(q(ctx, r.db).QueryRow(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("promotion not found")
	}
	return p, err
}

func (r *promotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	p, err := scanPromotion(q(ctx, r.db).QueryRow(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE UPPER(code) = UPPER($1)`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("promotion not found")
	}
	return p, err
}

func (r *promotionRepository) GetAll(ctx context.Context, page, limit int) ([]domain.Promotion, int64, error) {
	var total int64
	if err := q(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM promotions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q(ctx, r.db).Query(ctx,
		`SELECT `+promotionColumns+` FROM promotions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var promotions []domain.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, 0, err
		}
		promotions = append(promotions, *p)
	}
	return promotions, total, rows.Err()
}

func (r *promotionRepository) Update(ctx context.Context, p *domain.Promotion) error {
	tag, err := q(ctx, r.db).Exec(ctx, `
		UPDATE promotions SET code = $1, type = $2, value = $3, min_spend = $4,
			usage_limit = $5, is_active = $6, start_at = $7, expires_at = $8, updated_at = NOW()
		WHERE id = $9`,
		p.Code, p.Type, decimalToNumeric(p.Value), decimalToNumeric(p.MinSpend),
		p.UsageLimit, p.IsActive, p.StartAt, p.ExpiresAt, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("promotion not found")
	}
	return nil
}

func (r *promotionRepository) Delete(ctx context.Context, id string) error {
	tag, err := q(ctx, r.db).Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("promotion not found")
	}
	return nil
}

// IncrementUsage bumps used_count, refusing to pass the usage limit.
func (r *promotionRepository) IncrementUsage(ctx context.Context, id string) error {
	tag, err := q(ctx, r.db).Exec(ctx, `
		UPDATE promotions SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit = 0 OR used_count < usage_limit)`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("promotion usage limit reached")
	}
	return nil
}
