package postgres

import (
	"context"
	"fmt"

	"freshmart-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type bannerRepository struct {
	db *pgxpool.Pool
}

func NewBannerRepository(db *pgxpool.Pool) domain.BannerRepository {
	return &bannerRepository{db: db}
}

const bannerColumns = `id, title, image_url, target_url, position, is_active,
	view_count, click_count, created_at, updated_at`

func scanBanners(rows pgx.Rows) ([]domain.Banner, error) {
	defer rows.Close()
	var banners []domain.Banner
	for rows.Next() {
		var b domain.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.ImageURL, &b.TargetURL, &b.Position,
			&b.IsActive, &b.ViewCount, &b.ClickCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}

func (r *bannerRepository) Create(ctx context.Context, b *domain.Banner) error {
	_, err := q(ctx, r.db).Exec(ctx, `
		INSERT INTO banners (id, title, image_url, target_url, position, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.Title, b.ImageURL, b.TargetURL, b.Position, b.IsActive)
	return err
}

func (r *bannerRepository) GetActive(ctx context.Context) ([]domain.Banner, error) {
	rows, err := q(ctx, r.db).Query(ctx,
		`SELECT `+bannerColumns+` FROM banners WHERE is_active = TRUE ORDER BY position`)
	if err != nil {
		return nil, err
	}
	return scanBanners(rows)
}

func (r *bannerRepository) GetAll(ctx context.Context) ([]domain.Banner, error) {
	rows, err := q(ctx, r.db).Query(ctx,
		`SELECT `+bannerColumns+` FROM banners ORDER BY position`)
	if err != nil {
		return nil, err
	}
	return scanBanners(rows)
}

func (r *bannerRepository) Update(ctx context.Context, b *domain.Banner) error {
	tag, err := q(ctx, r.db).Exec(ctx, `
		UPDATE banners SET title = $1, image_url = $2, target_url = $3, position = $4,
			is_active = $5, updated_at = NOW()
		WHERE id = $6`,
		b.Title, b.ImageURL, b.TargetURL, b.Position, b.IsActive, b.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("banner not found")
	}
	return nil
}

func (r *bannerRepository) Delete(ctx context.Context, id string) error {
	tag, err := q(ctx, r.db).Exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("banner not found")
	}
	return nil
}

func (r *bannerRepository) IncrementCounter(ctx context.Context, id, event string) error {
	column := "view_count"
	if event == domain.BannerEventClick {
		column = "click_count"
	}
	_, err := q(ctx, r.db).Exec(ctx,
		fmt.Sprintf(`UPDATE banners SET %s = %s + 1 WHERE id = $1`, column, column), id)
	return err
}
