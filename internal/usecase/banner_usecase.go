package usecase

import (
	"context"
	"fmt"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/cache"
	"freshmart-backend/pkg/logger"

	"github.com/google/uuid"
)

const bannersCacheKey = "content:banners"

type BannerUsecase struct {
	repo     domain.BannerRepository
	cache    cache.CacheService
	cacheTTL time.Duration
}

func NewBannerUsecase(repo domain.BannerRepository, c cache.CacheService, ttl time.Duration) *BannerUsecase {
	return &BannerUsecase{repo: repo, cache: c, cacheTTL: ttl}
}

func (u *BannerUsecase) GetActive(ctx context.Context) ([]domain.Banner, error) {
	if v, ok := u.cache.Get(bannersCacheKey); ok {
		if banners, ok := v.([]domain.Banner); ok {
			return banners, nil
		}
	}
	banners, err := u.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	u.cache.Set(bannersCacheKey, banners, u.cacheTTL)
	return banners, nil
}

// Track records a banner view or click. Tracking is best effort: a failure is
// logged and swallowed so the storefront never sees it.
func (u *BannerUsecase) Track(ctx context.Context, bannerID, event string) {
	if event != domain.BannerEventView && event != domain.BannerEventClick {
		return
	}
	if err := u.repo.IncrementCounter(ctx, bannerID, event); err != nil {
		logger.Get().Debug().Err(err).
			Str("banner_id", bannerID).
			Str("event", event).
			Msg("Banner tracking failed")
	}
}

// --- Admin ---

func (u *BannerUsecase) GetAll(ctx context.Context) ([]domain.Banner, error) {
	return u.repo.GetAll(ctx)
}

func (u *BannerUsecase) Create(ctx context.Context, b *domain.Banner) error {
	if b.Title == "" || b.ImageURL == "" {
		return fmt.Errorf("title and image are required")
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := u.repo.Create(ctx, b); err != nil {
		return err
	}
	u.cache.Delete(bannersCacheKey)
	return nil
}

func (u *BannerUsecase) Update(ctx context.Context, b *domain.Banner) error {
	if err := u.repo.Update(ctx, b); err != nil {
		return err
	}
	u.cache.Delete(bannersCacheKey)
	return nil
}

func (u *BannerUsecase) Delete(ctx context.Context, id string) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}
	u.cache.Delete(bannersCacheKey)
	return nil
}
