package usecase

import (
	"context"
	"fmt"

	"freshmart-backend/config"
	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/cache"

	"github.com/google/uuid"
)

const categoriesCacheKey = "catalog:categories"

type CatalogUsecase struct {
	productRepo domain.ProductRepository
	cache       cache.CacheService
	cfg         *config.Config
}

func NewCatalogUsecase(repo domain.ProductRepository, c cache.CacheService, cfg *config.Config) *CatalogUsecase {
	return &CatalogUsecase{productRepo: repo, cache: c, cfg: cfg}
}

func (u *CatalogUsecase) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	return u.productRepo.GetAll(ctx, filter)
}

func (u *CatalogUsecase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return u.productRepo.GetByID(ctx, id)
}

func (u *CatalogUsecase) GetCategories(ctx context.Context) ([]domain.Category, error) {
	if v, ok := u.cache.Get(categoriesCacheKey); ok {
		if categories, ok := v.([]domain.Category); ok {
			return categories, nil
		}
	}

	categories, err := u.productRepo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	u.cache.Set(categoriesCacheKey, categories, u.cfg.CacheCatalogTTL)
	return categories, nil
}

// --- Admin ---

func (u *CatalogUsecase) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.Name == "" || p.Slug == "" {
		return fmt.Errorf("product name and slug are required")
	}
	p.ID = uuid.NewString()
	if p.StockStatus == "" {
		p.StockStatus = domain.StockStatusInStock
	}
	return u.productRepo.Create(ctx, p)
}

func (u *CatalogUsecase) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return u.productRepo.Update(ctx, p)
}

func (u *CatalogUsecase) DeleteProduct(ctx context.Context, id string) error {
	return u.productRepo.Delete(ctx, id)
}
