package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Stock statuses
const (
	StockStatusInStock    = "in_stock"
	StockStatusOutOfStock = "out_of_stock"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	CategoryID  *string          `json:"categoryId"`
	BasePrice   decimal.Decimal  `json:"basePrice"`
	SalePrice   *decimal.Decimal `json:"salePrice"`
	StockStatus string           `json:"stockStatus"`
	ImageURL    string           `json:"imageUrl"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// EffectivePrice is the price the storefront charges right now.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.BasePrice
}

type ProductFilter struct {
	Page       int
	Limit      int
	CategoryID string
	Search     string
	ActiveOnly bool
}

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	GetCategories(ctx context.Context) ([]Category, error)
}
