package domain

import (
	"context"
	"time"
)

// Banner events tracked best-effort from the storefront.
const (
	BannerEventView  = "view"
	BannerEventClick = "click"
)

type Banner struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"imageUrl"`
	TargetURL  string    `json:"targetUrl"`
	Position   int       `json:"position"`
	IsActive   bool      `json:"isActive"`
	ViewCount  int64     `json:"viewCount"`
	ClickCount int64     `json:"clickCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type BannerRepository interface {
	Create(ctx context.Context, b *Banner) error
	GetActive(ctx context.Context) ([]Banner, error)
	GetAll(ctx context.Context) ([]Banner, error)
	Update(ctx context.Context, b *Banner) error
	Delete(ctx context.Context, id string) error
	IncrementCounter(ctx context.Context, id, event string) error
}
