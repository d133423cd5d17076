package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Promotion Types
const (
	PromotionTypePercentage = "PERCENTAGE"
	PromotionTypeFixed      = "FIXED_AMOUNT"
)

type Promotion struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	MinSpend   decimal.Decimal `json:"minSpend"`
	UsageLimit int             `json:"usageLimit"`
	UsedCount  int             `json:"usedCount"`
	IsActive   bool            `json:"isActive"`
	StartAt    *time.Time      `json:"startAt"`
	ExpiresAt  *time.Time      `json:"expiresAt"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Validate checks whether the promotion can be applied to a purchase of the
// given subtotal at the given time. Returns a human-readable reason on failure.
func (p *Promotion) Validate(subtotal decimal.Decimal, now time.Time) (bool, string) {
	if !p.IsActive {
		return false, "promotion is inactive"
	}
	if p.StartAt != nil && now.Before(*p.StartAt) {
		return false, "promotion has not started yet"
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false, "promotion has expired"
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return false, "promotion usage limit reached"
	}
	if subtotal.LessThan(p.MinSpend) {
		return false, "order does not meet the minimum spend"
	}
	return true, ""
}

// Discount computes the discount amount for the given subtotal, capped so the
// total never goes negative.
func (p *Promotion) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	if p.Type == PromotionTypePercentage {
		d = subtotal.Mul(p.Value).Div(decimal.NewFromInt(100))
	} else {
		d = p.Value
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d.Round(2)
}

type PromotionRepository interface {
	Create(ctx context.Context, p *Promotion) error
	GetByID(ctx context.Context, id string) (*Promotion, error)
	GetByCode(ctx context.Context, code string) (*Promotion, error)
	GetAll(ctx context.Context, page, limit int) ([]Promotion, int64, error)
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) error
}
