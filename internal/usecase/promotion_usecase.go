package usecase

import (
	"context"
	"fmt"
	"time"

	"freshmart-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PromotionUsecase struct {
	promotionRepo domain.PromotionRepository
}

func NewPromotionUsecase(repo domain.PromotionRepository) *PromotionUsecase {
	return &PromotionUsecase{promotionRepo: repo}
}

// ApplyPromotionResp mirrors what the storefront needs to show pricing after
// a code is entered.
type ApplyPromotionResp struct {
	Valid          bool            `json:"valid"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	NewTotal       decimal.Decimal `json:"newTotal"`
	Message        string          `json:"message"`
}

// Apply validates a code against a subtotal and prices the discount. An
// invalid code is a normal response, not an error.
func (u *PromotionUsecase) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*ApplyPromotionResp, error) {
	if code == "" {
		return &ApplyPromotionResp{Valid: false, Message: "Promotion code is required"}, nil
	}

	promo, err := u.promotionRepo.GetByCode(ctx, code)
	if err != nil {
		return &ApplyPromotionResp{Valid: false, Code: code, Message: "Invalid promotion code"}, nil
	}

	if ok, reason := promo.Validate(subtotal, time.Now()); !ok {
		return &ApplyPromotionResp{Valid: false, Code: code, Message: reason}, nil
	}

	discount := promo.Discount(subtotal)
	return &ApplyPromotionResp{
		Valid:          true,
		Code:           promo.Code,
		DiscountAmount: discount,
		NewTotal:       subtotal.Sub(discount),
		Message:        "Promotion applied successfully",
	}, nil
}

// --- Admin CRUD ---

func (u *PromotionUsecase) Create(ctx context.Context, p *domain.Promotion) error {
	if p.Code == "" {
		return fmt.Errorf("promotion code is required")
	}
	if p.Type != domain.PromotionTypePercentage && p.Type != domain.PromotionTypeFixed {
		return fmt.Errorf("unknown promotion type: %s", p.Type)
	}
	if p.Value.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("promotion value must be positive")
	}
	if p.Type == domain.PromotionTypePercentage && p.Value.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("percentage discount cannot exceed 100")
	}
	p.ID = uuid.NewString()
	return u.promotionRepo.Create(ctx, p)
}

func (u *PromotionUsecase) Get(ctx context.Context, id string) (*domain.Promotion, error) {
	return u.promotionRepo.GetByID(ctx, id)
}

func (u *PromotionUsecase) List(ctx context.Context, page, limit int) ([]domain.Promotion, int64, error) {
	return u.promotionRepo.GetAll(ctx, page, limit)
}

func (u *PromotionUsecase) Update(ctx context.Context, p *domain.Promotion) error {
	if p.ID == "" {
		return fmt.Errorf("promotion id is required")
	}
	return u.promotionRepo.Update(ctx, p)
}

func (u *PromotionUsecase) Delete(ctx context.Context, id string) error {
	return u.promotionRepo.Delete(ctx, id)
}
