package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider-side payment statuses. The provider owns these strings; we match
// them case-insensitively against a small terminal allow-list.
const (
	ProviderStatusPending  = "PENDING"
	ProviderStatusPaid     = "PAID"
	ProviderStatusCanceled = "CANCELLED"
	ProviderStatusExpired  = "EXPIRED"
)

var providerSuccessStatuses = []string{"PAID", "SUCCESS", "SUCCEEDED", "COMPLETED"}

// IsProviderSuccess reports whether a provider status string means the payment
// went through.
func IsProviderSuccess(status string) bool {
	for _, s := range providerSuccessStatuses {
		if strings.EqualFold(status, s) {
			return true
		}
	}
	return false
}

// PaymentLink is the provider-issued payload used to complete an online
// payment out-of-band (bank transfer details, QR code, provider order code).
type PaymentLink struct {
	OrderID       string          `json:"orderId"`
	OrderCode     string          `json:"orderCode"`
	CheckoutURL   string          `json:"checkoutUrl"`
	QRCode        string          `json:"qrCode"`
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	BankName      string          `json:"bankName"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	ExpiredAt     time.Time       `json:"expiredAt"`
}

// PaymentStatus is the provider's view of a payment.
type PaymentStatus struct {
	OrderCode  string          `json:"orderCode"`
	Status     string          `json:"status"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	PaidAt     *time.Time      `json:"paidAt"`
}

// PaymentGateway is the boundary to the external payment provider.
type PaymentGateway interface {
	CreateLink(ctx context.Context, order *Order) (*PaymentLink, error)
	GetStatus(ctx context.Context, orderCode string) (*PaymentStatus, error)
	CancelLink(ctx context.Context, orderCode, reason string) error
}
