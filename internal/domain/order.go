package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OrderFilter struct {
	Page          int
	Limit         int
	Status        string
	PaymentMethod string
	Search        string
}

// --- Cart Entities ---

type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID          string          `json:"id"`
	CartID      string          `json:"cartId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// --- Order Entities ---

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	Total           decimal.Decimal `json:"total"`
	PromotionCode   *string         `json:"promotionCode"`
	ShippingAddress JSONB           `json:"shippingAddress"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem holds an immutable snapshot taken at order time; UnitPrice is the
// price the customer saw, not the live product price.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type OrderHistory struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	PreviousStatus *string   `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         *string   `json:"reason"`
	CreatedBy      *string   `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// --- Interfaces ---

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	GetByUserID(ctx context.Context, userID string) ([]Order, error)
	GetAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	FindStuckOnline(ctx context.Context, olderThan time.Duration) ([]Order, error)

	// Cart
	GetCartByUserID(ctx context.Context, userID string) (*Cart, error)
	CreateCart(ctx context.Context, cart *Cart) error
	UpsertCartItem(ctx context.Context, cartID, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, cartID, productID string) error
	ClearCart(ctx context.Context, cartID string) error
	ClearCartByUserID(ctx context.Context, userID string) error

	// History
	CreateOrderHistory(ctx context.Context, history *OrderHistory) error
	GetOrderHistory(ctx context.Context, orderID string) ([]OrderHistory, error)
}

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
