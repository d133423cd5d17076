package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrInvalidTransition marks a status change the policy tables reject.
var ErrInvalidTransition = errors.New("invalid status transition")

// OrderEvents receives order lifecycle notifications (the admin dashboard
// websocket feed). Implementations must not block.
type OrderEvents interface {
	OrderStatusChanged(order *domain.Order, previous string)
}

type OrderUsecase struct {
	orderRepo     domain.OrderRepository
	productRepo   domain.ProductRepository
	promotionRepo domain.PromotionRepository
	inventoryRepo domain.InventoryRepository
	txManager     domain.TransactionManager
	events        OrderEvents
	warehouseID   string
	shippingFee   decimal.Decimal
}

func NewOrderUsecase(
	orderRepo domain.OrderRepository,
	productRepo domain.ProductRepository,
	promotionRepo domain.PromotionRepository,
	inventoryRepo domain.InventoryRepository,
	txManager domain.TransactionManager,
	events OrderEvents,
	warehouseID string,
	shippingFee decimal.Decimal,
) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		promotionRepo: promotionRepo,
		inventoryRepo: inventoryRepo,
		txManager:     txManager,
		events:        events,
		warehouseID:   warehouseID,
		shippingFee:   shippingFee,
	}
}

// --- Cart Logic ---

func (u *OrderUsecase) GetMyCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := u.orderRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			cart = &domain.Cart{
				ID:     uuid.NewString(),
				UserID: userID,
			}
			if createErr := u.orderRepo.CreateCart(ctx, cart); createErr != nil {
				return nil, createErr
			}
			return cart, nil
		}
		return nil, err
	}
	return cart, nil
}

func (u *OrderUsecase) AddToCart(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	product, err := u.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}
	if !product.IsActive || product.StockStatus == domain.StockStatusOutOfStock {
		return nil, fmt.Errorf("product %s is unavailable", product.Name)
	}

	cart, err := u.GetMyCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := 0
	for _, item := range cart.Items {
		if item.ProductID == productID {
			existing = item.Quantity
			break
		}
	}

	if err := u.orderRepo.UpsertCartItem(ctx, cart.ID, productID, existing+quantity); err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return u.GetMyCart(ctx, userID)
}

func (u *OrderUsecase) UpdateCartItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	cart, err := u.GetMyCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := u.orderRepo.RemoveCartItem(ctx, cart.ID, productID); err != nil {
			return nil, err
		}
	} else {
		if err := u.orderRepo.UpsertCartItem(ctx, cart.ID, productID, quantity); err != nil {
			return nil, fmt.Errorf("failed to update cart: %w", err)
		}
	}
	return u.GetMyCart(ctx, userID)
}

func (u *OrderUsecase) RemoveFromCart(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	cart, err := u.GetMyCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.orderRepo.RemoveCartItem(ctx, cart.ID, productID); err != nil {
		return nil, err
	}
	return u.GetMyCart(ctx, userID)
}

// --- Checkout ---

type CheckoutReq struct {
	Address       domain.JSONB `json:"address"`
	PaymentMethod string       `json:"paymentMethod"`
	PromotionCode string       `json:"promotionCode,omitempty"`
}

func (u *OrderUsecase) Checkout(ctx context.Context, userID string, req CheckoutReq) (*domain.Order, error) {
	if req.PaymentMethod != domain.PaymentMethodCOD && req.PaymentMethod != domain.PaymentMethodOnline {
		return nil, fmt.Errorf("unsupported payment method: %s", req.PaymentMethod)
	}
	if len(req.Address) == 0 {
		return nil, fmt.Errorf("shipping address is required")
	}

	cart, err := u.GetMyCart(ctx, userID)
	if err != nil || len(cart.Items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	// Price every line from the live catalog and snapshot it into the order.
	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		product, err := u.productRepo.GetByID(ctx, ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found", ci.ProductID)
		}
		price := product.EffectivePrice()
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(ci.Quantity))))
		items = append(items, domain.OrderItem{
			ID:          uuid.NewString(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    ci.Quantity,
			UnitPrice:   price,
		})
	}

	discount := decimal.Zero
	var promoCode *string
	var promo *domain.Promotion
	if req.PromotionCode != "" {
		promo, err = u.promotionRepo.GetByCode(ctx, req.PromotionCode)
		if err != nil {
			return nil, fmt.Errorf("invalid promotion code")
		}
		if ok, reason := promo.Validate(subtotal, time.Now()); !ok {
			return nil, fmt.Errorf("promotion cannot be applied: %s", reason)
		}
		discount = promo.Discount(subtotal)
		code := promo.Code
		promoCode = &code
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     newOrderNumber(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		DiscountAmount:  discount,
		ShippingFee:     u.shippingFee,
		Total:           subtotal.Sub(discount).Add(u.shippingFee),
		PromotionCode:   promoCode,
		ShippingAddress: req.Address,
		Items:           items,
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.CreateOrder(txCtx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := u.inventoryRepo.AdjustStock(txCtx, u.warehouseID, item.ProductID,
				-item.Quantity, "order_placed", order.ID); err != nil {
				return fmt.Errorf("insufficient stock for %s: %w", item.ProductName, err)
			}
		}
		if promo != nil {
			if err := u.promotionRepo.IncrementUsage(txCtx, promo.ID); err != nil {
				return err
			}
		}
		return u.orderRepo.ClearCart(txCtx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("payment_method", order.PaymentMethod).
		Str("total", order.Total.String()).
		Msg("Order placed")

	return order, nil
}

func newOrderNumber() string {
	// Short, human-readable reference: FM- + first uuid block, upper-cased.
	return "FM-" + strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}

// --- Queries ---

func (u *OrderUsecase) GetMyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return u.orderRepo.GetByUserID(ctx, userID)
}

func (u *OrderUsecase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return u.orderRepo.GetByID(ctx, id)
}

// GetMyOrder returns the order only if it belongs to the requesting user.
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID, id string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order not found")
	}
	return order, nil
}

func (u *OrderUsecase) GetAllOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	return u.orderRepo.GetAll(ctx, filter)
}

func (u *OrderUsecase) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	return u.orderRepo.GetOrderHistory(ctx, orderID)
}

// AllowedNextStatuses exposes the advisory transition set for one order.
func (u *OrderUsecase) AllowedNextStatuses(order *domain.Order) []string {
	return domain.AllowedNext(order.Status, order.PaymentMethod)
}

// --- Status Mutation ---

// UpdateOrderStatus moves an order to newStatus if the policy table for its
// payment method allows it, records history, releases stock on cancellation,
// and returns the reloaded server record (replace, not merge).
func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, orderID, newStatus, note, actorID string) (*domain.Order, error) {
	return u.updateStatus(ctx, orderID, newStatus, note, &actorID, false)
}

// SystemUpdateOrderStatus is the entry point for non-operator actors (payment
// watcher, reconciliation); it additionally permits the internal online
// transitions out of PENDING.
func (u *OrderUsecase) SystemUpdateOrderStatus(ctx context.Context, orderID, newStatus, note string) (*domain.Order, error) {
	return u.updateStatus(ctx, orderID, newStatus, note, nil, true)
}

func (u *OrderUsecase) updateStatus(ctx context.Context, orderID, newStatus, note string, actorID *string, system bool) (*domain.Order, error) {
	if !domain.IsValidStatus(newStatus) {
		return nil, fmt.Errorf("unknown status: %s", newStatus)
	}

	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	oldStatus := order.Status
	if oldStatus == newStatus {
		return order, nil
	}

	if !domain.CanTransition(oldStatus, newStatus, order.PaymentMethod, system) {
		return nil, fmt.Errorf("%w: %s -> %s for %s orders",
			ErrInvalidTransition, oldStatus, newStatus, order.PaymentMethod)
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdateStatus(txCtx, orderID, newStatus); err != nil {
			return err
		}

		// Cancellation puts the reserved stock back.
		if newStatus == domain.OrderStatusCanceled {
			for _, item := range order.Items {
				if err := u.inventoryRepo.AdjustStock(txCtx, u.warehouseID, item.ProductID,
					item.Quantity, "order_canceled", order.ID); err != nil {
					return fmt.Errorf("failed to restock %s: %w", item.ProductName, err)
				}
			}
		}

		reason := note
		if reason == "" {
			reason = fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
		}
		history := domain.OrderHistory{
			OrderID:        orderID,
			PreviousStatus: &oldStatus,
			NewStatus:      newStatus,
			Reason:         &reason,
			CreatedBy:      actorID,
		}
		return u.orderRepo.CreateOrderHistory(txCtx, &history)
	})
	if err != nil {
		return nil, err
	}

	// Return the authoritative record, not a locally patched copy.
	updated, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if u.events != nil {
		u.events.OrderStatusChanged(updated, oldStatus)
	}
	return updated, nil
}

// CancelOrder is the customer-facing cancellation path; it only works while
// the policy table still offers CANCELED from the order's current status.
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID, orderID, reason string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order not found")
	}
	if reason == "" {
		reason = "Canceled by customer"
	}
	// Customers may abandon an unpaid online order, which operators cannot.
	return u.updateStatus(ctx, orderID, domain.OrderStatusCanceled, reason, &userID, true)
}

// --- CSV Export ---

// ExportOrdersCSV streams the filtered order list as CSV.
func (u *OrderUsecase) ExportOrdersCSV(ctx context.Context, w io.Writer, filter domain.OrderFilter) error {
	orders, _, err := u.orderRepo.GetAll(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"order_number", "status", "payment_method",
		"subtotal", "discount", "shipping_fee", "total", "promotion_code",
		"items", "created_at"}); err != nil {
		return err
	}
	for _, o := range orders {
		code := ""
		if o.PromotionCode != nil {
			code = *o.PromotionCode
		}
		record := []string{
			o.OrderNumber,
			o.Status,
			o.PaymentMethod,
			o.Subtotal.StringFixed(2),
			o.DiscountAmount.StringFixed(2),
			o.ShippingFee.StringFixed(2),
			o.Total.StringFixed(2),
			code,
			fmt.Sprintf("%d", len(o.Items)),
			o.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
