package usecase

import (
	"context"
	"errors"
	"testing"

	"freshmart-backend/internal/domain"

	"github.com/shopspring/decimal"
)

const testWarehouse = "wh-1"

type orderFixture struct {
	orderUC   *OrderUsecase
	orders    *mockOrderRepo
	products  *mockProductRepo
	promos    *mockPromotionRepo
	inventory *mockInventoryRepo
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:    newMockOrderRepo(),
		products:  newMockProductRepo(),
		promos:    newMockPromotionRepo(),
		inventory: newMockInventoryRepo(),
	}
	f.orderUC = NewOrderUsecase(f.orders, f.products, f.promos, f.inventory,
		mockTxManager{}, nil, testWarehouse, decimal.RequireFromString("15"))
	return f
}

func (f *orderFixture) seedCart(t *testing.T, userID string, productID string, qty int) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.orderUC.AddToCart(ctx, userID, productID, qty); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
}

func TestCheckoutSnapshotsPricesAndReservesStock(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	f.products.add("prod-1", "Avocado", "4.50")
	f.inventory.set(testWarehouse, "prod-1", 10)
	f.seedCart(t, "user-1", "prod-1", 3)

	order, err := f.orderUC.Checkout(ctx, "user-1", CheckoutReq{
		Address:       domain.JSONB{"street": "1 Market St"},
		PaymentMethod: domain.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if order.Status != domain.OrderStatusPending {
		t.Errorf("new order status = %s, want PENDING", order.Status)
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("13.50")) {
		t.Errorf("subtotal = %s, want 13.50", order.Subtotal)
	}
	if !order.Total.Equal(decimal.RequireFromString("28.50")) {
		t.Errorf("total = %s, want 28.50 (subtotal + shipping)", order.Total)
	}
	if len(order.Items) != 1 || !order.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("item snapshot wrong: %+v", order.Items)
	}

	if got := f.inventory.quantity(testWarehouse, "prod-1"); got != 7 {
		t.Errorf("stock after checkout = %d, want 7", got)
	}
	cart, _ := f.orderUC.GetMyCart(ctx, "user-1")
	if len(cart.Items) != 0 {
		t.Errorf("cart should be cleared, has %d items", len(cart.Items))
	}
}

func TestCheckoutAppliesPromotion(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	f.products.add("prod-1", "Milk", "10.00")
	f.inventory.set(testWarehouse, "prod-1", 100)
	f.promos.Create(ctx, &domain.Promotion{
		ID: "promo-1", Code: "TEN", Type: domain.PromotionTypePercentage,
		Value: decimal.RequireFromString("10"), IsActive: true, UsageLimit: 1,
	})
	f.seedCart(t, "user-1", "prod-1", 10)

	order, err := f.orderUC.Checkout(ctx, "user-1", CheckoutReq{
		Address:       domain.JSONB{"street": "x"},
		PaymentMethod: domain.PaymentMethodOnline,
		PromotionCode: "TEN",
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !order.DiscountAmount.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("discount = %s, want 10.00", order.DiscountAmount)
	}
	promo, _ := f.promos.GetByCode(ctx, "TEN")
	if promo.UsedCount != 1 {
		t.Errorf("promotion used count = %d, want 1", promo.UsedCount)
	}

	// The limit is now exhausted; the next checkout must refuse the code.
	f.seedCart(t, "user-2", "prod-1", 1)
	_, err = f.orderUC.Checkout(ctx, "user-2", CheckoutReq{
		Address:       domain.JSONB{"street": "y"},
		PaymentMethod: domain.PaymentMethodCOD,
		PromotionCode: "TEN",
	})
	if err == nil {
		t.Fatal("exhausted promotion should fail checkout")
	}
}

func TestCheckoutInsufficientStockFails(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	f.products.add("prod-1", "Eggs", "5.00")
	f.inventory.set(testWarehouse, "prod-1", 2)
	f.seedCart(t, "user-1", "prod-1", 5)

	_, err := f.orderUC.Checkout(ctx, "user-1", CheckoutReq{
		Address:       domain.JSONB{"street": "x"},
		PaymentMethod: domain.PaymentMethodCOD,
	})
	if err == nil {
		t.Fatal("checkout should fail on insufficient stock")
	}
	// Cart must survive a failed checkout.
	cart, _ := f.orderUC.GetMyCart(ctx, "user-1")
	if len(cart.Items) != 1 {
		t.Errorf("cart should be intact after failure, has %d items", len(cart.Items))
	}
}

func placeOrder(t *testing.T, f *orderFixture, userID, method string) *domain.Order {
	t.Helper()
	f.products.add("prod-x", "Bread", "2.00")
	f.inventory.set(testWarehouse, "prod-x", 50)
	f.seedCart(t, userID, "prod-x", 2)
	order, err := f.orderUC.Checkout(context.Background(), userID, CheckoutReq{
		Address:       domain.JSONB{"street": "x"},
		PaymentMethod: method,
	})
	if err != nil {
		t.Fatalf("placeOrder: %v", err)
	}
	return order
}

func TestUpdateOrderStatusRejectsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	order := placeOrder(t, f, "user-1", domain.PaymentMethodCOD)

	_, err := f.orderUC.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusShipped, "", "admin-1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}

	// The record must be untouched.
	got, _ := f.orderUC.GetOrder(ctx, order.ID)
	if got.Status != domain.OrderStatusPending {
		t.Errorf("status after rejected update = %s, want PENDING", got.Status)
	}
}

func TestUpdateOrderStatusReturnsServerRecord(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	order := placeOrder(t, f, "user-1", domain.PaymentMethodCOD)

	updated, err := f.orderUC.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusConfirmed, "looks good", "admin-1")
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if updated.Status != domain.OrderStatusConfirmed {
		t.Errorf("returned status = %s, want CONFIRMED", updated.Status)
	}

	stored, _ := f.orderUC.GetOrder(ctx, order.ID)
	if stored.Status != updated.Status {
		t.Errorf("returned record diverges from stored: %s vs %s", updated.Status, stored.Status)
	}

	history, _ := f.orderUC.GetOrderHistory(ctx, order.ID)
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	if history[0].NewStatus != domain.OrderStatusConfirmed || history[0].CreatedBy == nil || *history[0].CreatedBy != "admin-1" {
		t.Errorf("history entry wrong: %+v", history[0])
	}
}

func TestCancelRestocksInventory(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	order := placeOrder(t, f, "user-1", domain.PaymentMethodCOD)

	if got := f.inventory.quantity(testWarehouse, "prod-x"); got != 48 {
		t.Fatalf("stock after order = %d, want 48", got)
	}

	if _, err := f.orderUC.CancelOrder(ctx, "user-1", order.ID, "changed my mind"); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if got := f.inventory.quantity(testWarehouse, "prod-x"); got != 50 {
		t.Errorf("stock after cancel = %d, want 50", got)
	}
}

func TestCancelOtherUsersOrderLooksLikeMissing(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	order := placeOrder(t, f, "user-1", domain.PaymentMethodCOD)

	_, err := f.orderUC.CancelOrder(ctx, "user-2", order.ID, "")
	if err == nil || err.Error() != "order not found" {
		t.Fatalf("foreign order must read as not found, got %v", err)
	}
}

func TestSystemSettlesOnlinePending(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	order := placeOrder(t, f, "user-1", domain.PaymentMethodOnline)

	// An operator cannot settle payment.
	if _, err := f.orderUC.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPaid, "", "admin-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("operator settle should be rejected, got %v", err)
	}

	updated, err := f.orderUC.SystemUpdateOrderStatus(ctx, order.ID, domain.OrderStatusPaid, "Payment confirmed")
	if err != nil {
		t.Fatalf("SystemUpdateOrderStatus: %v", err)
	}
	if updated.Status != domain.OrderStatusPaid {
		t.Errorf("status = %s, want PAID", updated.Status)
	}
}
