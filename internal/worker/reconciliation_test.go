package worker

import (
	"context"
	"testing"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/infrastructure/cache"
	"freshmart-backend/internal/usecase"

	"github.com/shopspring/decimal"
)

func newReconcilerFixture(t *testing.T, orders ...*domain.Order) (*Reconciler, *stubOrderRepo, *countingGateway) {
	t.Helper()
	repo := newStubOrderRepo(orders...)
	gateway := &countingGateway{status: domain.ProviderStatusPending}

	orderUC := usecase.NewOrderUsecase(repo, nil, nil, stubInventoryRepo{},
		passthroughTx{}, nil, "wh-1", decimal.Zero)
	paymentUC := usecase.NewPaymentUsecase(gateway, orderUC,
		cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	return NewReconciler(repo, orderUC, paymentUC, gateway, time.Minute, 30*time.Minute), repo, gateway
}

func staleOnlineOrder(id, user string) *domain.Order {
	o := onlineOrder(id, user)
	o.CreatedAt = time.Now().Add(-2 * time.Hour)
	return o
}

func TestSweepSettlesPaidOrder(t *testing.T) {
	r, repo, gateway := newReconcilerFixture(t, staleOnlineOrder("o1", "u1"))
	gateway.setStatus(domain.ProviderStatusPaid)

	if err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	order, _ := repo.GetByID(context.Background(), "o1")
	if order.Status != domain.OrderStatusPaid {
		t.Errorf("order status = %s, want PAID", order.Status)
	}
}

func TestSweepCancelsExpiredPayment(t *testing.T) {
	r, repo, gateway := newReconcilerFixture(t, staleOnlineOrder("o1", "u1"))
	gateway.setStatus(domain.ProviderStatusExpired)

	if err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	order, _ := repo.GetByID(context.Background(), "o1")
	if order.Status != domain.OrderStatusCanceled {
		t.Errorf("order status = %s, want CANCELED", order.Status)
	}
}

func TestSweepLeavesPendingAndFreshOrdersAlone(t *testing.T) {
	stale := staleOnlineOrder("o1", "u1")
	fresh := onlineOrder("o2", "u1")
	r, repo, gateway := newReconcilerFixture(t, stale, fresh)
	// Provider still shows the stale order as pending.
	gateway.setStatus(domain.ProviderStatusPending)

	if err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	for _, id := range []string{"o1", "o2"} {
		order, _ := repo.GetByID(context.Background(), id)
		if order.Status != domain.OrderStatusPending {
			t.Errorf("order %s status = %s, want PENDING", id, order.Status)
		}
	}
}
