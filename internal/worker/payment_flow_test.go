package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/infrastructure/cache"
	"freshmart-backend/internal/usecase"

	"github.com/shopspring/decimal"
)

// stubOrderRepo holds orders in memory and stubs the cart and query methods
// the flow never touches.
type stubOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	history []domain.OrderHistory
}

func newStubOrderRepo(orders ...*domain.Order) *stubOrderRepo {
	r := &stubOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *stubOrderRepo) CreateOrder(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order not found")
	}
	c := *o
	return &c, nil
}

func (r *stubOrderRepo) GetByOrderNumber(_ context.Context, number string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			c := *o
			return &c, nil
		}
	}
	return nil, fmt.Errorf("order not found")
}

func (r *stubOrderRepo) GetByUserID(_ context.Context, _ string) ([]domain.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) GetAll(_ context.Context, _ domain.OrderFilter) ([]domain.Order, int64, error) {
	return nil, 0, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order not found")
	}
	o.Status = status
	return nil
}

func (r *stubOrderRepo) FindStuckOnline(_ context.Context, olderThan time.Duration) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var out []domain.Order
	for _, o := range r.orders {
		if o.PaymentMethod == domain.PaymentMethodOnline &&
			o.Status == domain.OrderStatusPending && o.CreatedAt.Before(cutoff) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) GetCartByUserID(_ context.Context, _ string) (*domain.Cart, error) {
	return nil, fmt.Errorf("no cart")
}
func (r *stubOrderRepo) CreateCart(_ context.Context, _ *domain.Cart) error { return nil }
func (r *stubOrderRepo) UpsertCartItem(_ context.Context, _, _ string, _ int) error {
	return nil
}
func (r *stubOrderRepo) RemoveCartItem(_ context.Context, _, _ string) error  { return nil }
func (r *stubOrderRepo) ClearCart(_ context.Context, _ string) error          { return nil }
func (r *stubOrderRepo) ClearCartByUserID(_ context.Context, _ string) error  { return nil }

func (r *stubOrderRepo) CreateOrderHistory(_ context.Context, h *domain.OrderHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, *h)
	return nil
}

func (r *stubOrderRepo) GetOrderHistory(_ context.Context, orderID string) ([]domain.OrderHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.OrderHistory
	for _, h := range r.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

type stubInventoryRepo struct{}

func (stubInventoryRepo) CreateDocument(_ context.Context, _ *domain.InventoryDocument) error {
	return nil
}
func (stubInventoryRepo) GetDocumentByID(_ context.Context, _ string) (*domain.InventoryDocument, error) {
	return nil, fmt.Errorf("not found")
}
func (stubInventoryRepo) ListDocuments(_ context.Context, _ domain.InventoryFilter) ([]domain.InventoryDocument, int64, error) {
	return nil, 0, nil
}
func (stubInventoryRepo) GetStockLevel(_ context.Context, _, _ string) (int, error) { return 0, nil }
func (stubInventoryRepo) ListStockLevels(_ context.Context, _ string) ([]domain.StockLevel, error) {
	return nil, nil
}
func (stubInventoryRepo) AdjustStock(_ context.Context, _, _ string, _ int, _, _ string) error {
	return nil
}
func (stubInventoryRepo) ListLedger(_ context.Context, _ domain.InventoryFilter) ([]domain.LedgerEntry, int64, error) {
	return nil, 0, nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// countingGateway answers with programmable provider statuses and counts
// calls.
type countingGateway struct {
	mu          sync.Mutex
	createCalls int
	status      string
	statusErr   error
}

func (g *countingGateway) CreateLink(_ context.Context, order *domain.Order) (*domain.PaymentLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	return &domain.PaymentLink{
		OrderID:   order.ID,
		OrderCode: order.OrderNumber,
		Amount:    order.Total,
		ExpiredAt: time.Now().Add(time.Minute),
	}, nil
}

func (g *countingGateway) GetStatus(_ context.Context, orderCode string) (*domain.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return &domain.PaymentStatus{OrderCode: orderCode, Status: g.status}, nil
}

func (g *countingGateway) CancelLink(_ context.Context, _, _ string) error { return nil }

func (g *countingGateway) setStatus(s string) {
	g.mu.Lock()
	g.status = s
	g.mu.Unlock()
}

func (g *countingGateway) creates() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls
}

type flowFixture struct {
	repo    *stubOrderRepo
	gateway *countingGateway
	manager *FlowManager
}

func newFlowFixture(t *testing.T, pollEvery, countdown time.Duration, orders ...*domain.Order) *flowFixture {
	t.Helper()
	repo := newStubOrderRepo(orders...)
	gateway := &countingGateway{status: domain.ProviderStatusPending}

	orderUC := usecase.NewOrderUsecase(repo, nil, nil, stubInventoryRepo{},
		passthroughTx{}, nil, "wh-1", decimal.Zero)
	memCache := cache.NewMemoryCache(time.Minute, time.Minute)
	paymentUC := usecase.NewPaymentUsecase(gateway, orderUC, memCache, time.Minute)

	return &flowFixture{
		repo:    repo,
		gateway: gateway,
		manager: NewFlowManager(paymentUC, orderUC, gateway, pollEvery, countdown),
	}
}

func onlineOrder(id, user string) *domain.Order {
	return &domain.Order{
		ID:            id,
		OrderNumber:   "FM-" + id,
		UserID:        user,
		Status:        domain.OrderStatusPending,
		PaymentMethod: domain.PaymentMethodOnline,
		Total:         decimal.RequireFromString("42"),
		CreatedAt:     time.Now(),
	}
}

func waitForState(t *testing.T, f *Flow, want FlowState) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("flow never reached %s, stuck at %s", want, f.Snapshot().State)
		case <-time.After(5 * time.Millisecond):
			if f.Snapshot().State == want {
				return
			}
		}
	}
}

func TestFlowSucceedsOnProviderConfirmation(t *testing.T) {
	f := newFlowFixture(t, 10*time.Millisecond, time.Minute, onlineOrder("o1", "u1"))

	flow, err := f.manager.Start(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := flow.Snapshot()
	if snap.State != FlowPending || snap.Link == nil {
		t.Fatalf("fresh flow should be PENDING with a link, got %+v", snap)
	}

	f.gateway.setStatus(domain.ProviderStatusPaid)
	waitForState(t, flow, FlowSucceeded)
	<-flow.Done()

	order, _ := f.repo.GetByID(context.Background(), "o1")
	if order.Status != domain.OrderStatusPaid {
		t.Errorf("order status = %s, want PAID", order.Status)
	}
	if len(f.repo.history) != 1 {
		t.Errorf("success effects ran %d times, want 1", len(f.repo.history))
	}
	if _, ok := f.manager.Get("o1"); ok {
		t.Error("finished flow should leave the registry")
	}
	if got := f.manager.Snapshot("o1").State; got != FlowIdle {
		t.Errorf("registry snapshot after finish = %s, want IDLE", got)
	}
}

func TestFlowSucceedsWhenOrderRecordIsPaid(t *testing.T) {
	f := newFlowFixture(t, 10*time.Millisecond, time.Minute, onlineOrder("o1", "u1"))
	// Keep the provider silent about success.
	f.gateway.statusErr = fmt.Errorf("provider down")

	flow, err := f.manager.Start(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Another actor settles the order out-of-band.
	f.repo.UpdateStatus(context.Background(), "o1", domain.OrderStatusPaid)

	waitForState(t, flow, FlowSucceeded)
	<-flow.Done()

	// The flow must not have re-run the success effects on an already-PAID
	// record, so no history entry exists.
	if len(f.repo.history) != 0 {
		t.Errorf("already-paid order gained %d history entries", len(f.repo.history))
	}
}

func TestFlowFailsOnCountdownExpiry(t *testing.T) {
	f := newFlowFixture(t, 10*time.Millisecond, 50*time.Millisecond, onlineOrder("o1", "u1"))

	flow, err := f.manager.Start(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitForState(t, flow, FlowFailed)
	<-flow.Done()

	snap := flow.Snapshot()
	if snap.FailReason != "payment window expired" {
		t.Errorf("fail reason = %q", snap.FailReason)
	}
	// Expiry alone never touches the order; reconciliation decides later.
	order, _ := f.repo.GetByID(context.Background(), "o1")
	if order.Status != domain.OrderStatusPending {
		t.Errorf("order status = %s, want PENDING", order.Status)
	}
}

func TestFlowForPaidOrderSucceedsImmediately(t *testing.T) {
	order := onlineOrder("o1", "u1")
	order.Status = domain.OrderStatusPaid
	f := newFlowFixture(t, 10*time.Millisecond, time.Minute, order)

	flow, err := f.manager.Start(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-flow.Done()
	if got := flow.Snapshot().State; got != FlowSucceeded {
		t.Errorf("flow state = %s, want SUCCEEDED", got)
	}
	if got := f.gateway.creates(); got != 0 {
		t.Errorf("paid order triggered %d CreateLink calls, want 0", got)
	}
	if _, ok := f.manager.Get("o1"); ok {
		t.Error("settled flow must not stay in the registry")
	}
}

func TestFlowRefusesCashOrdersWithoutProviderCalls(t *testing.T) {
	order := onlineOrder("o1", "u1")
	order.PaymentMethod = domain.PaymentMethodCOD
	f := newFlowFixture(t, 10*time.Millisecond, time.Minute, order)

	if _, err := f.manager.Start(context.Background(), "u1", "o1"); err == nil {
		t.Fatal("COD order must not start a payment flow")
	}
	if got := f.gateway.creates(); got != 0 {
		t.Errorf("provider CreateLink called %d times for a COD order, want 0", got)
	}
}

func TestFlowStartIsIdempotentPerOrder(t *testing.T) {
	f := newFlowFixture(t, time.Hour, time.Hour, onlineOrder("o1", "u1"))

	first, err := f.manager.Start(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := f.manager.Start(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if first != second {
		t.Error("second Start must attach to the running flow")
	}
	if got := f.gateway.creates(); got != 1 {
		t.Errorf("CreateLink called %d times, want 1", got)
	}
	first.Stop()
}

func TestFlowStopTearsDownWithoutDecidingOutcome(t *testing.T) {
	f := newFlowFixture(t, 10*time.Millisecond, time.Minute, onlineOrder("o1", "u1"))

	flow, err := f.manager.Start(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	flow.Stop()

	snap := flow.Snapshot()
	if snap.State != FlowPending {
		t.Errorf("teardown changed state to %s", snap.State)
	}
	order, _ := f.repo.GetByID(context.Background(), "o1")
	if order.Status != domain.OrderStatusPending {
		t.Errorf("teardown changed order status to %s", order.Status)
	}
}
