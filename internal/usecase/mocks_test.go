package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freshmart-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// --- Order repository mock ---

type mockOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	carts   map[string]*domain.Cart // keyed by user ID
	history []domain.OrderHistory
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[string]*domain.Order),
		carts:  make(map[string]*domain.Cart),
	}
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order not found")
	}
	return copyOrder(o), nil
}

func (m *mockOrderRepo) GetByOrderNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			return copyOrder(o), nil
		}
	}
	return nil, fmt.Errorf("order not found")
}

func (m *mockOrderRepo) GetByUserID(_ context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (m *mockOrderRepo) GetAll(_ context.Context, _ domain.OrderFilter) ([]domain.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		out = append(out, *copyOrder(o))
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order not found")
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (m *mockOrderRepo) FindStuckOnline(_ context.Context, olderThan time.Duration) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var out []domain.Order
	for _, o := range m.orders {
		if o.PaymentMethod == domain.PaymentMethodOnline &&
			o.Status == domain.OrderStatusPending && o.CreatedAt.Before(cutoff) {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (m *mockOrderRepo) GetCartByUserID(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *cart
	c.Items = append([]domain.CartItem(nil), cart.Items...)
	return &c, nil
}

func (m *mockOrderRepo) CreateCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.UserID] = cart
	return nil
}

func (m *mockOrderRepo) UpsertCartItem(_ context.Context, cartID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.ID != cartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity = quantity
				return nil
			}
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        uuid.NewString(),
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
		})
		return nil
	}
	return fmt.Errorf("cart not found")
}

func (m *mockOrderRepo) RemoveCartItem(_ context.Context, cartID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.ID != cartID {
			continue
		}
		items := cart.Items[:0]
		for _, it := range cart.Items {
			if it.ProductID != productID {
				items = append(items, it)
			}
		}
		cart.Items = items
		return nil
	}
	return fmt.Errorf("cart not found")
}

func (m *mockOrderRepo) ClearCart(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.ID == cartID {
			cart.Items = nil
			return nil
		}
	}
	return nil
}

func (m *mockOrderRepo) ClearCartByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cart, ok := m.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

func (m *mockOrderRepo) CreateOrderHistory(_ context.Context, h *domain.OrderHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, *h)
	return nil
}

func (m *mockOrderRepo) GetOrderHistory(_ context.Context, orderID string) ([]domain.OrderHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.OrderHistory
	for _, h := range m.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

// --- Product repository mock ---

type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[string]*domain.Product)}
}

func (m *mockProductRepo) add(id, name string, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = &domain.Product{
		ID:          id,
		Name:        name,
		BasePrice:   decimal.RequireFromString(price),
		StockStatus: domain.StockStatusInStock,
		IsActive:    true,
	}
}

func (m *mockProductRepo) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product not found")
	}
	c := *p
	return &c, nil
}

func (m *mockProductRepo) GetAll(_ context.Context, _ domain.ProductFilter) ([]domain.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *mockProductRepo) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.IsActive = false
	}
	return nil
}

func (m *mockProductRepo) GetCategories(_ context.Context) ([]domain.Category, error) {
	return nil, nil
}

// --- Promotion repository mock ---

type mockPromotionRepo struct {
	mu     sync.Mutex
	promos map[string]*domain.Promotion // keyed by code
}

func newMockPromotionRepo() *mockPromotionRepo {
	return &mockPromotionRepo{promos: make(map[string]*domain.Promotion)}
}

func (m *mockPromotionRepo) Create(_ context.Context, p *domain.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promos[p.Code] = p
	return nil
}

func (m *mockPromotionRepo) GetByID(_ context.Context, id string) (*domain.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.promos {
		if p.ID == id {
			c := *p
			return &c, nil
		}
	}
	return nil, fmt.Errorf("promotion not found")
}

func (m *mockPromotionRepo) GetByCode(_ context.Context, code string) (*domain.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[code]
	if !ok {
		return nil, fmt.Errorf("promotion not found")
	}
	c := *p
	return &c, nil
}

func (m *mockPromotionRepo) GetAll(_ context.Context, _, _ int) ([]domain.Promotion, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Promotion
	for _, p := range m.promos {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *mockPromotionRepo) Update(_ context.Context, p *domain.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promos[p.Code] = p
	return nil
}

func (m *mockPromotionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, p := range m.promos {
		if p.ID == id {
			delete(m.promos, code)
			return nil
		}
	}
	return nil
}

func (m *mockPromotionRepo) IncrementUsage(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.promos {
		if p.ID == id {
			if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
				return fmt.Errorf("promotion usage limit reached")
			}
			p.UsedCount++
			return nil
		}
	}
	return fmt.Errorf("promotion not found")
}

// --- Inventory repository mock ---

type mockInventoryRepo struct {
	mu     sync.Mutex
	stock  map[string]int // warehouseID|productID
	docs   map[string]*domain.InventoryDocument
	ledger []domain.LedgerEntry
}

func newMockInventoryRepo() *mockInventoryRepo {
	return &mockInventoryRepo{
		stock: make(map[string]int),
		docs:  make(map[string]*domain.InventoryDocument),
	}
}

func stockKey(warehouseID, productID string) string {
	return warehouseID + "|" + productID
}

func (m *mockInventoryRepo) set(warehouseID, productID string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[stockKey(warehouseID, productID)] = qty
}

func (m *mockInventoryRepo) quantity(warehouseID, productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[stockKey(warehouseID, productID)]
}

func (m *mockInventoryRepo) AdjustStock(_ context.Context, warehouseID, productID string, delta int, reason, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := stockKey(warehouseID, productID)
	if m.stock[key]+delta < 0 {
		return fmt.Errorf("insufficient stock")
	}
	m.stock[key] += delta
	m.ledger = append(m.ledger, domain.LedgerEntry{
		ID:          uuid.NewString(),
		WarehouseID: warehouseID,
		ProductID:   productID,
		Delta:       delta,
		Reason:      reason,
		Reference:   reference,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (m *mockInventoryRepo) CreateDocument(_ context.Context, doc *domain.InventoryDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *doc
	c.Lines = append([]domain.InventoryLine(nil), doc.Lines...)
	m.docs[doc.ID] = &c
	return nil
}

func (m *mockInventoryRepo) GetDocumentByID(_ context.Context, id string) (*domain.InventoryDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document not found")
	}
	c := *doc
	c.Lines = append([]domain.InventoryLine(nil), doc.Lines...)
	return &c, nil
}

func (m *mockInventoryRepo) ListDocuments(_ context.Context, filter domain.InventoryFilter) ([]domain.InventoryDocument, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InventoryDocument
	for _, doc := range m.docs {
		if filter.Type != "" && doc.Type != filter.Type {
			continue
		}
		out = append(out, *doc)
	}
	return out, int64(len(out)), nil
}

func (m *mockInventoryRepo) ListStockLevels(_ context.Context, warehouseID string) ([]domain.StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StockLevel
	for key, qty := range m.stock {
		out = append(out, domain.StockLevel{WarehouseID: warehouseID, ProductID: key, Quantity: qty})
	}
	return out, nil
}

func (m *mockInventoryRepo) GetStockLevel(_ context.Context, warehouseID, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[stockKey(warehouseID, productID)], nil
}

func (m *mockInventoryRepo) ListLedger(_ context.Context, _ domain.InventoryFilter) ([]domain.LedgerEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LedgerEntry(nil), m.ledger...), int64(len(m.ledger)), nil
}

// --- Transaction manager mock ---

type mockTxManager struct{}

func (mockTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Payment gateway mock ---

type mockGateway struct {
	mu          sync.Mutex
	createCalls int
	statusCalls int

	createFn func(ctx context.Context, order *domain.Order) (*domain.PaymentLink, error)
	statusFn func(ctx context.Context, orderCode string) (*domain.PaymentStatus, error)
	cancelFn func(ctx context.Context, orderCode, reason string) error
}

func (g *mockGateway) CreateLink(ctx context.Context, order *domain.Order) (*domain.PaymentLink, error) {
	g.mu.Lock()
	g.createCalls++
	g.mu.Unlock()
	if g.createFn != nil {
		return g.createFn(ctx, order)
	}
	return &domain.PaymentLink{
		OrderID:     order.ID,
		OrderCode:   order.OrderNumber,
		CheckoutURL: "https://pay.example/" + order.OrderNumber,
		Amount:      order.Total,
		ExpiredAt:   time.Now().Add(15 * time.Minute),
	}, nil
}

func (g *mockGateway) GetStatus(ctx context.Context, orderCode string) (*domain.PaymentStatus, error) {
	g.mu.Lock()
	g.statusCalls++
	g.mu.Unlock()
	if g.statusFn != nil {
		return g.statusFn(ctx, orderCode)
	}
	return &domain.PaymentStatus{OrderCode: orderCode, Status: domain.ProviderStatusPending}, nil
}

func (g *mockGateway) CancelLink(ctx context.Context, orderCode, reason string) error {
	if g.cancelFn != nil {
		return g.cancelFn(ctx, orderCode, reason)
	}
	return nil
}

func (g *mockGateway) creates() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls
}
