package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"freshmart-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, status, payment_method, subtotal,
	discount_amount, shipping_fee, total, promotion_code, shipping_address,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var subtotal, discount, shipping, total pgtype.Numeric
	var address []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentMethod,
		&subtotal, &discount, &shipping, &total, &o.PromotionCode, &address,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Subtotal = numericToDecimal(subtotal)
	o.DiscountAmount = numericToDecimal(discount)
	o.ShippingFee = numericToDecimal(shipping)
	o.Total = numericToDecimal(total)
	if len(address) > 0 {
		var addr domain.JSONB
		if err := json.Unmarshal(address, &addr); err == nil {
			o.ShippingAddress = addr
		}
	}
	return &o, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := q(ctx, r.db).Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		var price pgtype.Numeric
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &price); err != nil {
			return nil, err
		}
		it.UnitPrice = numericToDecimal(price)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("invalid shipping address: %w", err)
	}

	_, err = q(ctx, r.db).Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, status, payment_method,
			subtotal, discount_amount, shipping_fee, total, promotion_code, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		order.ID, order.OrderNumber, order.UserID, order.Status, order.PaymentMethod,
		decimalToNumeric(order.Subtotal), decimalToNumeric(order.DiscountAmount),
		decimalToNumeric(order.ShippingFee), decimalToNumeric(order.Total),
		order.PromotionCode, address)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = q(ctx, r.db).Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, order.ID, item.ProductID, item.ProductName, item.Quantity,
			decimalToNumeric(item.UnitPrice))
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := q(ctx, r.db).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order not found")
		}
		return nil, err
	}
	order.Items, err = r.loadItems(ctx, order.ID)
	return order, err
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	row := q(ctx, r.db).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order not found")
		}
		return nil, err
	}
	order.Items, err = r.loadItems(ctx, order.ID)
	return order, err
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := q(ctx, r.db).Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items, err = r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	idx := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.PaymentMethod != "" {
		where = append(where, fmt.Sprintf("payment_method = $%d", idx))
		args = append(args, filter.PaymentMethod)
		idx++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("order_number ILIKE $%d", idx))
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	err := q(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, idx, idx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items, err = r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := q(ctx, r.db).Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

// FindStuckOnline returns ONLINE orders still PENDING past the given age, for
// reconciliation against the payment provider.
func (r *orderRepository) FindStuckOnline(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	cutoff := time.Now().Add(-olderThan)
	rows, err := q(ctx, r.db).Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE payment_method = $1 AND status = $2 AND created_at < $3
		 ORDER BY created_at`,
		domain.PaymentMethodOnline, domain.OrderStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// --- Cart ---

func (r *orderRepository) GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := q(ctx, r.db).QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}

	rows, err := q(ctx, r.db).Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, p.name, ci.quantity,
		       COALESCE(p.sale_price, p.base_price)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 ORDER BY ci.created_at`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.CartItem
		var price pgtype.Numeric
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.Quantity, &price); err != nil {
			return nil, err
		}
		it.UnitPrice = numericToDecimal(price)
		cart.Items = append(cart.Items, it)
	}
	return &cart, rows.Err()
}

func (r *orderRepository) CreateCart(ctx context.Context, cart *domain.Cart) error {
	_, err := q(ctx, r.db).Exec(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2)`, cart.ID, cart.UserID)
	return err
}

func (r *orderRepository) UpsertCartItem(ctx context.Context, cartID, productID string, quantity int) error {
	_, err := q(ctx, r.db).Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = $3, updated_at = NOW()`,
		cartID, productID, quantity)
	return err
}

func (r *orderRepository) RemoveCartItem(ctx context.Context, cartID, productID string) error {
	tag, err := q(ctx, r.db).Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item not in cart")
	}
	return nil
}

func (r *orderRepository) ClearCart(ctx context.Context, cartID string) error {
	_, err := q(ctx, r.db).Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

func (r *orderRepository) ClearCartByUserID(ctx context.Context, userID string) error {
	_, err := q(ctx, r.db).Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`, userID)
	return err
}

// --- History ---

func (r *orderRepository) CreateOrderHistory(ctx context.Context, history *domain.OrderHistory) error {
	_, err := q(ctx, r.db).Exec(ctx, `
		INSERT INTO order_history (id, order_id, previous_status, new_status, reason, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)`,
		history.OrderID, history.PreviousStatus, history.NewStatus, history.Reason, history.CreatedBy)
	return err
}

func (r *orderRepository) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	rows, err := q(ctx, r.db).Query(ctx, `
		SELECT id, order_id, previous_status, new_status, reason, created_by, created_at
		FROM order_history WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.OrderHistory
	for rows.Next() {
		var h domain.OrderHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.PreviousStatus, &h.NewStatus, &h.Reason, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
