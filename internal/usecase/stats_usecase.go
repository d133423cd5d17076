package usecase

import (
	"context"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/cache"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const statsCacheTTL = 5 * time.Minute

// StatsUsecase answers the admin dashboard aggregates. It queries the pool
// directly; these are read-only reporting queries with no domain behavior.
type StatsUsecase struct {
	db    *pgxpool.Pool
	cache cache.CacheService
}

func NewStatsUsecase(db *pgxpool.Pool, c cache.CacheService) *StatsUsecase {
	return &StatsUsecase{db: db, cache: c}
}

type RevenueKPIs struct {
	TotalOrders    int64           `json:"totalOrders"`
	PendingOrders  int64           `json:"pendingOrders"`
	RevenueToday   decimal.Decimal `json:"revenueToday"`
	Revenue30Days  decimal.Decimal `json:"revenue30Days"`
	AverageOrder   decimal.Decimal `json:"averageOrder"`
	CanceledOrders int64           `json:"canceledOrders"`
}

type DailyRevenue struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type LowStockRow struct {
	WarehouseID string `json:"warehouseId"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

func (u *StatsUsecase) GetKPIs(ctx context.Context) (*RevenueKPIs, error) {
	if v, ok := u.cache.Get("stats:kpis"); ok {
		if kpis, ok := v.(*RevenueKPIs); ok {
			return kpis, nil
		}
	}

	var kpis RevenueKPIs
	var today, month, avg pgtype.Numeric
	err := u.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COALESCE(SUM(total) FILTER (WHERE status NOT IN ($2) AND created_at >= CURRENT_DATE), 0),
			COALESCE(SUM(total) FILTER (WHERE status NOT IN ($2) AND created_at >= CURRENT_DATE - INTERVAL '30 days'), 0),
			COALESCE(AVG(total) FILTER (WHERE status NOT IN ($2)), 0)
		FROM orders`,
		domain.OrderStatusPending, domain.OrderStatusCanceled).
		Scan(&kpis.TotalOrders, &kpis.PendingOrders, &kpis.CanceledOrders, &today, &month, &avg)
	if err != nil {
		return nil, err
	}
	kpis.RevenueToday = numericDec(today)
	kpis.Revenue30Days = numericDec(month)
	kpis.AverageOrder = numericDec(avg).Round(2)

	u.cache.Set("stats:kpis", &kpis, statsCacheTTL)
	return &kpis, nil
}

func (u *StatsUsecase) GetDailyRevenue(ctx context.Context, days int) ([]DailyRevenue, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	rows, err := u.db.Query(ctx, `
		SELECT created_at::date::text, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE status != $1 AND created_at >= CURRENT_DATE - $2::int
		GROUP BY created_at::date
		ORDER BY created_at::date`,
		domain.OrderStatusCanceled, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []DailyRevenue
	for rows.Next() {
		var d DailyRevenue
		var revenue pgtype.Numeric
		if err := rows.Scan(&d.Date, &d.Orders, &revenue); err != nil {
			return nil, err
		}
		d.Revenue = numericDec(revenue)
		series = append(series, d)
	}
	return series, rows.Err()
}

func (u *StatsUsecase) GetLowStock(ctx context.Context, threshold int) ([]LowStockRow, error) {
	if threshold <= 0 {
		threshold = 10
	}
	rows, err := u.db.Query(ctx, `
		SELECT sl.warehouse_id, sl.product_id, p.name, sl.quantity
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		WHERE sl.quantity <= $1
		ORDER BY sl.quantity`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockRow
	for rows.Next() {
		var r LowStockRow
		if err := rows.Scan(&r.WarehouseID, &r.ProductID, &r.ProductName, &r.Quantity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func numericDec(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
