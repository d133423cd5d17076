package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/cache"
	"freshmart-backend/pkg/logger"
)

const (
	linkCachePrefix   = "payment_link:"
	fromPaymentPrefix = "from_payment:"
	fromPaymentTTL    = 5 * time.Minute
)

type PaymentUsecase struct {
	gateway domain.PaymentGateway
	orderUC *OrderUsecase
	cache   cache.CacheService
	linkTTL time.Duration

	// creating guards link creation so a second request for the same order
	// waits for (and then reuses) the first one instead of minting a
	// duplicate provider link.
	mu       sync.Mutex
	creating map[string]*sync.Mutex
}

func NewPaymentUsecase(gateway domain.PaymentGateway, orderUC *OrderUsecase, c cache.CacheService, linkTTL time.Duration) *PaymentUsecase {
	return &PaymentUsecase{
		gateway:  gateway,
		orderUC:  orderUC,
		cache:    c,
		linkTTL:  linkTTL,
		creating: make(map[string]*sync.Mutex),
	}
}

func (u *PaymentUsecase) orderLock(orderID string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	m, ok := u.creating[orderID]
	if !ok {
		m = &sync.Mutex{}
		u.creating[orderID] = m
	}
	return m
}

// CachedLink returns the previously created link for the order, if any.
func (u *PaymentUsecase) CachedLink(orderID string) (*domain.PaymentLink, bool) {
	if v, ok := u.cache.Get(linkCachePrefix + orderID); ok {
		if link, ok := v.(*domain.PaymentLink); ok {
			return link, true
		}
	}
	return nil, false
}

// EnsureLink returns the order's payment link, creating it at most once. A
// reload or a second concurrent mount reuses the cached payload rather than
// asking the provider for a new one.
func (u *PaymentUsecase) EnsureLink(ctx context.Context, order *domain.Order) (*domain.PaymentLink, error) {
	if order.PaymentMethod != domain.PaymentMethodOnline {
		return nil, fmt.Errorf("order %s is not payable online", order.OrderNumber)
	}
	if domain.IsTerminalStatus(order.Status) {
		return nil, fmt.Errorf("order %s is closed", order.OrderNumber)
	}

	if link, ok := u.CachedLink(order.ID); ok {
		return link, nil
	}

	lock := u.orderLock(order.ID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the lock: a concurrent caller may have created it.
	if link, ok := u.CachedLink(order.ID); ok {
		return link, nil
	}

	link, err := u.gateway.CreateLink(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}
	u.cache.Set(linkCachePrefix+order.ID, link, u.linkTTL)

	logger.Get().Info().
		Str("order_id", order.ID).
		Str("order_code", link.OrderCode).
		Msg("Payment link created")
	return link, nil
}

// GetProviderStatus polls the provider and, on a terminal-success status,
// promotes the matching order to PAID with its success effects.
func (u *PaymentUsecase) GetProviderStatus(ctx context.Context, orderCode string) (*domain.PaymentStatus, error) {
	status, err := u.gateway.GetStatus(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if domain.IsProviderSuccess(status.Status) {
		order, err := u.orderUC.orderRepo.GetByOrderNumber(ctx, orderCode)
		if err == nil && order.Status == domain.OrderStatusPending {
			if err := u.MarkPaid(ctx, order.ID); err != nil {
				logger.Get().Error().Err(err).
					Str("order_code", orderCode).
					Msg("Failed to mark order paid after provider confirmation")
			}
		}
	}
	return status, nil
}

// MarkPaid applies the payment-success effects exactly once: order to PAID,
// cart cleared, cached link dropped, "came from payment" marker set.
func (u *PaymentUsecase) MarkPaid(ctx context.Context, orderID string) error {
	order, err := u.orderUC.SystemUpdateOrderStatus(ctx, orderID, domain.OrderStatusPaid, "Payment confirmed by provider")
	if err != nil {
		return err
	}

	if err := u.orderUC.orderRepo.ClearCartByUserID(ctx, order.UserID); err != nil {
		logger.Get().Warn().Err(err).Str("order_id", orderID).Msg("Failed to clear cart after payment")
	}
	u.cache.Delete(linkCachePrefix + orderID)
	u.cache.Set(fromPaymentPrefix+orderID, true, fromPaymentTTL)
	return nil
}

// CameFromPayment reports and consumes the post-payment marker for an order.
func (u *PaymentUsecase) CameFromPayment(orderID string) bool {
	key := fromPaymentPrefix + orderID
	if _, ok := u.cache.Get(key); ok {
		u.cache.Delete(key)
		return true
	}
	return false
}

// CancelPayment cancels the provider link (best effort) and the order itself.
func (u *PaymentUsecase) CancelPayment(ctx context.Context, userID, orderID, reason string) (*domain.Order, error) {
	order, err := u.orderUC.GetMyOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if link, ok := u.CachedLink(order.ID); ok {
		if err := u.gateway.CancelLink(ctx, link.OrderCode, reason); err != nil {
			logger.Get().Warn().Err(err).
				Str("order_id", orderID).
				Msg("Failed to cancel provider payment link")
		}
	}
	u.cache.Delete(linkCachePrefix + orderID)

	return u.orderUC.CancelOrder(ctx, userID, orderID, reason)
}
