package worker

import (
	"context"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/logger"
)

// Reconciler sweeps online orders that never left PENDING and settles them
// against the provider. It catches payments whose flow goroutine died (page
// closed, server restart) before the success effects ran.
type Reconciler struct {
	orders   domain.OrderRepository
	orderUC  *usecase.OrderUsecase
	payments *usecase.PaymentUsecase
	gateway  domain.PaymentGateway

	every time.Duration
	after time.Duration
}

func NewReconciler(orders domain.OrderRepository, orderUC *usecase.OrderUsecase, payments *usecase.PaymentUsecase, gateway domain.PaymentGateway, every, after time.Duration) *Reconciler {
	return &Reconciler{
		orders:   orders,
		orderUC:  orderUC,
		payments: payments,
		gateway:  gateway,
		every:    every,
		after:    after,
	}
}

// Run blocks until ctx is canceled, sweeping on a fixed interval.
func (r *Reconciler) Run(ctx context.Context) {
	logger.Get().Info().
		Dur("every", r.every).
		Dur("after", r.after).
		Msg("Payment reconciler started")

	ticker := time.NewTicker(r.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Get().Info().Msg("Payment reconciler stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				logger.Get().Error().Err(err).Msg("Reconciliation sweep failed")
			}
		}
	}
}

// Sweep settles every stuck online order once. An error on one order does not
// stop the rest of the batch.
func (r *Reconciler) Sweep(ctx context.Context) error {
	stuck, err := r.orders.FindStuckOnline(ctx, r.after)
	if err != nil {
		return err
	}

	for i := range stuck {
		order := &stuck[i]
		if err := r.settle(ctx, order); err != nil {
			logger.Get().Warn().Err(err).
				Str("order_id", order.ID).
				Str("order_number", order.OrderNumber).
				Msg("Failed to reconcile order")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (r *Reconciler) settle(ctx context.Context, order *domain.Order) error {
	status, err := r.gateway.GetStatus(ctx, order.OrderNumber)
	if err != nil {
		return err
	}

	switch {
	case domain.IsProviderSuccess(status.Status):
		logger.Get().Info().
			Str("order_number", order.OrderNumber).
			Msg("Reconciler found settled payment, marking order paid")
		return r.payments.MarkPaid(ctx, order.ID)
	case status.Status == domain.ProviderStatusCanceled || status.Status == domain.ProviderStatusExpired:
		logger.Get().Info().
			Str("order_number", order.OrderNumber).
			Str("provider_status", status.Status).
			Msg("Reconciler canceling abandoned order")
		_, err := r.orderUC.SystemUpdateOrderStatus(ctx, order.ID, domain.OrderStatusCanceled, "Payment "+status.Status)
		return err
	default:
		// Still pending at the provider, leave it for the next sweep.
		return nil
	}
}
