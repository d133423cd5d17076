package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/logger"
)

// FlowState is the lifecycle of one payment screen session.
type FlowState string

const (
	FlowIdle      FlowState = "IDLE"
	FlowLoading   FlowState = "LOADING"
	FlowPending   FlowState = "PENDING"
	FlowSucceeded FlowState = "SUCCEEDED"
	FlowFailed    FlowState = "FAILED"
)

// FlowSnapshot is the read model handlers serve while a flow is running.
type FlowSnapshot struct {
	OrderID          string              `json:"orderId"`
	State            FlowState           `json:"state"`
	Link             *domain.PaymentLink `json:"link,omitempty"`
	FailReason       string              `json:"failReason,omitempty"`
	SecondsRemaining int                 `json:"secondsRemaining"`
}

// Flow watches one online order until its payment settles, fails, or the
// countdown runs out. It owns a single polling goroutine; success effects run
// at most once even if the provider and the order record confirm on the same
// tick.
type Flow struct {
	orderID  string
	payments *usecase.PaymentUsecase
	orders   *usecase.OrderUsecase
	gateway  domain.PaymentGateway

	pollEvery time.Duration

	mu         sync.Mutex
	state      FlowState
	link       *domain.PaymentLink
	failReason string
	deadline   time.Time

	cancel  context.CancelFunc
	done    chan struct{}
	succeed sync.Once
	finish  func()
}

func (f *Flow) setState(s FlowState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Flow) fail(reason string) {
	f.mu.Lock()
	if f.state != FlowSucceeded {
		f.state = FlowFailed
		f.failReason = reason
	}
	f.mu.Unlock()
}

// Snapshot returns the current state without blocking the poll loop.
func (f *Flow) Snapshot() FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := FlowSnapshot{
		OrderID:    f.orderID,
		State:      f.state,
		Link:       f.link,
		FailReason: f.failReason,
	}
	if f.state == FlowPending {
		if remaining := time.Until(f.deadline); remaining > 0 {
			snap.SecondsRemaining = int(remaining.Seconds())
		}
	}
	return snap
}

// Stop tears the flow down without deciding the payment outcome. A flow that
// already reached a terminal state is left as-is; a flow still resolving its
// link has no poller to stop yet.
func (f *Flow) Stop() {
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-f.done
}

// Done closes when the polling goroutine has exited.
func (f *Flow) Done() <-chan struct{} { return f.done }

func (f *Flow) run(ctx context.Context) {
	defer close(f.done)
	defer f.finish()

	ticker := time.NewTicker(f.pollEvery)
	defer ticker.Stop()

	expired := time.NewTimer(time.Until(f.deadline))
	defer expired.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-expired.C:
			f.fail("payment window expired")
			logger.Get().Info().Str("order_id", f.orderID).Msg("Payment flow expired")
			return
		case <-ticker.C:
			if done := f.poll(ctx); done {
				return
			}
		}
	}
}

// poll runs both lookups concurrently and reconciles their answers. Either
// source alone may confirm success; a failed lookup on one side never blocks
// the other. Returns true when the flow reached a terminal state.
func (f *Flow) poll(ctx context.Context) bool {
	var (
		wg        sync.WaitGroup
		status    *domain.PaymentStatus
		statusErr error
		order     *domain.Order
		orderErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		status, statusErr = f.gateway.GetStatus(ctx, f.link.OrderCode)
	}()
	go func() {
		defer wg.Done()
		order, orderErr = f.orders.GetOrder(ctx, f.orderID)
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return true
	}
	if statusErr != nil {
		logger.Get().Warn().Err(statusErr).Str("order_id", f.orderID).Msg("Payment status poll failed")
	}
	if orderErr != nil {
		logger.Get().Warn().Err(orderErr).Str("order_id", f.orderID).Msg("Order poll failed")
	}

	alreadyPaid := order != nil && order.Status == domain.OrderStatusPaid
	if alreadyPaid || (status != nil && domain.IsProviderSuccess(status.Status)) {
		f.finishSuccess(ctx, alreadyPaid)
		return true
	}
	if order != nil && order.Status == domain.OrderStatusCanceled {
		f.fail("order was canceled")
		return true
	}
	if status != nil && (status.Status == domain.ProviderStatusCanceled || status.Status == domain.ProviderStatusExpired) {
		f.fail("payment " + status.Status)
		return true
	}
	return false
}

// finishSuccess applies the payment-success effects exactly once. When the
// order record is already PAID another actor ran the effects; the flow only
// flips its own state.
func (f *Flow) finishSuccess(ctx context.Context, alreadyPaid bool) {
	f.succeed.Do(func() {
		if !alreadyPaid {
			if err := f.payments.MarkPaid(ctx, f.orderID); err != nil {
				logger.Get().Error().Err(err).
					Str("order_id", f.orderID).
					Msg("Failed to apply payment success effects")
			}
		}
		f.setState(FlowSucceeded)
		logger.Get().Info().Str("order_id", f.orderID).Msg("Payment flow succeeded")
	})
}

// FlowManager keeps at most one live flow per order. Mounting the payment
// screen twice attaches to the running flow instead of starting a second
// poller against the same order.
type FlowManager struct {
	payments  *usecase.PaymentUsecase
	orders    *usecase.OrderUsecase
	gateway   domain.PaymentGateway
	pollEvery time.Duration
	countdown time.Duration

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewFlowManager(payments *usecase.PaymentUsecase, orders *usecase.OrderUsecase, gateway domain.PaymentGateway, pollEvery, countdown time.Duration) *FlowManager {
	return &FlowManager{
		payments:  payments,
		orders:    orders,
		gateway:   gateway,
		pollEvery: pollEvery,
		countdown: countdown,
		flows:     make(map[string]*Flow),
	}
}

// Start begins (or attaches to) the payment flow for the user's order. The
// order must be an open online order; anything else fails before a single
// provider call is made. The flow is registered in LOADING state before the
// link is resolved, so a concurrent mount attaches instead of racing a second
// creation.
func (m *FlowManager) Start(ctx context.Context, userID, orderID string) (*Flow, error) {
	m.mu.Lock()
	if f, ok := m.flows[orderID]; ok {
		m.mu.Unlock()
		return f, nil
	}
	f := &Flow{
		orderID:   orderID,
		payments:  m.payments,
		orders:    m.orders,
		gateway:   m.gateway,
		pollEvery: m.pollEvery,
		state:     FlowLoading,
		done:      make(chan struct{}),
		finish:    func() { m.remove(orderID) },
	}
	m.flows[orderID] = f
	m.mu.Unlock()

	abort := func(err error) (*Flow, error) {
		f.fail(err.Error())
		m.remove(orderID)
		close(f.done)
		return nil, err
	}

	order, err := m.orders.GetMyOrder(ctx, userID, orderID)
	if err != nil {
		return abort(err)
	}
	if order.PaymentMethod != domain.PaymentMethodOnline {
		return abort(fmt.Errorf("order %s is not payable online", order.OrderNumber))
	}
	if domain.IsTerminalStatus(order.Status) {
		return abort(fmt.Errorf("order %s is closed", order.OrderNumber))
	}
	if order.Status == domain.OrderStatusPaid {
		// Nothing to poll for; hand back an already-settled flow.
		f.setState(FlowSucceeded)
		m.remove(orderID)
		close(f.done)
		return f, nil
	}

	// Link creation is at-most-once on its own lock, so even if a stale
	// flow raced the registration above, the provider sees one call.
	link, err := m.payments.EnsureLink(ctx, order)
	if err != nil {
		return abort(err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f.mu.Lock()
	f.link = link
	f.deadline = time.Now().Add(m.countdown)
	f.cancel = cancel
	f.state = FlowPending
	f.mu.Unlock()

	go f.run(runCtx)
	return f, nil
}

// Get returns the live flow for an order, if any.
func (m *FlowManager) Get(orderID string) (*Flow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[orderID]
	return f, ok
}

// Snapshot reports the flow state for an order. An order with no live flow is
// IDLE; callers consult the order record for the durable outcome.
func (m *FlowManager) Snapshot(orderID string) FlowSnapshot {
	if f, ok := m.Get(orderID); ok {
		return f.Snapshot()
	}
	return FlowSnapshot{OrderID: orderID, State: FlowIdle}
}

// Cancel stops the flow for an order, if one is running.
func (m *FlowManager) Cancel(orderID string) {
	m.mu.Lock()
	f, ok := m.flows[orderID]
	m.mu.Unlock()
	if ok {
		f.Stop()
	}
}

// Shutdown stops every live flow and waits for their goroutines.
func (m *FlowManager) Shutdown() {
	m.mu.Lock()
	flows := make([]*Flow, 0, len(m.flows))
	for _, f := range m.flows {
		flows = append(flows, f)
	}
	m.mu.Unlock()

	for _, f := range flows {
		f.Stop()
	}
}

func (m *FlowManager) remove(orderID string) {
	m.mu.Lock()
	delete(m.flows, orderID)
	m.mu.Unlock()
}
