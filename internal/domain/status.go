package domain

// Order statuses.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusPaid      = "PAID"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCanceled  = "CANCELED"
)

// Payment methods.
const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "ONLINE"
)

// codTransitions is the operator-facing policy for cash-on-delivery orders.
// A status absent from the map, or mapped to an empty set, is terminal.
var codTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCanceled},
	OrderStatusConfirmed: {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusPaid},
	OrderStatusPaid:      {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCanceled:  {},
}

// onlineTransitions is the operator-facing policy for online-paid orders.
// Operators never move an online order out of PENDING; payment settlement
// does that.
var onlineTransitions = map[string][]string{
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCanceled:  {},
}

// onlineInternal extends the online policy for system actors only: the
// payment watcher settles PENDING to PAID, and reconciliation or the
// customer may abandon an unpaid order.
var onlineInternal = map[string][]string{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCanceled},
}

var validStatuses = map[string]bool{
	OrderStatusPending:   true,
	OrderStatusConfirmed: true,
	OrderStatusPaid:      true,
	OrderStatusShipped:   true,
	OrderStatusDelivered: true,
	OrderStatusCanceled:  true,
}

func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// IsTerminalStatus reports whether no actor can move the order further.
func IsTerminalStatus(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCanceled
}

func tableFor(method string) map[string][]string {
	if method == PaymentMethodOnline {
		return onlineTransitions
	}
	return codTransitions
}

// AllowedNext returns the operator-facing next statuses for an order in the
// given status. The returned slice is a copy; an unknown status yields nil.
func AllowedNext(current, method string) []string {
	next, ok := tableFor(method)[current]
	if !ok {
		return nil
	}
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether current -> next is allowed for the payment
// method. System actors additionally get the internal online transitions.
func CanTransition(current, next, method string, system bool) bool {
	for _, s := range tableFor(method)[current] {
		if s == next {
			return true
		}
	}
	if system && method == PaymentMethodOnline {
		for _, s := range onlineInternal[current] {
			if s == next {
				return true
			}
		}
	}
	return false
}

// TransitionTables exposes the operator-facing policy per payment method, for
// the config endpoint. Internal transitions are deliberately not included.
func TransitionTables() map[string]map[string][]string {
	out := make(map[string]map[string][]string, 2)
	for method, table := range map[string]map[string][]string{
		PaymentMethodCOD:    codTransitions,
		PaymentMethodOnline: onlineTransitions,
	} {
		copied := make(map[string][]string, len(table))
		for status, next := range table {
			ns := make([]string, len(next))
			copy(ns, next)
			copied[status] = ns
		}
		out[method] = copied
	}
	return out
}
