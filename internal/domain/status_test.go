package domain

import (
	"reflect"
	"testing"
)

func TestTransitionTablesAreClosed(t *testing.T) {
	for method, table := range TransitionTables() {
		for status, nexts := range table {
			if !IsValidStatus(status) {
				t.Errorf("%s table keys unknown status %q", method, status)
			}
			for _, next := range nexts {
				if !IsValidStatus(next) {
					t.Errorf("%s: %s allows unknown status %q", method, status, next)
				}
			}
		}
	}
}

func TestTerminalStatusesAllowNothing(t *testing.T) {
	for _, method := range []string{PaymentMethodCOD, PaymentMethodOnline} {
		for _, status := range []string{OrderStatusDelivered, OrderStatusCanceled} {
			if next := AllowedNext(status, method); len(next) != 0 {
				t.Errorf("%s %s should be terminal, got next %v", method, status, next)
			}
			if !IsTerminalStatus(status) {
				t.Errorf("%s should be terminal", status)
			}
		}
	}
}

func TestCODHappyPath(t *testing.T) {
	path := []string{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusShipped,
		OrderStatusPaid,
		OrderStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1], PaymentMethodCOD, false) {
			t.Errorf("COD should allow %s -> %s", path[i], path[i+1])
		}
	}
	// No skipping ahead.
	if CanTransition(OrderStatusPending, OrderStatusShipped, PaymentMethodCOD, false) {
		t.Error("COD must not allow PENDING -> SHIPPED")
	}
	if CanTransition(OrderStatusConfirmed, OrderStatusCanceled, PaymentMethodCOD, false) {
		t.Error("COD must not allow CONFIRMED -> CANCELED")
	}
}

func TestOnlinePendingIsSystemOnly(t *testing.T) {
	// Operators cannot move an online order out of PENDING.
	if got := AllowedNext(OrderStatusPending, PaymentMethodOnline); len(got) != 0 {
		t.Errorf("operators should see no transitions from ONLINE PENDING, got %v", got)
	}
	if CanTransition(OrderStatusPending, OrderStatusPaid, PaymentMethodOnline, false) {
		t.Error("operator must not move ONLINE PENDING -> PAID")
	}

	// System actors settle or abandon it.
	if !CanTransition(OrderStatusPending, OrderStatusPaid, PaymentMethodOnline, true) {
		t.Error("system must move ONLINE PENDING -> PAID")
	}
	if !CanTransition(OrderStatusPending, OrderStatusCanceled, PaymentMethodOnline, true) {
		t.Error("system must move ONLINE PENDING -> CANCELED")
	}
	// But the system flag grants nothing beyond PENDING.
	if CanTransition(OrderStatusPaid, OrderStatusDelivered, PaymentMethodOnline, true) {
		t.Error("system flag must not bypass the operator table after PENDING")
	}
}

func TestAllowedNextIsDeterministicCopy(t *testing.T) {
	first := AllowedNext(OrderStatusPending, PaymentMethodCOD)
	second := AllowedNext(OrderStatusPending, PaymentMethodCOD)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same inputs gave %v then %v", first, second)
	}

	// Mutating the returned slice must not corrupt the policy.
	first[0] = "BOGUS"
	if got := AllowedNext(OrderStatusPending, PaymentMethodCOD); reflect.DeepEqual(got, first) {
		t.Error("AllowedNext must return a copy")
	}

	if got := AllowedNext("NO_SUCH_STATUS", PaymentMethodCOD); got != nil {
		t.Errorf("unknown status should yield nil, got %v", got)
	}
}
