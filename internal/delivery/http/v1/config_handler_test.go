package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/infrastructure/cache"
)

func TestGetEnumsServesTransitionTables(t *testing.T) {
	h := NewConfigHandler(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	rec := httptest.NewRecorder()
	h.GetEnums(rec, httptest.NewRequest(http.MethodGet, "/api/v1/config/enums", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp enumsResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.OrderStatuses) != 6 {
		t.Errorf("orderStatuses = %v, want all six statuses", resp.OrderStatuses)
	}
	cod, ok := resp.TransitionTables[domain.PaymentMethodCOD]
	if !ok {
		t.Fatal("missing cash-on-delivery transition table")
	}
	if next := cod[domain.OrderStatusShipped]; len(next) != 1 || next[0] != domain.OrderStatusPaid {
		t.Errorf("cod shipped -> %v, want [paid]", next)
	}
	online, ok := resp.TransitionTables[domain.PaymentMethodOnline]
	if !ok {
		t.Fatal("missing online transition table")
	}
	// Operators never see the pending row for online orders, settlement is
	// driven by the payment provider.
	if _, leaked := online[domain.OrderStatusPending]; leaked {
		t.Error("online table must not expose operator transitions from pending")
	}
}

func TestGetEnumsUsesCache(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	h := NewConfigHandler(c, time.Minute)

	rec := httptest.NewRecorder()
	h.GetEnums(rec, httptest.NewRequest(http.MethodGet, "/api/v1/config/enums", nil))

	cached, ok := c.Get(enumsCacheKey)
	if !ok {
		t.Fatal("enums were not cached after first request")
	}
	if _, ok := cached.(*enumsResp); !ok {
		t.Fatalf("cached value has type %T", cached)
	}

	rec = httptest.NewRecorder()
	h.GetEnums(rec, httptest.NewRequest(http.MethodGet, "/api/v1/config/enums", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("cached status = %d, want 200", rec.Code)
	}
}
