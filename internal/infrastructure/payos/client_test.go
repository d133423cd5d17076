package payos

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"freshmart-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const testChecksumKey = "test-checksum"

func expectSignature(t *testing.T, canonical, got string) {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testChecksumKey))
	mac.Write([]byte(canonical))
	if want := hex.EncodeToString(mac.Sum(nil)); got != want {
		t.Errorf("signature = %s, want %s", got, want)
	}
}

func TestCreateLinkSignsAndParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/payment-requests" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "key-1" {
			t.Errorf("x-api-key = %s", got)
		}

		var req createLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		canonical := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%s&returnUrl=%s",
			req.Amount, "https://shop.example", req.Description, req.OrderCode, "https://shop.example")
		expectSignature(t, canonical, req.Signature)

		fmt.Fprintf(w, `{"code":"00","desc":"success","data":{
			"orderCode":%q,"checkoutUrl":"https://pay.example/x","qrCode":"QR",
			"accountNumber":"123","accountName":"FRESHMART","bankName":"TestBank",
			"amount":%d,"description":%q,"expiredAt":1700000000}}`,
			req.OrderCode, req.Amount, req.Description)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key-1", testChecksumKey, "https://shop.example")
	order := &domain.Order{
		ID:          "o1",
		OrderNumber: "FM-ABC123",
		Total:       decimal.RequireFromString("150000"),
	}

	link, err := client.CreateLink(context.Background(), order)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if link.OrderCode != "FM-ABC123" || link.CheckoutURL != "https://pay.example/x" {
		t.Errorf("link wrong: %+v", link)
	}
	if !link.Amount.Equal(decimal.RequireFromString("150000")) {
		t.Errorf("amount = %s", link.Amount)
	}
}

func TestGetStatusParsesPaidAt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/payment-requests/FM-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"code":"00","desc":"success","data":{
			"orderCode":"FM-1","status":"PAID","amountPaid":500,
			"transactionDateTime":"2026-08-01T10:00:00Z"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", testChecksumKey, "https://shop.example")
	status, err := client.GetStatus(context.Background(), "FM-1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Status != "PAID" || status.PaidAt == nil {
		t.Errorf("status wrong: %+v", status)
	}
}

func TestProviderRejectionSurfacesDesc(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"401","desc":"invalid api key"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad", testChecksumKey, "https://shop.example")
	if _, err := client.GetStatus(context.Background(), "FM-1"); err == nil {
		t.Fatal("non-00 envelope must be an error")
	}
}

func TestNon200IsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", testChecksumKey, "https://shop.example")
	if err := client.CancelLink(context.Background(), "FM-1", "test"); err == nil {
		t.Fatal("HTTP 502 must be an error")
	}
}
