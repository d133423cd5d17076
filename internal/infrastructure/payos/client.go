package payos

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"freshmart-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Client talks to the PayOS-style payment provider. It implements
// domain.PaymentGateway. Requests are single-attempt; the caller decides
// whether an operation is worth repeating.
type Client struct {
	baseURL     string
	apiKey      string
	checksumKey string
	returnURL   string
	httpClient  *http.Client
}

func NewClient(baseURL, apiKey, checksumKey, returnURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		checksumKey: checksumKey,
		returnURL:   returnURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createLinkRequest struct {
	OrderCode   string `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

type linkData struct {
	OrderCode     string `json:"orderCode"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	BankName      string `json:"bankName"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	ExpiredAt     int64  `json:"expiredAt"`
}

type statusData struct {
	OrderCode  string `json:"orderCode"`
	Status     string `json:"status"`
	AmountPaid int64  `json:"amountPaid"`
	PaidAt     string `json:"transactionDateTime"`
}

type envelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

// sign produces the HMAC-SHA256 checksum the provider requires over the
// canonical key=value string.
func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.checksumKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) CreateLink(ctx context.Context, order *domain.Order) (*domain.PaymentLink, error) {
	amount := order.Total.Round(0).IntPart()
	description := fmt.Sprintf("FreshMart %s", order.OrderNumber)

	canonical := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%s&returnUrl=%s",
		amount, c.returnURL, description, order.OrderNumber, c.returnURL)

	req := createLinkRequest{
		OrderCode:   order.OrderNumber,
		Amount:      amount,
		Description: description,
		ReturnURL:   c.returnURL,
		CancelURL:   c.returnURL,
		Signature:   c.sign(canonical),
	}

	var data linkData
	if err := c.do(ctx, http.MethodPost, "/v2/payment-requests", req, &data); err != nil {
		return nil, err
	}

	return &domain.PaymentLink{
		OrderID:       order.ID,
		OrderCode:     data.OrderCode,
		CheckoutURL:   data.CheckoutURL,
		QRCode:        data.QRCode,
		AccountNumber: data.AccountNumber,
		AccountName:   data.AccountName,
		BankName:      data.BankName,
		Amount:        decimal.NewFromInt(data.Amount),
		Description:   data.Description,
		ExpiredAt:     time.Unix(data.ExpiredAt, 0),
	}, nil
}

func (c *Client) GetStatus(ctx context.Context, orderCode string) (*domain.PaymentStatus, error) {
	var data statusData
	path := fmt.Sprintf("/v2/payment-requests/%s", orderCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}

	status := &domain.PaymentStatus{
		OrderCode:  data.OrderCode,
		Status:     data.Status,
		AmountPaid: decimal.NewFromInt(data.AmountPaid),
	}
	if data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
			status.PaidAt = &t
		}
	}
	return status, nil
}

func (c *Client) CancelLink(ctx context.Context, orderCode, reason string) error {
	body := map[string]string{"cancellationReason": reason}
	path := fmt.Sprintf("/v2/payment-requests/%s/cancel", orderCode)
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payment provider error (status %d): %s", resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("malformed provider response: %w", err)
	}
	if env.Code != "00" {
		return fmt.Errorf("payment provider rejected request: %s", env.Desc)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("malformed provider payload: %w", err)
		}
	}
	return nil
}
