package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gigmart/internal/models"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// RazorpayClient is the real JSON-over-HTTPS gateway client. Every call has a
// bounded timeout through the underlying http.Client; any transport error,
// timeout or non-2xx answer surfaces as models.ErrGatewayUnavailable so the
// caller knows the order is still PENDING and the attempt is retryable.
type RazorpayClient struct {
	keyID         string
	keySecret     string
	baseURL       string
	webhookSecret string
	httpClient    *http.Client
}

// NewRazorpayClient creates the client from config. A zero timeout falls back
// to 10 seconds.
func NewRazorpayClient(cfg Config) *RazorpayClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &RazorpayClient{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		baseURL:       baseURL,
		webhookSecret: cfg.WebhookSecret,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// KeyID returns the publishable key for the checkout widget.
func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

// createOrderResponse models the loosely-typed order object the gateway
// returns. Only the fields we rely on are declared; everything else is
// ignored at the boundary instead of being passed around as raw maps.
type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type gatewayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens an order on the gateway side. The amount goes out in
// minor units exactly as stored; no unit conversion happens here.
func (c *RazorpayClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	payload := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway order payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway order request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Covers DNS failures, refused connections and client timeouts. The
		// order may or may not exist gateway-side; reconciliation sorts that
		// out later.
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		var gwErr gatewayErrorResponse
		if json.Unmarshal(respBody, &gwErr) == nil && gwErr.Error.Description != "" {
			return nil, fmt.Errorf("%w: %s (%s)", models.ErrGatewayUnavailable, gwErr.Error.Description, gwErr.Error.Code)
		}
		return nil, fmt.Errorf("%w: gateway returned status %d", models.ErrGatewayUnavailable, resp.StatusCode)
	}

	var created createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode gateway order response: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: gateway order response missing id", models.ErrGatewayUnavailable)
	}

	return &Order{ID: created.ID, Amount: created.Amount, Currency: created.Currency}, nil
}

// SignsCallbacks reports whether webhook signatures can be verified.
func (c *RazorpayClient) SignsCallbacks() bool {
	return c.webhookSecret != ""
}

// VerifySignature validates the HMAC the gateway attached to a callback.
func (c *RazorpayClient) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	if c.webhookSecret == "" {
		return false
	}
	return verify(c.webhookSecret, gatewayOrderID, gatewayPaymentID, signature)
}

// orderPaymentsResponse is the loose payment collection the gateway returns
// for an order.
type orderPaymentsResponse struct {
	Items []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"items"`
}

// FetchStatus asks the gateway what actually happened to an order. Used by
// reconciliation when a callback never arrived.
func (c *RazorpayClient) FetchStatus(ctx context.Context, gatewayOrderID string) (*StatusResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/orders/"+gatewayOrderID+"/payments", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway status request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: gateway returned status %d", models.ErrGatewayUnavailable, resp.StatusCode)
	}

	var payments orderPaymentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payments); err != nil {
		return nil, fmt.Errorf("failed to decode gateway payments response: %w", err)
	}

	result := &StatusResult{State: PaymentUnknown}
	for _, p := range payments.Items {
		switch p.Status {
		case "captured":
			// A captured payment wins regardless of earlier failed attempts.
			return &StatusResult{State: PaymentCaptured, PaymentID: p.ID}, nil
		case "failed":
			result = &StatusResult{State: PaymentFailed, PaymentID: p.ID}
		}
	}
	return result, nil
}
