package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gigmart/internal/gateway"
	"gigmart/internal/models"

	"github.com/stretchr/testify/assert"
)

func newTestClient(baseURL string) *gateway.RazorpayClient {
	return gateway.NewRazorpayClient(gateway.Config{
		KeyID:         "rzp_test_key",
		KeySecret:     "rzp_test_secret",
		BaseURL:       baseURL,
		WebhookSecret: "webhook_secret",
		Timeout:       2 * time.Second,
	})
}

func TestRazorpayClient_CreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(10000), payload["amount"])
		assert.Equal(t, "INR", payload["currency"])
		assert.Equal(t, "local-order-1", payload["receipt"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_ABC123","amount":10000,"currency":"INR","receipt":"local-order-1","status":"created"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	order, err := client.CreateOrder(context.Background(), gateway.CreateOrderRequest{
		Amount:   10000,
		Currency: "INR",
		Receipt:  "local-order-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "order_ABC123", order.ID)
	assert.Equal(t, int64(10000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
}

func TestRazorpayClient_CreateOrder_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least 100"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateOrder(context.Background(), gateway.CreateOrderRequest{
		Amount:   1,
		Currency: "INR",
		Receipt:  "local-order-2",
	})
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
	assert.Contains(t, err.Error(), "amount must be at least 100")
}

func TestRazorpayClient_CreateOrder_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := newTestClient(server.URL)
	_, err := client.CreateOrder(context.Background(), gateway.CreateOrderRequest{
		Amount:   10000,
		Currency: "INR",
		Receipt:  "local-order-3",
	})
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
}

func TestRazorpayClient_CreateOrder_MissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"created"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateOrder(context.Background(), gateway.CreateOrderRequest{
		Amount:   10000,
		Currency: "INR",
		Receipt:  "local-order-4",
	})
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
}

func TestRazorpayClient_FetchStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/order_ABC123/payments", r.URL.Path)
		w.Write([]byte(`{"items":[{"id":"pay_failed1","status":"failed"},{"id":"pay_ok1","status":"captured"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.FetchStatus(context.Background(), "order_ABC123")
	assert.NoError(t, err)
	// A captured payment wins even with a failed attempt alongside it.
	assert.Equal(t, gateway.PaymentCaptured, status.State)
	assert.Equal(t, "pay_ok1", status.PaymentID)
}

func TestRazorpayClient_FetchStatus_OnlyFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"pay_failed1","status":"failed"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.FetchStatus(context.Background(), "order_ABC123")
	assert.NoError(t, err)
	assert.Equal(t, gateway.PaymentFailed, status.State)
	assert.Equal(t, "pay_failed1", status.PaymentID)
}

func TestRazorpayClient_FetchStatus_NoPayments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.FetchStatus(context.Background(), "order_ABC123")
	assert.NoError(t, err)
	assert.Equal(t, gateway.PaymentUnknown, status.State)
}

func TestRazorpayClient_VerifySignature(t *testing.T) {
	client := newTestClient("http://unused")
	assert.True(t, client.SignsCallbacks())

	valid := gateway.Sign("webhook_secret", "order_ABC123", "pay_ok1")
	assert.True(t, client.VerifySignature("order_ABC123", "pay_ok1", valid))
	assert.False(t, client.VerifySignature("order_ABC123", "pay_ok1", "forged"))
	assert.False(t, client.VerifySignature("order_other", "pay_ok1", valid))

	noSecret := gateway.NewRazorpayClient(gateway.Config{KeyID: "k", KeySecret: "s"})
	assert.False(t, noSecret.SignsCallbacks())
	assert.False(t, noSecret.VerifySignature("order_ABC123", "pay_ok1", valid))
}
