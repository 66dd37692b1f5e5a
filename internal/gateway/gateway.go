// Package gateway talks to the external payment gateway. The rest of the
// service only sees the Gateway interface; the concrete client is chosen at
// boot from configuration.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// PaymentState is the gateway's view of a payment, used by reconciliation.
type PaymentState string

const (
	PaymentUnknown  PaymentState = "unknown"
	PaymentCaptured PaymentState = "captured"
	PaymentFailed   PaymentState = "failed"
)

// CreateOrderRequest asks the gateway to open an order on its side. Amount is
// in minor units; Receipt carries the local order id so callbacks can be
// correlated back.
type CreateOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
}

// Order is the gateway-side order handle.
type Order struct {
	ID       string
	Amount   int64
	Currency string
}

// StatusResult is what a reconciliation status fetch returns.
type StatusResult struct {
	State     PaymentState
	PaymentID string
}

// Gateway is the payment gateway boundary. CreateOrder and FetchStatus block
// on network I/O and honour the context; VerifySignature is pure.
type Gateway interface {
	// KeyID is the publishable key the browser checkout widget needs.
	KeyID() string
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	// VerifySignature checks a webhook signature over the order/payment id
	// pair. Implementations with no webhook secret configured report that no
	// verification is possible via SignsCallbacks.
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	SignsCallbacks() bool
	FetchStatus(ctx context.Context, gatewayOrderID string) (*StatusResult, error)
}

// Config selects and parameterises the gateway client.
type Config struct {
	KeyID         string
	KeySecret     string
	BaseURL       string
	WebhookSecret string
	Timeout       time.Duration
	Sandbox       bool
}

// New picks the gateway implementation. The sandbox is only reachable when no
// real credentials are configured; with credentials present the sandbox flag
// is a configuration error, not a fallback.
func New(cfg Config) (Gateway, error) {
	hasCreds := cfg.KeyID != "" && cfg.KeySecret != ""
	switch {
	case hasCreds && cfg.Sandbox:
		return nil, errors.New("gateway: sandbox mode requested but real credentials are configured")
	case hasCreds:
		return NewRazorpayClient(cfg), nil
	case cfg.Sandbox:
		return NewSandbox(), nil
	default:
		return nil, errors.New("gateway: no credentials configured and sandbox mode not enabled")
	}
}

// Sign computes the callback signature scheme used by the gateway: hex-encoded
// HMAC-SHA256 over "<gatewayOrderID>|<gatewayPaymentID>".
func Sign(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// verify compares an expected signature in constant time.
func verify(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := Sign(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
