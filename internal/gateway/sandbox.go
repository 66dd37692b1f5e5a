package gateway

import (
	"context"
	"strings"
	"sync"
)

// sandboxSecret signs sandbox callbacks so the settlement path is exercised
// end to end, signature check included.
const sandboxSecret = "sandbox-webhook-secret"

const (
	sandboxOrderPrefix   = "order_sandbox_"
	sandboxPaymentPrefix = "pay_sandbox_"
)

// Sandbox is a deterministic in-process gateway for development and tests.
// CreateOrder always succeeds and derives the gateway order id from the
// receipt, so re-running a flow yields the same identifiers. A small ledger
// records simulated charges for FetchStatus, mirroring how the real gateway
// remains the source of truth during reconciliation.
type Sandbox struct {
	mu      sync.RWMutex
	charges map[string]StatusResult // keyed by gateway order id
}

// NewSandbox creates an empty sandbox gateway.
func NewSandbox() *Sandbox {
	return &Sandbox{
		charges: make(map[string]StatusResult),
	}
}

// KeyID returns a fixed publishable key so checkout wiring can be exercised.
func (s *Sandbox) KeyID() string {
	return "rzp_test_sandbox"
}

// CreateOrder deterministically succeeds. The receipt is the local order id,
// so the mapping between local and gateway identifiers stays obvious in logs
// and tests.
func (s *Sandbox) CreateOrder(_ context.Context, req CreateOrderRequest) (*Order, error) {
	return &Order{
		ID:       sandboxOrderPrefix + req.Receipt,
		Amount:   req.Amount,
		Currency: req.Currency,
	}, nil
}

// SignsCallbacks reports that sandbox callbacks are signed.
func (s *Sandbox) SignsCallbacks() bool {
	return true
}

// VerifySignature checks against the fixed sandbox secret.
func (s *Sandbox) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return verify(sandboxSecret, gatewayOrderID, gatewayPaymentID, signature)
}

// FetchStatus consults the simulated charge ledger.
func (s *Sandbox) FetchStatus(_ context.Context, gatewayOrderID string) (*StatusResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if result, ok := s.charges[gatewayOrderID]; ok {
		r := result
		return &r, nil
	}
	return &StatusResult{State: PaymentUnknown}, nil
}

// SimulateCapture records a successful gateway-side charge and returns the
// deterministic payment id plus a valid callback signature for it. Tests and
// local tooling use this to drive the webhook.
func (s *Sandbox) SimulateCapture(gatewayOrderID string) (paymentID, signature string) {
	paymentID = sandboxPaymentPrefix + strings.TrimPrefix(gatewayOrderID, sandboxOrderPrefix)
	s.mu.Lock()
	s.charges[gatewayOrderID] = StatusResult{State: PaymentCaptured, PaymentID: paymentID}
	s.mu.Unlock()
	return paymentID, Sign(sandboxSecret, gatewayOrderID, paymentID)
}

// SimulateFailure records a failed gateway-side charge.
func (s *Sandbox) SimulateFailure(gatewayOrderID string) (paymentID, signature string) {
	paymentID = sandboxPaymentPrefix + strings.TrimPrefix(gatewayOrderID, sandboxOrderPrefix)
	s.mu.Lock()
	s.charges[gatewayOrderID] = StatusResult{State: PaymentFailed, PaymentID: paymentID}
	s.mu.Unlock()
	return paymentID, Sign(sandboxSecret, gatewayOrderID, paymentID)
}
