package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigmart/internal/gateway"
	"gigmart/internal/models"
	"gigmart/internal/repositories"
	"gigmart/pkg/events"
	"gigmart/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Settlement outcomes, recorded in metrics and logs. The webhook endpoint
// answers 200 for all of them; the outcome is the operator-facing truth.
const (
	OutcomeApplied           = "applied"
	OutcomeNoop              = "noop"
	OutcomeFailedApplied     = "failed"
	OutcomeInvalidSignature  = "invalid_signature"
	OutcomeUnknownOrder      = "unknown_order"
	OutcomeInvalidTransition = "invalid_transition"
	OutcomeError             = "error"
)

// CheckoutConfig is everything the browser needs to open the gateway's
// payment widget. No order state travels with it; the client re-fetches the
// order by id for the authoritative status.
type CheckoutConfig struct {
	KeyID          string `json:"key_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	OrderID        string `json:"order_id"`
	ContactName    string `json:"contact_name,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`
}

// CallbackPayload is the gateway's settlement callback, validated at the
// boundary before anything trusts it.
type CallbackPayload struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Status           string `json:"status" validate:"required,oneof=success failure"`
	Reason           string `json:"reason"`
	Signature        string `json:"signature"`
}

// SettlementResult reports what a callback did. Duplicate callbacks get the
// same result as the first one.
type SettlementResult struct {
	Outcome string             `json:"outcome"`
	OrderID string             `json:"order_id,omitempty"`
	Status  models.OrderStatus `json:"status,omitempty"`
}

// PaymentService is the payment bridge and settlement engine. It owns every
// write that moves an order out of PENDING on behalf of the gateway.
type PaymentService struct {
	orderRepo   repositories.OrderRepository
	listingRepo repositories.ListingRepository
	gateway     gateway.Gateway
	publisher   events.Publisher
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(orderRepo repositories.OrderRepository, listingRepo repositories.ListingRepository, gw gateway.Gateway, publisher events.Publisher, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		gateway:     gw,
		publisher:   publisher,
		logger:      logger,
	}
}

// Checkout creates (or reuses) the gateway-side order for a PENDING order and
// returns the checkout configuration for the client. A gateway failure leaves
// the order PENDING and surfaces as ErrGatewayUnavailable: the caller should
// retry, not give up the order.
func (s *PaymentService) Checkout(ctx context.Context, userID, orderID string) (*CheckoutConfig, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		// Do not reveal other users' orders.
		return nil, models.ErrUnknownOrder
	}
	if order.Status != models.StatusPending {
		return nil, models.ErrInvalidTransition
	}

	gatewayOrderID := order.GatewayOrderID
	if gatewayOrderID == "" {
		start := time.Now()
		gwOrder, err := s.gateway.CreateOrder(ctx, gateway.CreateOrderRequest{
			Amount:   order.Amount,
			Currency: order.Currency,
			Receipt:  order.ID,
		})
		s.observeGateway("create_order", start, err)
		if err != nil {
			s.logger.Warn("gateway order creation failed",
				zap.String("order_id", order.ID),
				zap.Error(err))
			return nil, err
		}

		// A concurrent checkout may have attached its gateway order first.
		// The stored id is the one the widget must open, otherwise the
		// success callback would reference an order nothing can find.
		stored, err := s.orderRepo.AttachGatewayOrder(order.ID, gwOrder.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to record gateway order %s: %w", gwOrder.ID, err)
		}
		if stored != gwOrder.ID {
			s.logger.Info("concurrent checkout already attached a gateway order",
				zap.String("order_id", order.ID),
				zap.String("gateway_order_id", stored),
				zap.String("discarded_gateway_order_id", gwOrder.ID))
		}
		gatewayOrderID = stored
	}

	return &CheckoutConfig{
		KeyID:          s.gateway.KeyID(),
		GatewayOrderID: gatewayOrderID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		OrderID:        order.ID,
		ContactName:    order.ContactName,
		ContactEmail:   order.ContactEmail,
	}, nil
}

// Settle processes a gateway callback. It is safe to call concurrently and
// repeatedly for the same order: the status write is a compare-and-set, so
// exactly one callback applies and duplicates collapse into no-ops.
//
// The returned error is for observability only; the webhook handler answers
// 200 regardless so the gateway does not retry-storm us.
func (s *PaymentService) Settle(payload CallbackPayload) (*SettlementResult, error) {
	// Signature first. A forged callback must be inert: no lookup result
	// leaks, no state changes.
	if s.gateway.SignsCallbacks() {
		if !s.gateway.VerifySignature(payload.GatewayOrderID, payload.GatewayPaymentID, payload.Signature) {
			s.recordOutcome(OutcomeInvalidSignature, payload.GatewayOrderID)
			return &SettlementResult{Outcome: OutcomeInvalidSignature}, models.ErrInvalidSignature
		}
	}

	order, err := s.orderRepo.GetByGatewayOrderID(payload.GatewayOrderID)
	if err != nil {
		if errors.Is(err, models.ErrUnknownOrder) {
			s.recordOutcome(OutcomeUnknownOrder, payload.GatewayOrderID)
			return &SettlementResult{Outcome: OutcomeUnknownOrder}, models.ErrUnknownOrder
		}
		s.recordOutcome(OutcomeError, payload.GatewayOrderID)
		return nil, err
	}

	if payload.Status == "success" {
		return s.applySuccess(order, payload.GatewayPaymentID)
	}
	reason := payload.Reason
	if reason == "" {
		reason = "payment declined by gateway"
	}
	return s.applyFailure(order, reason)
}

// SettleReconciled applies a gateway status fetched by the reconciliation
// worker. The gateway client itself is the source here, so no signature is
// involved.
func (s *PaymentService) SettleReconciled(order *models.Order, status *gateway.StatusResult) (*SettlementResult, error) {
	switch status.State {
	case gateway.PaymentCaptured:
		return s.applySuccess(order, status.PaymentID)
	case gateway.PaymentFailed:
		return s.applyFailure(order, "payment failed (reconciled)")
	default:
		// Gateway has seen nothing yet; leave the order PENDING.
		return &SettlementResult{Outcome: OutcomeNoop, OrderID: order.ID, Status: order.Status}, nil
	}
}

// applySuccess moves PENDING to PAID, or straight to COMPLETED when the
// listing needs no fulfillment step. GatewayPaymentID is set in the same
// conditional write.
func (s *PaymentService) applySuccess(order *models.Order, gatewayPaymentID string) (*SettlementResult, error) {
	target := models.StatusPaid
	if listing, err := s.listingRepo.GetByID(order.ListingID); err == nil && !listing.RequiresFulfillment {
		target = models.StatusCompleted
	}

	won, err := s.orderRepo.Transition(order.ID, models.StatusPending, target, repositories.SettlementUpdate{
		GatewayPaymentID: gatewayPaymentID,
	})
	if err != nil {
		s.recordOutcome(OutcomeError, order.GatewayOrderID)
		return nil, err
	}
	if won {
		s.recordOutcome(OutcomeApplied, order.GatewayOrderID)
		s.logger.Info("order settled",
			zap.String("order_id", order.ID),
			zap.String("status", string(target)),
			zap.String("gateway_payment_id", gatewayPaymentID))
		settled := *order
		settled.Status = target
		settled.GatewayPaymentID = gatewayPaymentID
		s.publishSettled(&settled)
		return &SettlementResult{Outcome: OutcomeApplied, OrderID: order.ID, Status: target}, nil
	}

	return s.resolveLostRace(order.ID, target, gatewayPaymentID)
}

// applyFailure moves PENDING to FAILED, recording the gateway's reason.
func (s *PaymentService) applyFailure(order *models.Order, reason string) (*SettlementResult, error) {
	won, err := s.orderRepo.Transition(order.ID, models.StatusPending, models.StatusFailed, repositories.SettlementUpdate{
		FailureReason: reason,
	})
	if err != nil {
		s.recordOutcome(OutcomeError, order.GatewayOrderID)
		return nil, err
	}
	if won {
		s.recordOutcome(OutcomeFailedApplied, order.GatewayOrderID)
		s.logger.Info("order settlement recorded failure",
			zap.String("order_id", order.ID),
			zap.String("reason", reason))
		settled := *order
		settled.Status = models.StatusFailed
		settled.FailureReason = reason
		s.publishSettled(&settled)
		return &SettlementResult{Outcome: OutcomeFailedApplied, OrderID: order.ID, Status: models.StatusFailed}, nil
	}

	return s.resolveLostRace(order.ID, models.StatusFailed, "")
}

// resolveLostRace decides what losing the compare-and-set means: a duplicate
// of an identical callback is an idempotent no-op returning the settled
// state; a conflicting one is an invalid transition. Either way nothing was
// mutated by this call.
func (s *PaymentService) resolveLostRace(orderID string, target models.OrderStatus, gatewayPaymentID string) (*SettlementResult, error) {
	current, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		s.recordOutcome(OutcomeError, orderID)
		return nil, err
	}

	identical := current.Status == target
	if gatewayPaymentID != "" {
		identical = identical && current.GatewayPaymentID == gatewayPaymentID
	}
	if identical {
		s.recordOutcome(OutcomeNoop, current.GatewayOrderID)
		s.logger.Info("duplicate settlement callback ignored",
			zap.String("order_id", orderID),
			zap.String("status", string(current.Status)))
		return &SettlementResult{Outcome: OutcomeNoop, OrderID: orderID, Status: current.Status}, nil
	}

	s.recordOutcome(OutcomeInvalidTransition, current.GatewayOrderID)
	s.logger.Warn("conflicting settlement callback rejected",
		zap.String("order_id", orderID),
		zap.String("current_status", string(current.Status)),
		zap.String("requested_status", string(target)))
	return &SettlementResult{Outcome: OutcomeInvalidTransition, OrderID: orderID, Status: current.Status}, models.ErrInvalidTransition
}

// publishSettled emits the order.settled event exactly once per applied
// settlement: only the compare-and-set winner reaches this.
func (s *PaymentService) publishSettled(order *models.Order) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(events.RoutingOrderSettled, events.OrderEvent{
		OrderID:          order.ID,
		UserID:           order.UserID,
		Status:           string(order.Status),
		Amount:           order.Amount,
		Currency:         order.Currency,
		GatewayPaymentID: order.GatewayPaymentID,
	})
	if err != nil {
		s.logger.Warn("failed to publish order.settled event",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

func (s *PaymentService) recordOutcome(outcome, gatewayOrderID string) {
	metrics.SettlementOutcomes.With(prometheus.Labels{"outcome": outcome}).Inc()
	if outcome == OutcomeInvalidSignature || outcome == OutcomeUnknownOrder {
		s.logger.Warn("settlement callback rejected",
			zap.String("outcome", outcome),
			zap.String("gateway_order_id", gatewayOrderID))
	}
}

func (s *PaymentService) observeGateway(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.GatewayRequestDuration.
		With(prometheus.Labels{"operation": operation, "result": result}).
		Observe(time.Since(start).Seconds())
}
