package services

import (
	"fmt"

	"gigmart/internal/models"
	"gigmart/internal/repositories"
	"gigmart/pkg/events"
	"gigmart/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntakeRequest is a validated purchase request. UserID comes from the
// authenticated session, never from the request body.
type IntakeRequest struct {
	UserID       string
	ListingID    string
	Kind         models.OrderKind
	Amount       int64 // client-claimed amount in minor units, checked against the listing
	Currency     string
	ContactName  string
	ContactEmail string
	Message      string
}

// OrderService owns order intake and the administrative transitions. The
// settlement transitions live in PaymentService; both go through the same
// compare-and-set repository operation.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	listingRepo repositories.ListingRepository
	publisher   events.Publisher
	logger      *zap.Logger
	// tolerance is the permitted absolute difference, in minor units,
	// between the client-claimed amount and the listing price.
	tolerance int64
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, listingRepo repositories.ListingRepository, publisher events.Publisher, logger *zap.Logger, tolerance int64) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		publisher:   publisher,
		logger:      logger,
		tolerance:   tolerance,
	}
}

// CreateOrder validates an intake request and persists exactly one PENDING
// order with no gateway identifiers. The persisted amount is always the
// listing's canonical price; the client-claimed amount is only compared,
// never stored.
func (s *OrderService) CreateOrder(req IntakeRequest) (*models.Order, error) {
	if req.UserID == "" {
		return nil, models.ErrUnauthenticated
	}

	listing, err := s.listingRepo.GetByID(req.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.Active {
		return nil, models.ErrListingNotFound
	}

	currency := req.Currency
	if currency == "" {
		currency = listing.Currency
	}
	if currency != listing.Currency {
		return nil, fmt.Errorf("%w: listing is priced in %s", models.ErrInvalidAmount, listing.Currency)
	}

	diff := req.Amount - listing.Price
	if diff < 0 {
		diff = -diff
	}
	if diff > s.tolerance {
		return nil, fmt.Errorf("%w: claimed %d, listing price is %d", models.ErrInvalidAmount, req.Amount, listing.Price)
	}

	kind := req.Kind
	if kind == "" {
		kind = models.KindOrder
	}

	order := &models.Order{
		ID:           uuid.New().String(),
		Kind:         kind,
		UserID:       req.UserID,
		ListingID:    listing.ID,
		Amount:       listing.Price, // canonical price, re-derived server-side
		Currency:     listing.Currency,
		Status:       models.StatusPending,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Message:      req.Message,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	metrics.OrdersCreated.Inc()

	s.publish(events.RoutingOrderCreated, order)

	return order, nil
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrdersByUser retrieves all orders belonging to a buyer.
func (s *OrderService) GetOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetAllByUser(userID)
}

// adminTargets are the transitions an operator may drive by hand. Settlement
// owns the rest.
var adminTargets = map[models.OrderStatus]bool{
	models.StatusCancelled: true,
	models.StatusRefunded:  true,
	models.StatusCompleted: true,
}

// AdminTransition moves an order to an administratively reachable status:
// PENDING→CANCELLED, PAID→REFUNDED, PAID→COMPLETED. The write is the same
// conditional update settlement uses, so an in-flight callback and an admin
// action cannot both win.
func (s *OrderService) AdminTransition(id string, to models.OrderStatus) (*models.Order, error) {
	if !adminTargets[to] {
		return nil, models.ErrInvalidTransition
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, to) {
		return nil, models.ErrInvalidTransition
	}

	won, err := s.orderRepo.Transition(id, order.Status, to, repositories.SettlementUpdate{})
	if err != nil {
		return nil, err
	}
	if !won {
		// Someone settled the order between our read and the write.
		return nil, models.ErrInvalidTransition
	}

	updated, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order transitioned administratively",
		zap.String("order_id", id),
		zap.String("from", string(order.Status)),
		zap.String("to", string(to)))
	s.publish(events.RoutingOrderSettled, updated)

	return updated, nil
}

// publish sends an order event, logging instead of failing the request when
// the broker is unavailable. The order row is already durable at this point.
func (s *OrderService) publish(routingKey string, order *models.Order) {
	if s.publisher == nil {
		s.logger.Debug("event publisher not configured, skipping", zap.String("routing_key", routingKey))
		return
	}
	err := s.publisher.Publish(routingKey, events.OrderEvent{
		OrderID:          order.ID,
		UserID:           order.UserID,
		Status:           string(order.Status),
		Amount:           order.Amount,
		Currency:         order.Currency,
		GatewayPaymentID: order.GatewayPaymentID,
	})
	if err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("routing_key", routingKey),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}
