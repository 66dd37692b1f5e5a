package repositories

import (
	"sync"
	"time"

	"gigmart/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository. It
// mirrors the conditional-write semantics of the GORM implementation so that
// the settlement race behaviour can be exercised without a database.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, models.ErrUnknownOrder
	}
	return &order, nil
}

// GetByGatewayOrderID returns the order carrying a gateway order id.
func (r *MockOrderRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.GatewayOrderID != "" && order.GatewayOrderID == gatewayOrderID {
			o := order
			return &o, nil
		}
	}
	return nil, models.ErrUnknownOrder
}

// GetAllByUser returns all orders for a buyer.
func (r *MockOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}

// AttachGatewayOrder records the gateway order id while still PENDING and
// unattached. First writer wins, matching the SQL implementation.
func (r *MockOrderRepository) AttachGatewayOrder(id string, gatewayOrderID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return "", models.ErrUnknownOrder
	}
	if order.Status != models.StatusPending {
		return "", models.ErrInvalidTransition
	}
	if order.GatewayOrderID != "" {
		return order.GatewayOrderID, nil
	}
	order.GatewayOrderID = gatewayOrderID
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return gatewayOrderID, nil
}

// Transition applies the compare-and-set under the repository lock, which
// gives the same one-winner guarantee the SQL conditional UPDATE does.
func (r *MockOrderRepository) Transition(id string, from, to models.OrderStatus, update SettlementUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, models.ErrUnknownOrder
	}
	if order.Status != from {
		return false, nil
	}
	order.Status = to
	if update.GatewayPaymentID != "" {
		order.GatewayPaymentID = update.GatewayPaymentID
	}
	if update.FailureReason != "" {
		order.FailureReason = update.FailureReason
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// ListStalePending returns PENDING orders idle for at least olderThan.
func (r *MockOrderRepository) ListStalePending(olderThan time.Duration) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-olderThan)
	stale := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.Status == models.StatusPending && order.GatewayOrderID != "" && order.UpdatedAt.Before(cutoff) {
			stale = append(stale, order)
		}
	}
	return stale, nil
}
