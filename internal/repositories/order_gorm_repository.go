package repositories

import (
	"errors"
	"fmt"
	"time"

	"gigmart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists a new order. The caller is expected to hand over a fully
// formed PENDING order; only the ID is filled in when missing.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUnknownOrder
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByGatewayOrderID retrieves the order a gateway callback refers to.
func (r *GORMOrderRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "gateway_order_id = ?", gatewayOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUnknownOrder
		}
		return nil, fmt.Errorf("failed to get order by gateway order ID %s: %w", gatewayOrderID, err)
	}
	return &order, nil
}

// GetAllByUser retrieves all orders belonging to a buyer, newest first.
func (r *GORMOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// AttachGatewayOrder stores the gateway-side order id. Conditional on the
// order still being PENDING with no gateway order attached, so a late bridge
// call cannot touch a settled row and two concurrent checkouts cannot clobber
// each other. The loser of that race gets the winner's id back, which is the
// one the buyer's widget must use.
func (r *GORMOrderRepository) AttachGatewayOrder(id string, gatewayOrderID string) (string, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND (gateway_order_id = '' OR gateway_order_id IS NULL)", id, models.StatusPending).
		Update("gateway_order_id", gatewayOrderID)
	if res.Error != nil {
		return "", fmt.Errorf("failed to attach gateway order to %s: %w", id, res.Error)
	}
	if res.RowsAffected == 1 {
		return gatewayOrderID, nil
	}

	order, err := r.GetByID(id)
	if err != nil {
		return "", err
	}
	if order.Status == models.StatusPending && order.GatewayOrderID != "" {
		return order.GatewayOrderID, nil
	}
	return "", models.ErrInvalidTransition
}

// Transition performs the compare-and-set status move in one UPDATE. The
// WHERE clause carries the expected current status; RowsAffected tells us
// whether we won the race.
func (r *GORMOrderRepository) Transition(id string, from, to models.OrderStatus, update SettlementUpdate) (bool, error) {
	fields := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if update.GatewayPaymentID != "" {
		fields["gateway_payment_id"] = update.GatewayPaymentID
	}
	if update.FailureReason != "" {
		fields["failure_reason"] = update.FailureReason
	}

	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("failed to transition order %s to %s: %w", id, to, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListStalePending returns PENDING orders that went out to the gateway but
// were never settled, idle for at least olderThan.
func (r *GORMOrderRepository) ListStalePending(olderThan time.Duration) ([]models.Order, error) {
	var orders []models.Order
	cutoff := time.Now().Add(-olderThan)
	err := r.db.
		Where("status = ? AND gateway_order_id <> '' AND updated_at < ?", models.StatusPending, cutoff).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending orders: %w", err)
	}
	return orders, nil
}
