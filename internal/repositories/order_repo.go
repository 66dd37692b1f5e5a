package repositories

import (
	"time"

	"gigmart/internal/models"
)

// SettlementUpdate carries the fields a status transition may set alongside
// the new status. Zero-valued fields are left untouched.
type SettlementUpdate struct {
	GatewayPaymentID string
	FailureReason    string
}

// OrderRepository defines the interface for order data access.
//
// Transition is the only mutation path for status: a single conditional
// write ("set status to X only if it is currently Y") so that concurrent
// settlements for the same order cannot double-apply. It reports whether
// this caller won the write.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error)
	GetAllByUser(userID string) ([]models.Order, error)
	// AttachGatewayOrder records the gateway-side order id while the order is
	// still PENDING and has no gateway order yet. First writer wins: the
	// returned id is the one actually stored, which may be an earlier
	// caller's. Status does not change.
	AttachGatewayOrder(id string, gatewayOrderID string) (string, error)
	// Transition atomically moves id from `from` to `to`, applying update in
	// the same write. Returns false (and no error) when the conditional
	// update matched no row, i.e. the order was not in `from` anymore.
	Transition(id string, from, to models.OrderStatus, update SettlementUpdate) (bool, error)
	// ListStalePending returns PENDING orders that already have a gateway
	// order and have not been touched for olderThan. Reconciliation input.
	ListStalePending(olderThan time.Duration) ([]models.Order, error)
}
