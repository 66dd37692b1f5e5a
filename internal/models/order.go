package models

import "time"

// OrderKind discriminates the two purchase shapes the marketplace offers:
// a direct order against a listing, and a prebooking reserved ahead of time.
// Both share one lifecycle, so they live in one table.
type OrderKind string

const (
	KindOrder      OrderKind = "order"
	KindPrebooking OrderKind = "prebooking"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusFailed    OrderStatus = "FAILED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRefunded  OrderStatus = "REFUNDED"
)

// legalTransitions is the forward-only transition graph. Anything not listed
// here is rejected with ErrInvalidTransition. There is deliberately no edge
// back to PENDING.
var legalTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCompleted, StatusFailed, StatusCancelled},
	StatusPaid:    {StatusCompleted, StatusRefunded},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return len(legalTransitions[s]) == 0
}

// Order represents a purchase attempt against a listing. It is created once,
// in PENDING, and afterwards only its status, gateway identifiers and failure
// reason may change. Rows are never deleted; settled orders are the audit
// trail.
type Order struct {
	ID     string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Kind   OrderKind `json:"kind" gorm:"type:varchar(16);default:order"`
	UserID string    `json:"user_id" gorm:"index;type:varchar(36)" validate:"required"`

	ListingID string `json:"listing_id" gorm:"index;type:varchar(36)" validate:"required"`
	// Amount is in minor units (paise for INR). The money path never touches
	// floating point.
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" gorm:"type:varchar(3)" validate:"required,len=3"`

	Status OrderStatus `json:"status" gorm:"index;type:varchar(16)"`

	// Gateway identifiers are absent while PENDING. GatewayPaymentID is set
	// only by a verified successful settlement.
	GatewayOrderID   string `json:"gateway_order_id,omitempty" gorm:"index;type:varchar(64)"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty" gorm:"type:varchar(64)"`
	FailureReason    string `json:"failure_reason,omitempty" gorm:"type:varchar(255)"`

	// Contact details captured at intake. Never mutated afterwards.
	ContactName  string `json:"contact_name,omitempty" gorm:"type:varchar(100)"`
	ContactEmail string `json:"contact_email,omitempty" gorm:"type:varchar(255)" validate:"omitempty,email"`
	Message      string `json:"message,omitempty" gorm:"type:varchar(500)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
