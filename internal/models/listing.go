package models

import "gorm.io/gorm"

// Listing represents a purchasable project or service offered by a seller.
// Its Price is the canonical amount an order must match at intake time;
// client-supplied amounts are only ever compared against it, never trusted.
type Listing struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SellerID    string `json:"seller_id" gorm:"index;type:varchar(36)"`
	Title       string `json:"title" validate:"required,min=3,max=150"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	// Price is in minor units (paise for INR).
	Price    int64  `json:"price" validate:"required,gt=0"`
	Currency string `json:"currency" gorm:"type:varchar(3);default:INR" validate:"omitempty,len=3"`
	// RequiresFulfillment decides where a successful settlement lands:
	// PAID when further delivery work remains, COMPLETED otherwise.
	RequiresFulfillment bool `json:"requires_fulfillment"`
	Active              bool `json:"active" gorm:"default:true"`
	gorm.Model                // CreatedAt, UpdatedAt, DeletedAt
}
