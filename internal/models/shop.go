package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shop is a seller storefront owned by a single user.
type Shop struct {
	BaseModel
	Name    string    `json:"name"`
	OwnerID uuid.UUID `gorm:"type:uuid;index" json:"ownerId"`
	Coupons []Coupon  `json:"coupons,omitempty"`
}

// Coupon is a percentage discount scoped to one shop.
type Coupon struct {
	BaseModel
	Code              string              `gorm:"uniqueIndex" json:"name"`
	ShopID            uuid.UUID           `gorm:"type:uuid;index" json:"shopId"`
	Value             decimal.Decimal     `gorm:"type:numeric(5,2)" json:"value"`
	MinAmount         decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"minAmount"`
	MaxAmount         decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"maxAmount"`
	SelectedProductID string              `json:"selectedProduct,omitempty"`
	ExpiresAt         *time.Time          `json:"expiresAt,omitempty"`
}
