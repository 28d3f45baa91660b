package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending  = "pending"
	OrderStatusCharging = "charging"
	OrderStatusPaid     = "paid"
)

type Order struct {
	BaseModel
	UserID              uuid.UUID       `gorm:"type:uuid;index" json:"userId"`
	User                *User           `json:"user,omitempty"`
	OrderNumber         string          `gorm:"uniqueIndex" json:"orderNumber"`
	Status              string          `gorm:"index" json:"status"`
	PlacedAt            time.Time       `json:"placedAt"`
	PaidAt              *time.Time      `json:"paidAt"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal"`
	ProductDiscount     decimal.Decimal `gorm:"type:numeric(12,2)" json:"productDiscount"`
	DeliveryFee         decimal.Decimal `gorm:"type:numeric(12,2)" json:"deliveryFee"`
	Tax                 decimal.Decimal `gorm:"type:numeric(12,2)" json:"tax"`
	OverallProductPrice decimal.Decimal `gorm:"type:numeric(12,2)" json:"overallProductPrice"`
	CouponCode          string          `json:"couponCode"`
	CouponDiscount      decimal.Decimal `gorm:"type:numeric(12,2)" json:"couponDiscount"`
	TotalAmount         decimal.Decimal `gorm:"type:numeric(12,2)" json:"totalPrice"`
	Currency            string          `json:"currency"`
	Address1            string          `json:"address1"`
	Address2            string          `json:"address2"`
	ZipCode             string          `json:"zipCode"`
	Country             string          `json:"country"`
	City                string          `json:"city"`
	PaymentConfirmation string          `json:"paymentConfirmation"`
	Items               []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;index" json:"orderId"`
	ProductID   string          `json:"productId"`
	ShopID      string          `gorm:"index" json:"shopId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"qty"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2)" json:"discountPrice"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2)" json:"lineTotal"`
}
