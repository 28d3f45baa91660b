package models

import "github.com/google/uuid"

// UserAddress is a saved delivery address. A user keeps at most one
// address per type ("Home", "Office", ...).
type UserAddress struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_address_type" json:"userId"`
	AddressType string    `gorm:"uniqueIndex:idx_user_address_type" json:"addressType"`
	Address1    string    `json:"address1"`
	Address2    string    `json:"address2"`
	ZipCode     string    `json:"zipCode"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
}
