package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated customer.
type User struct {
	BaseModel
	Name         string     `json:"name"`
	Email        string     `gorm:"uniqueIndex" json:"email"`
	PhoneNumber  string     `json:"phoneNumber"`
	PasswordHash string     `json:"-"`
	OTPCode      string     `gorm:"column:otp_code" json:"-"`
	OTPExpiry    *time.Time `gorm:"column:otp_expiry" json:"-"`
	Orders       []Order    `json:"orders,omitempty"`
}

// HasOTP reports whether a one-time code is currently attached.
func (u *User) HasOTP() bool {
	return u.OTPCode != "" && u.OTPExpiry != nil
}

// SetOTP attaches a one-time code valid until expiry.
func (u *User) SetOTP(code string, expiry time.Time) {
	u.OTPCode = code
	u.OTPExpiry = &expiry
}

// ClearOTP removes any one-time code from the user.
func (u *User) ClearOTP() {
	u.OTPCode = ""
	u.OTPExpiry = nil
}

// PasswordResetToken is the short-lived ticket issued after a successful
// OTP verification. It is the only credential the reset endpoint accepts.
type PasswordResetToken struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"userId"`
	Token     string     `gorm:"uniqueIndex" json:"-"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt"`
}

// Usable reports whether the ticket may still be redeemed at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
