package checkout

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/cottonstyle/internal/apperr"
	"github.com/example/cottonstyle/internal/models"
	"github.com/example/cottonstyle/internal/pricing"
)

// State is a step of the checkout flow.
type State string

const (
	StateAddressPending  State = "AddressPending"
	StateAddressComplete State = "AddressComplete"
	StateCouponApplied   State = "CouponOptionalApplied"
	StateReadyForPayment State = "ReadyForPayment"
	StateSubmitted       State = "Submitted"
)

// ShippingAddress is where the order is delivered.
type ShippingAddress struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
	City     string `json:"city"`
}

// AddressFromSaved converts a saved address book entry.
func AddressFromSaved(a *models.UserAddress) ShippingAddress {
	return ShippingAddress{
		Address1: a.Address1,
		Address2: a.Address2,
		ZipCode:  a.ZipCode,
		Country:  a.Country,
		City:     a.City,
	}
}

// Missing lists the names of blank fields.
func (a ShippingAddress) Missing() []string {
	var missing []string
	fields := []struct {
		name  string
		value string
	}{
		{"address1", a.Address1},
		{"address2", a.Address2},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
		{"city", a.City},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Validate returns a ValidationError naming every blank field.
func (a ShippingAddress) Validate() error {
	if missing := a.Missing(); len(missing) > 0 {
		return apperr.Validation("please choose your delivery address: missing " + strings.Join(missing, ", "))
	}
	return nil
}

// AppliedCoupon records the coupon currently applied to a draft.
type AppliedCoupon struct {
	Code     string          `json:"code"`
	ShopID   string          `json:"shopId"`
	Value    decimal.Decimal `json:"value"`
	Discount decimal.Decimal `json:"discount"`
}

// Draft is the in-progress, not yet paid order owned by one user.
type Draft struct {
	UserID         string             `json:"userId"`
	Items          []pricing.CartItem `json:"items"`
	Quote          pricing.Quote      `json:"quote"`
	Address        *ShippingAddress   `json:"shippingAddress,omitempty"`
	Coupon         *AppliedCoupon     `json:"coupon,omitempty"`
	State          State              `json:"state"`
	PendingOrderID *uuid.UUID         `json:"pendingOrderId,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func newDraft(userID string, items []pricing.CartItem, quote pricing.Quote, now time.Time) *Draft {
	return &Draft{
		UserID:    userID,
		Items:     items,
		Quote:     quote,
		State:     StateAddressPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddressComplete reports whether a valid shipping address is set.
func (d *Draft) AddressComplete() bool {
	return d.Address != nil && len(d.Address.Missing()) == 0
}

// CouponDiscount is the applied coupon's discount, or zero.
func (d *Draft) CouponDiscount() decimal.Decimal {
	if d.Coupon == nil {
		return decimal.Zero
	}
	return d.Coupon.Discount
}

// Totals is the current price breakdown.
func (d *Draft) Totals() pricing.Totals {
	return pricing.Summarize(&d.Quote, d.CouponDiscount())
}

// edited records a buyer change. Any pending payment attempt is dropped
// because its snapshot no longer matches the draft.
func (d *Draft) edited(now time.Time) {
	d.PendingOrderID = nil
	d.UpdatedAt = now
	d.State = d.derivedState()
}

// derivedState computes the pre-payment state from the draft contents.
// Payment can never be reached without a complete address.
func (d *Draft) derivedState() State {
	switch {
	case !d.AddressComplete():
		return StateAddressPending
	case d.Coupon != nil:
		return StateCouponApplied
	default:
		return StateAddressComplete
	}
}
