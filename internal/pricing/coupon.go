package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/example/cottonstyle/internal/apperr"
)

// Coupon is the subset of a stored coupon the validator needs.
type Coupon struct {
	Code   string
	ShopID string
	// Value is a percentage in (0, 100].
	Value decimal.Decimal
}

// ErrCouponNotApplicable is returned when no cart item belongs to the coupon's shop.
var ErrCouponNotApplicable = apperr.NotApplicable("coupon code is not valid for this shop")

// EligibleAmount sums qty * discountPrice over the items sold by shopID.
// The second result reports whether any item matched.
func EligibleAmount(cart []CartItem, shopID string) (decimal.Decimal, bool) {
	sum := decimal.Zero
	matched := false
	for _, item := range cart {
		if item.ShopID != shopID {
			continue
		}
		matched = true
		sum = sum.Add(item.LineTotal())
	}
	return sum, matched
}

// ApplyCoupon computes the discount a coupon grants on cart. Only items
// from the coupon's owning shop count; when none match the coupon is
// rejected rather than yielding a zero discount. The result does not
// depend on any previously applied coupon.
func ApplyCoupon(cart []CartItem, coupon Coupon) (decimal.Decimal, error) {
	eligible, matched := EligibleAmount(cart, coupon.ShopID)
	if !matched {
		return decimal.Zero, ErrCouponNotApplicable
	}

	pct := Clamp(coupon.Value, decimal.Zero, hundred)
	discount := Round(eligible.Mul(pct).Div(hundred))
	return Clamp(discount, decimal.Zero, eligible), nil
}
