package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/cottonstyle/internal/apperr"
)

// CurrencyPlaces is the fixed-point precision used for every amount.
const CurrencyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Round rounds an amount to currency precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(CurrencyPlaces)
}

// Equal compares two amounts after rounding to currency precision.
func Equal(a, b decimal.Decimal) bool {
	return Round(a).Equal(Round(b))
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// CartItem is a single cart line as handed to checkout.
type CartItem struct {
	ProductID     string          `json:"productId"`
	ShopID        string          `json:"shopId"`
	Name          string          `json:"name,omitempty"`
	Quantity      int             `json:"qty"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
}

// LineTotal is qty * unit discount price.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.DiscountPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ValidateCart rejects empty carts, non-positive quantities and negative prices.
func ValidateCart(items []CartItem) error {
	if len(items) == 0 {
		return apperr.Validation("cart is empty")
	}
	for idx, item := range items {
		if item.ShopID == "" {
			return apperr.Validation(fmt.Sprintf("item %d: shopId is required", idx))
		}
		if item.Quantity < 1 {
			return apperr.Validation(fmt.Sprintf("item %d: qty must be at least 1", idx))
		}
		if item.DiscountPrice.IsNegative() {
			return apperr.Validation(fmt.Sprintf("item %d: discountPrice must not be negative", idx))
		}
	}
	return nil
}
