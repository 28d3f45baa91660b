package pricing

import "github.com/shopspring/decimal"

// Quote carries the upstream cart pricing computed by the shop/cart side.
// Any component the caller leaves out is zero. OverallProductPrice is
// nullable: a quoted 0 is a free order, an absent one is derived.
type Quote struct {
	Subtotal            decimal.Decimal     `json:"subtotal"`
	ProductDiscount     decimal.Decimal     `json:"productDiscount"`
	DeliveryFee         decimal.Decimal     `json:"deliveryFee"`
	Tax                 decimal.Decimal     `json:"tax"`
	OverallProductPrice decimal.NullDecimal `json:"overallProductPrice"`
}

// Overall returns the overall product price, never negative. When the
// upstream did not send one it is derived from the components.
func (q *Quote) Overall() decimal.Decimal {
	if q == nil {
		return decimal.Zero
	}
	overall := q.OverallProductPrice.Decimal
	if !q.OverallProductPrice.Valid {
		overall = q.Subtotal.Sub(q.ProductDiscount).Add(q.DeliveryFee).Add(q.Tax)
	}
	if overall.IsNegative() {
		return decimal.Zero
	}
	return Round(overall)
}

// ComputeTotal returns overall - couponDiscount with the discount clamped
// to [0, overall]. The result is always within [0, overall].
func ComputeTotal(q *Quote, couponDiscount decimal.Decimal) decimal.Decimal {
	overall := q.Overall()
	coupon := Clamp(Round(couponDiscount), decimal.Zero, overall)
	return Round(overall.Sub(coupon))
}

// Totals is the full price breakdown shown to the buyer.
type Totals struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	ProductDiscount     decimal.Decimal `json:"productDiscount"`
	DeliveryFee         decimal.Decimal `json:"deliveryFee"`
	Tax                 decimal.Decimal `json:"tax"`
	OverallProductPrice decimal.Decimal `json:"overallProductPrice"`
	CouponDiscount      decimal.Decimal `json:"couponDiscount"`
	GrandTotal          decimal.Decimal `json:"grandTotal"`
}

// Summarize builds a rounded breakdown for q with the given coupon discount.
func Summarize(q *Quote, couponDiscount decimal.Decimal) Totals {
	if q == nil {
		q = &Quote{}
	}
	overall := q.Overall()
	return Totals{
		Subtotal:            Round(q.Subtotal),
		ProductDiscount:     Round(q.ProductDiscount),
		DeliveryFee:         Round(q.DeliveryFee),
		Tax:                 Round(q.Tax),
		OverallProductPrice: overall,
		CouponDiscount:      Clamp(Round(couponDiscount), decimal.Zero, overall),
		GrandTotal:          ComputeTotal(q, couponDiscount),
	}
}
