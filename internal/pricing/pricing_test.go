package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cottonstyle/internal/apperr"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quoted(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func TestApplyCoupon_MatchingShop(t *testing.T) {
	cart := []CartItem{{ProductID: "P1", ShopID: "S1", Quantity: 2, DiscountPrice: d("100")}}

	discount, err := ApplyCoupon(cart, Coupon{Code: "TEN", ShopID: "S1", Value: d("10")})

	require.NoError(t, err)
	assert.Equal(t, "20.00", Format(discount))
}

func TestApplyCoupon_OtherShop(t *testing.T) {
	cart := []CartItem{{ProductID: "P1", ShopID: "S1", Quantity: 2, DiscountPrice: d("100")}}

	discount, err := ApplyCoupon(cart, Coupon{Code: "TEN", ShopID: "S2", Value: d("10")})

	assert.True(t, apperr.IsKind(err, apperr.KindNotApplicable))
	assert.True(t, discount.IsZero())
}

func TestApplyCoupon_OnlyEligibleItemsCount(t *testing.T) {
	cart := []CartItem{
		{ProductID: "P1", ShopID: "S1", Quantity: 1, DiscountPrice: d("19.99")},
		{ProductID: "P2", ShopID: "S2", Quantity: 3, DiscountPrice: d("50")},
		{ProductID: "P3", ShopID: "S1", Quantity: 2, DiscountPrice: d("5.005")},
	}

	discount, err := ApplyCoupon(cart, Coupon{ShopID: "S1", Value: d("15")})

	require.NoError(t, err)
	// (19.99 + 10.01) * 15 / 100 = 4.5
	assert.Equal(t, "4.50", Format(discount))
}

func TestApplyCoupon_RoundsToCents(t *testing.T) {
	cart := []CartItem{{ShopID: "S1", Quantity: 3, DiscountPrice: d("3.33")}}

	discount, err := ApplyCoupon(cart, Coupon{ShopID: "S1", Value: d("7")})

	require.NoError(t, err)
	// 9.99 * 0.07 = 0.6993
	assert.Equal(t, "0.70", Format(discount))
}

func TestApplyCoupon_Idempotent(t *testing.T) {
	cart := []CartItem{{ShopID: "S1", Quantity: 2, DiscountPrice: d("100")}}
	coupon := Coupon{ShopID: "S1", Value: d("10")}

	first, err := ApplyCoupon(cart, coupon)
	require.NoError(t, err)
	second, err := ApplyCoupon(cart, coupon)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestApplyCoupon_ValueAboveHundredIsCapped(t *testing.T) {
	cart := []CartItem{{ShopID: "S1", Quantity: 1, DiscountPrice: d("40")}}

	discount, err := ApplyCoupon(cart, Coupon{ShopID: "S1", Value: d("250")})

	require.NoError(t, err)
	assert.Equal(t, "40.00", Format(discount))
}

func TestComputeTotal(t *testing.T) {
	q := &Quote{OverallProductPrice: quoted("500.00")}

	assert.Equal(t, "480.00", Format(ComputeTotal(q, d("20.00"))))
}

func TestComputeTotal_NilQuoteIsZero(t *testing.T) {
	assert.True(t, ComputeTotal(nil, d("20")).IsZero())
}

func TestComputeTotal_ClampsCoupon(t *testing.T) {
	q := &Quote{OverallProductPrice: quoted("50")}

	assert.Equal(t, "50.00", Format(ComputeTotal(q, d("-10"))))
	assert.Equal(t, "0.00", Format(ComputeTotal(q, d("75"))))
}

func TestComputeTotal_StaysWithinBounds(t *testing.T) {
	overalls := []string{"0", "0.01", "19.99", "500", "12345.67"}
	coupons := []string{"-5", "0", "0.01", "10", "499.99", "100000"}

	for _, o := range overalls {
		for _, c := range coupons {
			q := &Quote{OverallProductPrice: quoted(o)}
			total := ComputeTotal(q, d(c))
			assert.False(t, total.IsNegative(), "overall=%s coupon=%s", o, c)
			assert.True(t, total.LessThanOrEqual(q.Overall()), "overall=%s coupon=%s", o, c)
		}
	}
}

func TestQuoteOverall_DerivedFromComponents(t *testing.T) {
	q := &Quote{
		Subtotal:        d("200"),
		ProductDiscount: d("30"),
		DeliveryFee:     d("9.99"),
		Tax:             d("18.01"),
	}

	assert.Equal(t, "198.00", Format(q.Overall()))
}

func TestQuoteOverall_QuotedZeroIsFree(t *testing.T) {
	q := &Quote{Subtotal: d("200"), DeliveryFee: d("10"), OverallProductPrice: quoted("0")}

	assert.True(t, q.Overall().IsZero())
	assert.True(t, ComputeTotal(q, d("20")).IsZero())
}

func TestQuoteOverall_JSONAbsentVersusZero(t *testing.T) {
	var absent, zero Quote
	require.NoError(t, json.Unmarshal([]byte(`{"subtotal":"120"}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"subtotal":"120","overallProductPrice":0}`), &zero))

	assert.Equal(t, "120.00", Format(absent.Overall()))
	assert.Equal(t, "0.00", Format(zero.Overall()))
}

func TestSummarize(t *testing.T) {
	q := &Quote{Subtotal: d("100"), DeliveryFee: d("5"), OverallProductPrice: quoted("105")}

	totals := Summarize(q, d("10.555"))

	assert.Equal(t, "105.00", Format(totals.OverallProductPrice))
	assert.Equal(t, "10.56", Format(totals.CouponDiscount))
	assert.Equal(t, "94.44", Format(totals.GrandTotal))
}

func TestValidateCart(t *testing.T) {
	assert.True(t, apperr.IsKind(ValidateCart(nil), apperr.KindValidation))
	assert.True(t, apperr.IsKind(ValidateCart([]CartItem{{ShopID: "S1", Quantity: 0}}), apperr.KindValidation))
	assert.True(t, apperr.IsKind(ValidateCart([]CartItem{{Quantity: 1}}), apperr.KindValidation))
	assert.True(t, apperr.IsKind(ValidateCart([]CartItem{{ShopID: "S1", Quantity: 1, DiscountPrice: d("-1")}}), apperr.KindValidation))
	assert.NoError(t, ValidateCart([]CartItem{{ShopID: "S1", Quantity: 1, DiscountPrice: d("1")}}))
}
