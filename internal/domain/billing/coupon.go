package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyCoupon computes the discount of a coupon on price. The discount never
// goes below zero or above the price.
func ApplyCoupon(price decimal.Decimal, c Coupon) Discount {
	var amount decimal.Decimal
	switch c.Type {
	case CouponPercentage:
		amount = price.Mul(c.Value).Div(hundred)
	case CouponFlat:
		amount = c.Value
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if amount.GreaterThan(price) {
		amount = price
	}
	amount = amount.Round(2)
	return Discount{Amount: amount, Final: price.Sub(amount).Round(2)}
}

// CheckCoupon reports why a coupon cannot be redeemed at now, if it cannot.
func CheckCoupon(c Coupon, now time.Time) error {
	if c.Status != StatusActive {
		return ErrCouponInactive
	}
	if c.ExpiresAt != nil {
		y, m, d := c.ExpiresAt.Date()
		endOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		if !now.Before(endOfDay) {
			return ErrCouponExpired
		}
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrCouponExhausted
	}
	return nil
}

func ValidateCoupon(c Coupon) error {
	if c.Name == "" || c.Code == "" {
		return ErrInvalidCoupon
	}
	if c.Type != CouponPercentage && c.Type != CouponFlat {
		return ErrInvalidCoupon
	}
	if !c.Value.IsPositive() {
		return ErrInvalidCoupon
	}
	if c.Type == CouponPercentage && c.Value.GreaterThan(hundred) {
		return ErrInvalidCoupon
	}
	if c.UsageLimit != nil && *c.UsageLimit < 1 {
		return ErrInvalidCoupon
	}
	if c.Status != StatusActive && c.Status != StatusInactive {
		return ErrInvalidCoupon
	}
	return nil
}

// ExpiryAfter returns the plan expiry for a purchase made at from.
func ExpiryAfter(from time.Time, duration string) time.Time {
	if duration == DurationYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
