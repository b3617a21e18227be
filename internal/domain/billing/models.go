package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	MonthlyPrice decimal.Decimal `json:"monthlyPrice"`
	YearlyPrice  decimal.Decimal `json:"yearlyPrice"`
	MaxUsers     int             `json:"maxUsers"`
	MaxEmployees int             `json:"maxEmployees"`
	TrialDays    int             `json:"trialDays"`
	IsDefault    bool            `json:"isDefault"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (p Plan) Price(duration string) (decimal.Decimal, error) {
	switch duration {
	case DurationMonthly:
		return p.MonthlyPrice, nil
	case DurationYearly:
		return p.YearlyPrice, nil
	default:
		return decimal.Zero, ErrInvalidDuration
	}
}

type Coupon struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	UsageLimit *int            `json:"usageLimit,omitempty"`
	UsedCount  int             `json:"usedCount"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Discount struct {
	Amount decimal.Decimal `json:"amount"`
	Final  decimal.Decimal `json:"final"`
}

type PlanOrder struct {
	ID               string          `json:"id"`
	OrderNumber      string          `json:"orderNumber"`
	CompanyID        string          `json:"companyId"`
	CompanyName      string          `json:"companyName"`
	PlanID           string          `json:"planId"`
	PlanName         string          `json:"planName"`
	Duration         string          `json:"duration"`
	OriginalPrice    decimal.Decimal `json:"originalPrice"`
	CouponID         string          `json:"couponId,omitempty"`
	CouponCode       string          `json:"couponCode,omitempty"`
	Discount         decimal.Decimal `json:"discount"`
	FinalPrice       decimal.Decimal `json:"finalPrice"`
	PaymentMethod    string          `json:"paymentMethod"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	ProcessedAt      *time.Time      `json:"processedAt,omitempty"`
}

type CheckoutInput struct {
	PlanID           string
	Duration         string
	CouponCode       string
	PaymentMethod    string
	PaymentReference string
}

// Quote is the price breakdown shown before checkout.
type Quote struct {
	Plan          Plan            `json:"plan"`
	Duration      string          `json:"duration"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	CouponCode    string          `json:"couponCode,omitempty"`
	Discount      decimal.Decimal `json:"discount"`
	FinalPrice    decimal.Decimal `json:"finalPrice"`
	coupon        *Coupon
}
