package billing

import "errors"

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrPlanInactive    = errors.New("plan is not available")
	ErrPlanInUse       = errors.New("plan is assigned to companies or orders")
	ErrPlanNameTaken   = errors.New("plan name already exists")
	ErrDefaultPlan     = errors.New("default plan cannot be deleted or deactivated")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponExpired   = errors.New("coupon has expired")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	ErrCouponCodeTaken = errors.New("coupon code already exists")
	ErrInvalidCoupon   = errors.New("invalid coupon")
	ErrInvalidDuration = errors.New("duration must be monthly or yearly")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderProcessed  = errors.New("order has already been processed")
	ErrCompanyNotFound = errors.New("company not found")
	ErrNoPlatformOwner = errors.New("no superadmin configured to receive payments")
	ErrInvalidPlan     = errors.New("invalid plan")
)
