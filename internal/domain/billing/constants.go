package billing

const (
	DurationMonthly = "monthly"
	DurationYearly  = "yearly"

	CouponPercentage = "percentage"
	CouponFlat       = "flat"

	StatusActive   = "active"
	StatusInactive = "inactive"

	OrderPending  = "pending"
	OrderApproved = "approved"
	OrderRejected = "rejected"

	// MethodFree marks orders that cost nothing after discounts.
	MethodFree = "free"
)
