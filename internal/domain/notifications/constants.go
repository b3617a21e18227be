package notifications

const (
	TypePayslipPublished  = "payslip_published"
	TypeComplaintStatus   = "complaint_status"
	TypeTripStatus        = "trip_status"
	TypeTrainingEnrolled  = "training_enrolled"
	TypeReviewPublished   = "review_published"
	TypePlanOrderApproved = "plan_order_approved"
	TypePlanOrderRejected = "plan_order_rejected"
	TypePlanExpired       = "plan_expired"
)
