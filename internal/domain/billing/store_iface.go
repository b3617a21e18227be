package billing

import (
	"context"
	"time"

	"hrsaas/internal/platform/listing"
)

type StoreAPI interface {
	ListPlans(ctx context.Context, q listing.Query) ([]Plan, int, error)
	GetPlan(ctx context.Context, id string) (Plan, error)
	CreatePlan(ctx context.Context, p Plan) (string, error)
	UpdatePlan(ctx context.Context, p Plan) error
	PlanInUse(ctx context.Context, id string) (bool, error)
	DeletePlan(ctx context.Context, id string) error

	ListCoupons(ctx context.Context, q listing.Query) ([]Coupon, int, error)
	GetCoupon(ctx context.Context, id string) (Coupon, error)
	CouponByCode(ctx context.Context, code string) (Coupon, error)
	CreateCoupon(ctx context.Context, c Coupon) (string, error)
	UpdateCoupon(ctx context.Context, c Coupon) error
	DeleteCoupon(ctx context.Context, id string) error

	FirstSuperAdmin(ctx context.Context) (string, error)
	CompanyExists(ctx context.Context, companyID string) (bool, error)
	CreateOrder(ctx context.Context, o PlanOrder, expiresAt time.Time) (string, error)
	ListOrders(ctx context.Context, companyID string, q listing.Query) ([]PlanOrder, int, error)
	GetOrder(ctx context.Context, id string) (PlanOrder, error)
	SetOrderStatus(ctx context.Context, o PlanOrder, status string, expiresAt time.Time) error
	AssignPlan(ctx context.Context, companyID, planID string, expiresAt time.Time) error
	ExpirePlans(ctx context.Context, today time.Time) ([]string, error)
}

var _ StoreAPI = (*Store)(nil)
