package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrsaas/internal/domain/payment"
	"hrsaas/internal/platform/listing"
)

// PaymentConfigs resolves gateway configuration from a user's payment
// settings.
type PaymentConfigs interface {
	Config(ctx context.Context, userID, method string) (payment.Config, error)
	EnabledFor(ctx context.Context, userID string) ([]payment.Method, error)
}

type Service struct {
	store    StoreAPI
	payments PaymentConfigs
	now      func() time.Time
}

func NewService(store StoreAPI, payments PaymentConfigs) *Service {
	return &Service{store: store, payments: payments, now: time.Now}
}

func (s *Service) ListPlans(ctx context.Context, q listing.Query) (listing.Page[Plan], error) {
	items, total, err := s.store.ListPlans(ctx, q)
	if err != nil {
		return listing.Page[Plan]{}, err
	}
	return listing.Page[Plan]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetPlan(ctx context.Context, id string) (Plan, error) {
	return s.store.GetPlan(ctx, id)
}

func (s *Service) CreatePlan(ctx context.Context, p Plan) (Plan, error) {
	p = normalizePlan(p)
	if err := validatePlan(p); err != nil {
		return Plan{}, err
	}
	id, err := s.store.CreatePlan(ctx, p)
	if err != nil {
		return Plan{}, fmt.Errorf("create plan: %w", err)
	}
	return s.store.GetPlan(ctx, id)
}

func (s *Service) UpdatePlan(ctx context.Context, p Plan) (Plan, error) {
	p = normalizePlan(p)
	if err := validatePlan(p); err != nil {
		return Plan{}, err
	}
	current, err := s.store.GetPlan(ctx, p.ID)
	if err != nil {
		return Plan{}, err
	}
	if current.IsDefault && p.Status != StatusActive {
		return Plan{}, ErrDefaultPlan
	}
	if err := s.store.UpdatePlan(ctx, p); err != nil {
		return Plan{}, err
	}
	return s.store.GetPlan(ctx, p.ID)
}

// DeletePlan refuses the default plan and plans referenced by a company or
// an order.
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	p, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if p.IsDefault {
		return ErrDefaultPlan
	}
	used, err := s.store.PlanInUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return ErrPlanInUse
	}
	return s.store.DeletePlan(ctx, id)
}

func normalizePlan(p Plan) Plan {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Status == "" {
		p.Status = StatusActive
	}
	return p
}

func validatePlan(p Plan) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	case p.MonthlyPrice.IsNegative() || p.YearlyPrice.IsNegative():
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidPlan)
	case p.MaxUsers < 0 || p.MaxEmployees < 0 || p.TrialDays < 0:
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidPlan)
	case p.Status != StatusActive && p.Status != StatusInactive:
		return fmt.Errorf("%w: status must be active or inactive", ErrInvalidPlan)
	}
	return nil
}

func (s *Service) ListCoupons(ctx context.Context, q listing.Query) (listing.Page[Coupon], error) {
	items, total, err := s.store.ListCoupons(ctx, q)
	if err != nil {
		return listing.Page[Coupon]{}, err
	}
	return listing.Page[Coupon]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetCoupon(ctx context.Context, id string) (Coupon, error) {
	return s.store.GetCoupon(ctx, id)
}

func (s *Service) CreateCoupon(ctx context.Context, c Coupon) (Coupon, error) {
	c = normalizeCoupon(c)
	if err := ValidateCoupon(c); err != nil {
		return Coupon{}, err
	}
	id, err := s.store.CreateCoupon(ctx, c)
	if err != nil {
		return Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	return s.store.GetCoupon(ctx, id)
}

func (s *Service) UpdateCoupon(ctx context.Context, c Coupon) (Coupon, error) {
	c = normalizeCoupon(c)
	if err := ValidateCoupon(c); err != nil {
		return Coupon{}, err
	}
	if err := s.store.UpdateCoupon(ctx, c); err != nil {
		return Coupon{}, err
	}
	return s.store.GetCoupon(ctx, c.ID)
}

func (s *Service) DeleteCoupon(ctx context.Context, id string) error {
	return s.store.DeleteCoupon(ctx, id)
}

func normalizeCoupon(c Coupon) Coupon {
	c.Name = strings.TrimSpace(c.Name)
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Status == "" {
		c.Status = StatusActive
	}
	return c
}

// Quote prices a plan for duration with an optional coupon code.
func (s *Service) Quote(ctx context.Context, planID, duration, couponCode string) (Quote, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return Quote{}, err
	}
	if plan.Status != StatusActive {
		return Quote{}, ErrPlanInactive
	}
	price, err := plan.Price(duration)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{Plan: plan, Duration: duration, OriginalPrice: price, FinalPrice: price}
	code := strings.TrimSpace(couponCode)
	if code == "" {
		return q, nil
	}
	coupon, err := s.store.CouponByCode(ctx, code)
	if err != nil {
		return Quote{}, err
	}
	if err := CheckCoupon(coupon, s.now()); err != nil {
		return Quote{}, err
	}
	d := ApplyCoupon(price, coupon)
	q.CouponCode = coupon.Code
	q.Discount = d.Amount
	q.FinalPrice = d.Final
	q.coupon = &coupon
	return q, nil
}

// Checkout records a plan order for companyID. Free orders are approved and
// the plan assigned at once; paid orders need a method enabled in the
// platform owner's payment settings and stay pending until processed.
func (s *Service) Checkout(ctx context.Context, companyID string, in CheckoutInput) (PlanOrder, error) {
	ok, err := s.store.CompanyExists(ctx, companyID)
	if err != nil {
		return PlanOrder{}, err
	}
	if !ok {
		return PlanOrder{}, ErrCompanyNotFound
	}
	q, err := s.Quote(ctx, in.PlanID, in.Duration, in.CouponCode)
	if err != nil {
		return PlanOrder{}, err
	}

	order := PlanOrder{
		OrderNumber:      NewOrderNumber(),
		CompanyID:        companyID,
		PlanID:           q.Plan.ID,
		Duration:         q.Duration,
		OriginalPrice:    q.OriginalPrice,
		CouponCode:       q.CouponCode,
		Discount:         q.Discount,
		FinalPrice:       q.FinalPrice,
		PaymentReference: strings.TrimSpace(in.PaymentReference),
		Status:           OrderPending,
	}
	if q.coupon != nil {
		order.CouponID = q.coupon.ID
	}

	var expiresAt time.Time
	if q.FinalPrice.IsZero() {
		order.PaymentMethod = MethodFree
		order.Status = OrderApproved
		expiresAt = ExpiryAfter(s.now(), q.Duration)
	} else {
		owner, err := s.store.FirstSuperAdmin(ctx)
		if err != nil {
			return PlanOrder{}, err
		}
		cfg, err := s.payments.Config(ctx, owner, in.PaymentMethod)
		if err != nil {
			return PlanOrder{}, err
		}
		order.PaymentMethod = cfg.Method
	}

	id, err := s.store.CreateOrder(ctx, order, expiresAt)
	if err != nil {
		return PlanOrder{}, fmt.Errorf("create order: %w", err)
	}
	return s.store.GetOrder(ctx, id)
}

// PaymentMethods lists the methods companies can pay with: those enabled in
// the platform owner's payment settings.
func (s *Service) PaymentMethods(ctx context.Context) ([]payment.Method, error) {
	owner, err := s.store.FirstSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	return s.payments.EnabledFor(ctx, owner)
}

// NewOrderNumber returns a short unique order reference.
func NewOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:12])
}

// ListOrders returns every order when companyID is empty, otherwise only the
// company's own.
func (s *Service) ListOrders(ctx context.Context, companyID string, q listing.Query) (listing.Page[PlanOrder], error) {
	items, total, err := s.store.ListOrders(ctx, companyID, q)
	if err != nil {
		return listing.Page[PlanOrder]{}, err
	}
	return listing.Page[PlanOrder]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetOrder(ctx context.Context, companyID, id string) (PlanOrder, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return PlanOrder{}, err
	}
	if companyID != "" && o.CompanyID != companyID {
		return PlanOrder{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) ApproveOrder(ctx context.Context, id string) (PlanOrder, error) {
	return s.process(ctx, id, OrderApproved)
}

func (s *Service) RejectOrder(ctx context.Context, id string) (PlanOrder, error) {
	return s.process(ctx, id, OrderRejected)
}

func (s *Service) process(ctx context.Context, id, status string) (PlanOrder, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return PlanOrder{}, err
	}
	if o.Status != OrderPending {
		return PlanOrder{}, ErrOrderProcessed
	}
	var expiresAt time.Time
	if status == OrderApproved {
		expiresAt = ExpiryAfter(s.now(), o.Duration)
	}
	if err := s.store.SetOrderStatus(ctx, o, status, expiresAt); err != nil {
		return PlanOrder{}, err
	}
	return s.store.GetOrder(ctx, id)
}

// AssignPlan sets a company's plan directly. A zero expiry means the plan
// does not expire.
func (s *Service) AssignPlan(ctx context.Context, companyID, planID string, expiresAt time.Time) error {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return err
	}
	return s.store.AssignPlan(ctx, companyID, planID, expiresAt)
}

// ExpirePlans moves companies whose plan expired before today back to the
// default plan and returns their ids.
func (s *Service) ExpirePlans(ctx context.Context) ([]string, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.store.ExpirePlans(ctx, today)
}
