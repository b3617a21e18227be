package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/payment"
	"hrsaas/internal/platform/listing"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestApplyCoupon(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		coupon    Coupon
		wantDisc  string
		wantFinal string
	}{
		{"ten percent", "200", Coupon{Type: CouponPercentage, Value: dec("10")}, "20", "180"},
		{"flat above price", "30", Coupon{Type: CouponFlat, Value: dec("50")}, "30", "0"},
		{"flat below price", "99.99", Coupon{Type: CouponFlat, Value: dec("10")}, "10", "89.99"},
		{"rounded percentage", "10", Coupon{Type: CouponPercentage, Value: dec("33.333")}, "3.33", "6.67"},
		{"unknown type", "50", Coupon{Type: "bogus", Value: dec("10")}, "0", "50"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := ApplyCoupon(dec(tc.price), tc.coupon)
			assert.True(t, d.Amount.Equal(dec(tc.wantDisc)), "discount %s", d.Amount)
			assert.True(t, d.Final.Equal(dec(tc.wantFinal)), "final %s", d.Final)
		})
	}
}

func TestCheckCoupon(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	one := 1

	assert.NoError(t, CheckCoupon(Coupon{Status: StatusActive}, now))
	assert.NoError(t, CheckCoupon(Coupon{Status: StatusActive, ExpiresAt: &today}, now))
	assert.ErrorIs(t, CheckCoupon(Coupon{Status: StatusActive, ExpiresAt: &yesterday}, now), ErrCouponExpired)
	assert.ErrorIs(t, CheckCoupon(Coupon{Status: StatusInactive}, now), ErrCouponInactive)
	assert.ErrorIs(t, CheckCoupon(Coupon{Status: StatusActive, UsageLimit: &one, UsedCount: 1}, now), ErrCouponExhausted)
}

func TestValidateCoupon(t *testing.T) {
	zero := 0
	base := Coupon{Name: "Spring", Code: "SPRING", Type: CouponPercentage, Value: dec("10"), Status: StatusActive}
	assert.NoError(t, ValidateCoupon(base))

	over := base
	over.Value = dec("120")
	assert.ErrorIs(t, ValidateCoupon(over), ErrInvalidCoupon)

	flat := base
	flat.Type = CouponFlat
	flat.Value = dec("120")
	assert.NoError(t, ValidateCoupon(flat))

	limit := base
	limit.UsageLimit = &zero
	assert.ErrorIs(t, ValidateCoupon(limit), ErrInvalidCoupon)
}

func TestExpiryAfter(t *testing.T) {
	from := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC), ExpiryAfter(from, DurationYearly))
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), ExpiryAfter(from, DurationMonthly))
}

type fakeStore struct {
	StoreAPI
	plans    map[string]Plan
	coupons  map[string]Coupon
	orders   map[string]PlanOrder
	assigned map[string]string
	inUse    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans: map[string]Plan{
			"free":  {ID: "free", Name: "Free", IsDefault: true, Status: StatusActive},
			"pro":   {ID: "pro", Name: "Pro", MonthlyPrice: dec("30"), YearlyPrice: dec("300"), Status: StatusActive},
			"retro": {ID: "retro", Name: "Retro", MonthlyPrice: dec("5"), Status: StatusInactive},
		},
		coupons: map[string]Coupon{
			"BIG":  {ID: "c1", Code: "BIG", Type: CouponFlat, Value: dec("50"), Status: StatusActive},
			"TEN":  {ID: "c2", Code: "TEN", Type: CouponPercentage, Value: dec("10"), Status: StatusActive},
			"GONE": {ID: "c3", Code: "GONE", Type: CouponFlat, Value: dec("5"), Status: StatusInactive},
		},
		orders:   map[string]PlanOrder{},
		assigned: map[string]string{},
	}
}

func (f *fakeStore) GetPlan(_ context.Context, id string) (Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

func (f *fakeStore) PlanInUse(context.Context, string) (bool, error) { return f.inUse, nil }

func (f *fakeStore) DeletePlan(_ context.Context, id string) error {
	delete(f.plans, id)
	return nil
}

func (f *fakeStore) CouponByCode(_ context.Context, code string) (Coupon, error) {
	c, ok := f.coupons[strings.ToUpper(code)]
	if !ok {
		return Coupon{}, ErrCouponNotFound
	}
	return c, nil
}

func (f *fakeStore) FirstSuperAdmin(context.Context) (string, error) { return "admin", nil }

func (f *fakeStore) CompanyExists(_ context.Context, id string) (bool, error) {
	return id == "acme", nil
}

func (f *fakeStore) CreateOrder(_ context.Context, o PlanOrder, expiresAt time.Time) (string, error) {
	o.ID = "order-" + o.OrderNumber
	f.orders[o.ID] = o
	if o.Status == OrderApproved {
		f.assigned[o.CompanyID] = o.PlanID
	}
	return o.ID, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (PlanOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return PlanOrder{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) SetOrderStatus(_ context.Context, o PlanOrder, status string, _ time.Time) error {
	o.Status = status
	f.orders[o.ID] = o
	if status == OrderApproved {
		f.assigned[o.CompanyID] = o.PlanID
	}
	return nil
}

func (f *fakeStore) ListOrders(_ context.Context, companyID string, _ listing.Query) ([]PlanOrder, int, error) {
	out := []PlanOrder{}
	for _, o := range f.orders {
		if companyID == "" || o.CompanyID == companyID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

type fakePayments map[string]payment.Config

func (f fakePayments) Config(_ context.Context, userID, method string) (payment.Config, error) {
	if userID != "admin" {
		return payment.Config{}, payment.ErrNotConfigured
	}
	cfg, ok := f[method]
	if !ok {
		return payment.Config{}, payment.ErrMethodDisabled
	}
	return cfg, nil
}

func (f fakePayments) EnabledFor(_ context.Context, userID string) ([]payment.Method, error) {
	if userID != "admin" {
		return nil, nil
	}
	out := make([]payment.Method, 0, len(f))
	for method := range f {
		out = append(out, payment.Method{Method: method, Label: method})
	}
	return out, nil
}

func newService(store *fakeStore) *Service {
	svc := NewService(store, fakePayments{"bank_transfer": {Method: "bank_transfer"}})
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestQuote(t *testing.T) {
	svc := newService(newFakeStore())
	ctx := context.Background()

	q, err := svc.Quote(ctx, "pro", DurationYearly, "ten")
	require.NoError(t, err)
	assert.True(t, q.Discount.Equal(dec("30")))
	assert.True(t, q.FinalPrice.Equal(dec("270")))
	assert.Equal(t, "TEN", q.CouponCode)

	_, err = svc.Quote(ctx, "pro", "weekly", "")
	assert.ErrorIs(t, err, ErrInvalidDuration)
	_, err = svc.Quote(ctx, "retro", DurationMonthly, "")
	assert.ErrorIs(t, err, ErrPlanInactive)
	_, err = svc.Quote(ctx, "pro", DurationMonthly, "GONE")
	assert.ErrorIs(t, err, ErrCouponInactive)
	_, err = svc.Quote(ctx, "pro", DurationMonthly, "NOPE")
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCheckoutFreeOrderIsApproved(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	order, err := svc.Checkout(context.Background(), "acme", CheckoutInput{
		PlanID: "pro", Duration: DurationMonthly, CouponCode: "BIG", PaymentMethod: "stripe",
	})
	require.NoError(t, err)
	assert.Equal(t, OrderApproved, order.Status)
	assert.Equal(t, MethodFree, order.PaymentMethod)
	assert.True(t, order.FinalPrice.IsZero())
	assert.True(t, order.Discount.Equal(dec("30")))
	assert.Equal(t, "c1", order.CouponID)
	assert.Equal(t, "pro", store.assigned["acme"])
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
}

func TestCheckoutPaidOrderNeedsEnabledMethod(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, "acme", CheckoutInput{PlanID: "pro", Duration: DurationMonthly, PaymentMethod: "stripe"})
	assert.ErrorIs(t, err, payment.ErrMethodDisabled)

	order, err := svc.Checkout(ctx, "acme", CheckoutInput{
		PlanID: "pro", Duration: DurationMonthly, PaymentMethod: "bank_transfer", PaymentReference: " TX-1 ",
	})
	require.NoError(t, err)
	assert.Equal(t, OrderPending, order.Status)
	assert.Equal(t, "TX-1", order.PaymentReference)
	assert.Empty(t, store.assigned)

	approved, err := svc.ApproveOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderApproved, approved.Status)
	assert.Equal(t, "pro", store.assigned["acme"])

	_, err = svc.RejectOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderProcessed)
}

func TestCheckoutUnknownCompany(t *testing.T) {
	svc := newService(newFakeStore())
	_, err := svc.Checkout(context.Background(), "ghost", CheckoutInput{PlanID: "pro", Duration: DurationMonthly})
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestGetOrderHidesOtherCompanies(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = PlanOrder{ID: "o1", CompanyID: "other"}
	svc := newService(store)

	_, err := svc.GetOrder(context.Background(), "acme", "o1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	o, err := svc.GetOrder(context.Background(), "", "o1")
	require.NoError(t, err)
	assert.Equal(t, "other", o.CompanyID)
}

func TestDeletePlanGuards(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeletePlan(ctx, "free"), ErrDefaultPlan)
	store.inUse = true
	assert.ErrorIs(t, svc.DeletePlan(ctx, "pro"), ErrPlanInUse)
	store.inUse = false
	require.NoError(t, svc.DeletePlan(ctx, "pro"))
	assert.NotContains(t, store.plans, "pro")
}

func TestPaymentMethodsUseOwnerSettings(t *testing.T) {
	svc := newService(newFakeStore())
	methods, err := svc.PaymentMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "bank_transfer", methods[0].Method)
}

type expiryStore struct {
	fakeStore
	today time.Time
}

func (e *expiryStore) ExpirePlans(_ context.Context, today time.Time) ([]string, error) {
	e.today = today
	return []string{"acme"}, nil
}

func TestExpirePlansUsesStartOfDay(t *testing.T) {
	store := &expiryStore{}
	svc := NewService(store, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 22, 30, 0, 0, time.UTC) }

	ids, err := svc.ExpirePlans(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "acme" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC); !store.today.Equal(want) {
		t.Fatalf("today = %v, want %v", store.today, want)
	}
}
