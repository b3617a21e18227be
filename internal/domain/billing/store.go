package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const planColumns = `id, name, description, monthly_price, yearly_price, max_users, max_employees,
  trial_days, is_default, status, created_at`

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.MonthlyPrice, &p.YearlyPrice, &p.MaxUsers,
		&p.MaxEmployees, &p.TrialDays, &p.IsDefault, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrPlanNotFound
	}
	return p, err
}

var planSorts = map[string]string{
	"name":         "name",
	"monthlyPrice": "monthly_price",
	"yearlyPrice":  "yearly_price",
	"createdAt":    "created_at",
}

func (s *Store) ListPlans(ctx context.Context, q listing.Query) ([]Plan, int, error) {
	where := &listing.Where{}
	where.Search(q.Search, "name", "description")
	if q.Status != "" {
		where.Add("status = ?", q.Status)
	}
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM plans"+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, args := where.PageSQL(q, planSorts, "monthly_price")
	rows, err := s.DB.Query(ctx, "SELECT "+planColumns+" FROM plans"+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Store) GetPlan(ctx context.Context, id string) (Plan, error) {
	return scanPlan(s.DB.QueryRow(ctx, "SELECT "+planColumns+" FROM plans WHERE id::text = $1", id))
}

func (s *Store) CreatePlan(ctx context.Context, p Plan) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO plans (name, description, monthly_price, yearly_price, max_users, max_employees, trial_days, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, p.Name, p.Description, p.MonthlyPrice, p.YearlyPrice, p.MaxUsers, p.MaxEmployees, p.TrialDays, p.Status).Scan(&id)
	return id, uniqueAs(err, ErrPlanNameTaken)
}

func (s *Store) UpdatePlan(ctx context.Context, p Plan) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE plans SET name = $2, description = $3, monthly_price = $4, yearly_price = $5,
      max_users = $6, max_employees = $7, trial_days = $8, status = $9, updated_at = now()
    WHERE id::text = $1
  `, p.ID, p.Name, p.Description, p.MonthlyPrice, p.YearlyPrice, p.MaxUsers, p.MaxEmployees, p.TrialDays, p.Status)
	if err = uniqueAs(err, ErrPlanNameTaken); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (s *Store) PlanInUse(ctx context.Context, id string) (bool, error) {
	var used bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM users WHERE plan_id::text = $1)
        OR EXISTS (SELECT 1 FROM plan_orders WHERE plan_id::text = $1)
  `, id).Scan(&used)
	return used, err
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM plans WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

const couponColumns = `id, name, code, type, value, usage_limit, used_count, expires_at, status, created_at`

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Type, &c.Value, &c.UsageLimit, &c.UsedCount, &c.ExpiresAt, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Coupon{}, ErrCouponNotFound
	}
	return c, err
}

var couponSorts = map[string]string{
	"name":      "name",
	"code":      "code",
	"value":     "value",
	"usedCount": "used_count",
	"expiresAt": "expires_at",
	"createdAt": "created_at",
}

func (s *Store) ListCoupons(ctx context.Context, q listing.Query) ([]Coupon, int, error) {
	where := &listing.Where{}
	where.Search(q.Search, "name", "code")
	if q.Status != "" {
		where.Add("status = ?", q.Status)
	}
	if t := q.Filter("type"); t != "" {
		where.Add("type = ?", t)
	}
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM coupons"+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, couponSorts, "created_at")
	rows, err := s.DB.Query(ctx, "SELECT "+couponColumns+" FROM coupons"+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *Store) GetCoupon(ctx context.Context, id string) (Coupon, error) {
	return scanCoupon(s.DB.QueryRow(ctx, "SELECT "+couponColumns+" FROM coupons WHERE id::text = $1", id))
}

func (s *Store) CouponByCode(ctx context.Context, code string) (Coupon, error) {
	return scanCoupon(s.DB.QueryRow(ctx, "SELECT "+couponColumns+" FROM coupons WHERE upper(code) = upper($1)", strings.TrimSpace(code)))
}

func (s *Store) CreateCoupon(ctx context.Context, c Coupon) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO coupons (name, code, type, value, usage_limit, expires_at, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, c.Name, c.Code, c.Type, c.Value, c.UsageLimit, c.ExpiresAt, c.Status).Scan(&id)
	return id, uniqueAs(err, ErrCouponCodeTaken)
}

func (s *Store) UpdateCoupon(ctx context.Context, c Coupon) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE coupons SET name = $2, code = $3, type = $4, value = $5, usage_limit = $6, expires_at = $7, status = $8
    WHERE id::text = $1
  `, c.ID, c.Name, c.Code, c.Type, c.Value, c.UsageLimit, c.ExpiresAt, c.Status)
	if err = uniqueAs(err, ErrCouponCodeTaken); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM coupons WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (s *Store) FirstSuperAdmin(ctx context.Context) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE type = 'superadmin' ORDER BY created_at LIMIT 1").Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoPlatformOwner
	}
	return id, err
}

func (s *Store) CompanyExists(ctx context.Context, companyID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id::text = $1 AND type = 'company')", companyID).Scan(&exists)
	return exists, err
}

// CreateOrder records the order and redeems its coupon in one transaction.
// An approved order also assigns the plan to the company.
func (s *Store) CreateOrder(ctx context.Context, o PlanOrder, expiresAt time.Time) (string, error) {
	var id string
	err := querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		if o.CouponID != "" {
			tag, err := q.Exec(ctx, `
        UPDATE coupons SET used_count = used_count + 1
        WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
      `, o.CouponID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return ErrCouponExhausted
			}
		}
		var couponID any
		if o.CouponID != "" {
			couponID = o.CouponID
		}
		if err := q.QueryRow(ctx, `
      INSERT INTO plan_orders (order_number, company_id, plan_id, duration, original_price, coupon_id, coupon_code,
        discount, final_price, payment_method, payment_reference, status, processed_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, CASE WHEN $12 = 'approved' THEN now() END)
      RETURNING id
    `, o.OrderNumber, o.CompanyID, o.PlanID, o.Duration, o.OriginalPrice, couponID, o.CouponCode,
			o.Discount, o.FinalPrice, o.PaymentMethod, o.PaymentReference, o.Status).Scan(&id); err != nil {
			return err
		}
		if o.Status == OrderApproved {
			return assignPlan(ctx, q, o.CompanyID, o.PlanID, expiresAt)
		}
		return nil
	})
	return id, err
}

const orderColumns = `o.id, o.order_number, o.company_id, u.name, o.plan_id, p.name, o.duration, o.original_price,
  COALESCE(o.coupon_id::text, ''), o.coupon_code, o.discount, o.final_price, o.payment_method, o.payment_reference,
  o.status, o.created_at, o.processed_at`

const orderFrom = ` FROM plan_orders o JOIN users u ON u.id = o.company_id JOIN plans p ON p.id = o.plan_id`

func scanOrder(row pgx.Row) (PlanOrder, error) {
	var o PlanOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CompanyID, &o.CompanyName, &o.PlanID, &o.PlanName, &o.Duration,
		&o.OriginalPrice, &o.CouponID, &o.CouponCode, &o.Discount, &o.FinalPrice, &o.PaymentMethod,
		&o.PaymentReference, &o.Status, &o.CreatedAt, &o.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PlanOrder{}, ErrOrderNotFound
	}
	return o, err
}

var orderSorts = map[string]string{
	"orderNumber": "o.order_number",
	"company":     "u.name",
	"plan":        "p.name",
	"finalPrice":  "o.final_price",
	"status":      "o.status",
	"createdAt":   "o.created_at",
}

// ListOrders lists orders; companyID narrows to one company when set.
func (s *Store) ListOrders(ctx context.Context, companyID string, q listing.Query) ([]PlanOrder, int, error) {
	where := &listing.Where{}
	if companyID != "" {
		where.Add("o.company_id::text = ?", companyID)
	}
	where.Search(q.Search, "o.order_number", "u.name", "p.name", "o.coupon_code")
	if q.Status != "" {
		where.Add("o.status = ?", q.Status)
	}
	if m := q.Filter("payment_method"); m != "" {
		where.Add("o.payment_method = ?", m)
	}
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+orderFrom+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, orderSorts, "o.created_at")
	rows, err := s.DB.Query(ctx, "SELECT "+orderColumns+orderFrom+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []PlanOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id string) (PlanOrder, error) {
	return scanOrder(s.DB.QueryRow(ctx, "SELECT "+orderColumns+orderFrom+" WHERE o.id::text = $1", id))
}

// SetOrderStatus moves a pending order to status, assigning the plan when
// approved and releasing the coupon redemption when rejected.
func (s *Store) SetOrderStatus(ctx context.Context, o PlanOrder, status string, expiresAt time.Time) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		tag, err := q.Exec(ctx, `
      UPDATE plan_orders SET status = $2, processed_at = now()
      WHERE id = $1 AND status = 'pending'
    `, o.ID, status)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrOrderProcessed
		}
		if status == OrderRejected && o.CouponID != "" {
			if _, err := q.Exec(ctx, `
        UPDATE coupons SET used_count = GREATEST(used_count - 1, 0) WHERE id::text = $1
      `, o.CouponID); err != nil {
				return err
			}
		}
		if status == OrderApproved {
			return assignPlan(ctx, q, o.CompanyID, o.PlanID, expiresAt)
		}
		return nil
	})
}

func (s *Store) AssignPlan(ctx context.Context, companyID, planID string, expiresAt time.Time) error {
	return assignPlan(ctx, s.DB, companyID, planID, expiresAt)
}

func assignPlan(ctx context.Context, q querier.Querier, companyID, planID string, expiresAt time.Time) error {
	var expiry any
	if !expiresAt.IsZero() {
		expiry = expiresAt
	}
	tag, err := q.Exec(ctx, `
    UPDATE users SET plan_id = $2, plan_expire_date = $3, updated_at = now()
    WHERE id::text = $1 AND type = 'company'
  `, companyID, planID, expiry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func (s *Store) ExpirePlans(ctx context.Context, today time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    UPDATE users u SET plan_id = d.id, plan_expire_date = NULL, updated_at = now()
    FROM (SELECT id FROM plans WHERE is_default ORDER BY created_at LIMIT 1) d
    WHERE u.type = 'company' AND u.plan_expire_date IS NOT NULL AND u.plan_expire_date < $1
    RETURNING u.id::text
  `, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func uniqueAs(err, target error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return target
	}
	return err
}
