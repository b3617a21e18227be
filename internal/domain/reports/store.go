package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type StoreAPI interface {
	Employee(ctx context.Context, ownerID, employeeID string, now time.Time) (EmployeeDashboard, error)
	Company(ctx context.Context, ownerID string, now time.Time) (CompanyDashboard, error)
	Admin(ctx context.Context) (AdminDashboard, error)
	JobRuns(ctx context.Context, q listing.Query) ([]JobRun, int, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func (s *Store) Employee(ctx context.Context, ownerID, employeeID string, now time.Time) (EmployeeDashboard, error) {
	var d EmployeeDashboard
	var err error
	if d.Payslips, err = s.count(ctx, "SELECT COUNT(1) FROM payslips WHERE created_by = $1 AND employee_id = $2", ownerID, employeeID); err != nil {
		return d, err
	}
	var net decimal.Decimal
	err = s.DB.QueryRow(ctx, `
    SELECT net, period FROM payslips
    WHERE created_by = $1 AND employee_id = $2
    ORDER BY period DESC LIMIT 1
  `, ownerID, employeeID).Scan(&net, &d.LatestPeriod)
	switch {
	case err == nil:
		d.LatestNet = &net
	case !errors.Is(err, pgx.ErrNoRows):
		return d, err
	}
	if d.OpenComplaints, err = s.count(ctx, "SELECT COUNT(1) FROM complaints WHERE created_by = $1 AND employee_id = $2 AND status NOT IN ('resolved','dismissed')", ownerID, employeeID); err != nil {
		return d, err
	}
	if d.ActiveTrips, err = s.count(ctx, "SELECT COUNT(1) FROM trips WHERE created_by = $1 AND employee_id = $2 AND status IN ('planned','ongoing')", ownerID, employeeID); err != nil {
		return d, err
	}
	if d.UpcomingTrainings, err = s.count(ctx, `
    SELECT COUNT(1) FROM training_attendances a
    JOIN training_sessions s ON s.id = a.session_id
    WHERE s.created_by = $1 AND a.employee_id = $2 AND s.status = 'scheduled' AND s.start_at >= $3
  `, ownerID, employeeID, now); err != nil {
		return d, err
	}
	d.PublishedReviews, err = s.count(ctx, "SELECT COUNT(1) FROM performance_reviews WHERE created_by = $1 AND employee_id = $2 AND status <> 'draft'", ownerID, employeeID)
	return d, err
}

func (s *Store) Company(ctx context.Context, ownerID string, now time.Time) (CompanyDashboard, error) {
	var d CompanyDashboard
	var err error
	if err = s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FILTER (WHERE type = 'employee'), COUNT(1) FILTER (WHERE type = 'hr')
    FROM users WHERE created_by = $1
  `, ownerID).Scan(&d.Employees, &d.HRUsers); err != nil {
		return d, err
	}
	if d.OpenComplaints, err = s.count(ctx, "SELECT COUNT(1) FROM complaints WHERE created_by = $1 AND status NOT IN ('resolved','dismissed')", ownerID); err != nil {
		return d, err
	}
	if d.ActiveTrips, err = s.count(ctx, "SELECT COUNT(1) FROM trips WHERE created_by = $1 AND status IN ('planned','ongoing')", ownerID); err != nil {
		return d, err
	}
	if d.UpcomingTrainings, err = s.count(ctx, "SELECT COUNT(1) FROM training_sessions WHERE created_by = $1 AND status = 'scheduled' AND start_at >= $2", ownerID, now); err != nil {
		return d, err
	}
	if d.PayslipsThisMonth, err = s.count(ctx, "SELECT COUNT(1) FROM payslips WHERE created_by = $1 AND period = $2", ownerID, now.Format("2006-01")); err != nil {
		return d, err
	}
	err = s.DB.QueryRow(ctx, `
    SELECT COALESCE(p.name, ''), u.plan_expire_date
    FROM users u LEFT JOIN plans p ON p.id = u.plan_id
    WHERE u.id::text = $1
  `, ownerID).Scan(&d.PlanName, &d.PlanExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		err = nil
	}
	return d, err
}

func (s *Store) Admin(ctx context.Context) (AdminDashboard, error) {
	var d AdminDashboard
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COUNT(1) FILTER (WHERE status = 'active')
    FROM users WHERE type = 'company'
  `).Scan(&d.Companies, &d.ActiveCompanies); err != nil {
		return d, err
	}
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FILTER (WHERE status = 'pending'),
      COALESCE(SUM(final_price) FILTER (WHERE status = 'approved'), 0)
    FROM plan_orders
  `).Scan(&d.PendingOrders, &d.ApprovedRevenue)
	return d, err
}

var jobSorts = map[string]string{
	"startedAt": "started_at",
	"jobType":   "job_type",
	"status":    "status",
}

func (s *Store) JobRuns(ctx context.Context, q listing.Query) ([]JobRun, int, error) {
	where := listing.NewWhere("")
	if q.Status != "" {
		where.Add("status = ?", q.Status)
	}
	if t := q.Filter("job_type"); t != "" {
		where.Add("job_type = ?", t)
	}
	if owner := q.Filter("owner_id"); owner != "" {
		where.Add("owner_id = ?", owner)
	}

	total, err := s.count(ctx, "SELECT COUNT(1) FROM job_runs"+where.SQL(), where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, jobSorts, "started_at")
	rows, err := s.DB.Query(ctx, `SELECT id, owner_id, job_type, status, COALESCE(details_json, 'null'::jsonb), started_at, completed_at
    FROM job_runs`+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []JobRun{}
	for rows.Next() {
		var run JobRun
		var details []byte
		if err := rows.Scan(&run.ID, &run.OwnerID, &run.Type, &run.Status, &details, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, 0, err
		}
		if string(details) != "null" {
			run.Details = details
		}
		out = append(out, run)
	}
	return out, total, rows.Err()
}
