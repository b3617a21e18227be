package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

var componentSorts = map[string]string{
	"name":      "name",
	"type":      "type",
	"status":    "status",
	"createdAt": "created_at",
}

func (s *Store) ListComponents(ctx context.Context, ownerID string, q listing.Query) ([]SalaryComponent, int, error) {
	where := listing.NewWhere("created_by = ?", ownerID)
	where.Search(q.Search, "name", "description")
	if q.Status != "" {
		where.Add("status = ?", q.Status)
	}
	if t := q.Filter("type"); t != "" {
		where.Add("type = ?", t)
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM salary_components"+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, args := where.PageSQL(q, componentSorts, "name")
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, type, calculation_type, default_value, description, status, created_at
    FROM salary_components`+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []SalaryComponent{}
	for rows.Next() {
		var c SalaryComponent
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CalculationType, &c.DefaultValue, &c.Description, &c.Status, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *Store) GetComponent(ctx context.Context, ownerID, id string) (SalaryComponent, error) {
	var c SalaryComponent
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, type, calculation_type, default_value, description, status, created_at
    FROM salary_components WHERE created_by = $1 AND id::text = $2
  `, ownerID, id).Scan(&c.ID, &c.Name, &c.Type, &c.CalculationType, &c.DefaultValue, &c.Description, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SalaryComponent{}, ErrComponentNotFound
	}
	return c, err
}

func (s *Store) CreateComponent(ctx context.Context, ownerID string, c SalaryComponent) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO salary_components (created_by, name, type, calculation_type, default_value, description, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, ownerID, c.Name, c.Type, c.CalculationType, c.DefaultValue, c.Description, c.Status).Scan(&id)
	return id, err
}

func (s *Store) UpdateComponent(ctx context.Context, ownerID string, c SalaryComponent) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE salary_components
    SET name = $3, type = $4, calculation_type = $5, default_value = $6, description = $7, status = $8
    WHERE created_by = $1 AND id::text = $2
  `, ownerID, c.ID, c.Name, c.Type, c.CalculationType, c.DefaultValue, c.Description, c.Status)
	return affected(tag, err, ErrComponentNotFound)
}

func (s *Store) DeleteComponent(ctx context.Context, ownerID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM salary_components WHERE created_by = $1 AND id::text = $2", ownerID, id)
	return affected(tag, err, ErrComponentNotFound)
}

// ComponentsOwned reports whether every id belongs to ownerID.
func (s *Store) ComponentsOwned(ctx context.Context, ownerID string, ids []string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT id) FROM salary_components WHERE created_by = $1 AND id::text = ANY($2)
  `, ownerID, ids).Scan(&count)
	return count == len(uniq(ids)), err
}

func (s *Store) Employee(ctx context.Context, ownerID, employeeID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, email FROM users
    WHERE id::text = $1 AND created_by = $2 AND type IN ('hr','employee')
  `, employeeID, ownerID).Scan(&e.ID, &e.Name, &e.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, err
}

var salarySorts = map[string]string{
	"employee":    "u.name",
	"basicSalary": "s.basic_salary",
	"status":      "s.status",
	"createdAt":   "s.created_at",
}

func (s *Store) ListSalaries(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]EmployeeSalary, int, error) {
	where := listing.NewWhere("s.created_by = ?", scope.OwnerID)
	where.Search(q.Search, "u.name", "u.email")
	if q.Status != "" {
		where.Add("s.status = ?", q.Status)
	}
	if employeeID := scope.EmployeeFilter(q.Filter("employee_id")); employeeID != "" {
		where.Add("s.employee_id::text = ?", employeeID)
	}

	from := " FROM employee_salaries s JOIN users u ON u.id = s.employee_id"
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+from+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, args := where.PageSQL(q, salarySorts, "u.name")
	rows, err := s.DB.Query(ctx, `
    SELECT s.id, s.employee_id, u.name, s.basic_salary, s.overtime_rate, s.status, s.notes, s.created_at, s.updated_at`+
		from+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []EmployeeSalary{}
	for rows.Next() {
		var es EmployeeSalary
		if err := rows.Scan(&es.ID, &es.EmployeeID, &es.EmployeeName, &es.BasicSalary, &es.OvertimeRate, &es.Status, &es.Notes, &es.CreatedAt, &es.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, es)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		comps, err := s.salaryComponents(ctx, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Components = comps
	}
	return out, total, nil
}

const salaryColumns = `s.id, s.employee_id, u.name, s.basic_salary, s.overtime_rate, s.status, s.notes, s.created_at, s.updated_at`

func (s *Store) GetSalary(ctx context.Context, ownerID, id string) (EmployeeSalary, error) {
	return s.salaryWhere(ctx, "s.created_by = $1 AND s.id::text = $2", ownerID, id)
}

func (s *Store) SalaryForEmployee(ctx context.Context, ownerID, employeeID string) (EmployeeSalary, error) {
	return s.salaryWhere(ctx, "s.created_by = $1 AND s.employee_id::text = $2", ownerID, employeeID)
}

func (s *Store) salaryWhere(ctx context.Context, cond string, args ...any) (EmployeeSalary, error) {
	var es EmployeeSalary
	err := s.DB.QueryRow(ctx, "SELECT "+salaryColumns+" FROM employee_salaries s JOIN users u ON u.id = s.employee_id WHERE "+cond, args...).
		Scan(&es.ID, &es.EmployeeID, &es.EmployeeName, &es.BasicSalary, &es.OvertimeRate, &es.Status, &es.Notes, &es.CreatedAt, &es.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeSalary{}, ErrSalaryNotFound
	}
	if err != nil {
		return EmployeeSalary{}, err
	}
	es.Components, err = s.salaryComponents(ctx, es.ID)
	return es, err
}

func (s *Store) salaryComponents(ctx context.Context, salaryID string) ([]AttachedComponent, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.name, c.type, c.calculation_type, c.default_value, esc.value
    FROM employee_salary_components esc
    JOIN salary_components c ON c.id = esc.component_id
    WHERE esc.employee_salary_id = $1 AND c.status = 'active'
    ORDER BY c.type, c.name
  `, salaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AttachedComponent{}
	for rows.Next() {
		var c AttachedComponent
		var value decimal.NullDecimal
		if err := rows.Scan(&c.ComponentID, &c.Name, &c.Type, &c.CalculationType, &c.DefaultValue, &value); err != nil {
			return nil, err
		}
		if value.Valid {
			v := value.Decimal
			c.Value = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ActiveSalaryEmployees(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT s.employee_id::text
    FROM employee_salaries s JOIN users u ON u.id = s.employee_id
    WHERE s.created_by = $1 AND s.status = 'active' AND u.status = 'active'
    ORDER BY u.name
  `, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) CreateSalary(ctx context.Context, ownerID string, in SalaryInput) (string, error) {
	var id string
	err := querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		err := q.QueryRow(ctx, `
      INSERT INTO employee_salaries (created_by, employee_id, basic_salary, overtime_rate, status, notes)
      VALUES ($1,$2,$3,$4,$5,$6)
      RETURNING id
    `, ownerID, in.EmployeeID, in.BasicSalary, in.OvertimeRate, in.Status, in.Notes).Scan(&id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrSalaryExists
			}
			return err
		}
		return replaceSalaryComponents(ctx, q, id, in.Components)
	})
	return id, err
}

func (s *Store) UpdateSalary(ctx context.Context, ownerID, id string, in SalaryInput) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		tag, err := q.Exec(ctx, `
      UPDATE employee_salaries
      SET basic_salary = $3, overtime_rate = $4, status = $5, notes = $6, updated_at = now()
      WHERE created_by = $1 AND id::text = $2
    `, ownerID, id, in.BasicSalary, in.OvertimeRate, in.Status, in.Notes)
		if err := affected(tag, err, ErrSalaryNotFound); err != nil {
			return err
		}
		return replaceSalaryComponents(ctx, q, id, in.Components)
	})
}

func replaceSalaryComponents(ctx context.Context, q querier.Querier, salaryID string, comps []ComponentInput) error {
	if _, err := q.Exec(ctx, "DELETE FROM employee_salary_components WHERE employee_salary_id = $1", salaryID); err != nil {
		return err
	}
	for _, c := range comps {
		var value any
		if c.Value != nil {
			value = *c.Value
		}
		if _, err := q.Exec(ctx, `
      INSERT INTO employee_salary_components (employee_salary_id, component_id, value)
      VALUES ($1,$2,$3)
      ON CONFLICT (employee_salary_id, component_id) DO UPDATE SET value = EXCLUDED.value
    `, salaryID, c.ComponentID, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteSalary(ctx context.Context, ownerID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM employee_salaries WHERE created_by = $1 AND id::text = $2", ownerID, id)
	return affected(tag, err, ErrSalaryNotFound)
}

func (s *Store) UpsertAttendance(ctx context.Context, ownerID string, r AttendanceRecord) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (created_by, employee_id, date, status, overtime_hours)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (employee_id, date) DO UPDATE SET status = EXCLUDED.status, overtime_hours = EXCLUDED.overtime_hours
    RETURNING id
  `, ownerID, r.EmployeeID, r.Date, r.Status, r.OvertimeHours).Scan(&id)
	return id, err
}

func (s *Store) DeleteAttendance(ctx context.Context, ownerID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM attendance_records WHERE created_by = $1 AND id::text = $2", ownerID, id)
	return affected(tag, err, ErrInvalidAttendance)
}

var attendanceSorts = map[string]string{
	"date":     "a.date",
	"employee": "u.name",
	"status":   "a.status",
}

func (s *Store) ListAttendance(ctx context.Context, scope tenancy.Scope, q listing.Query, from, to time.Time) ([]AttendanceRecord, int, error) {
	where := listing.NewWhere("a.created_by = ?", scope.OwnerID)
	where.Search(q.Search, "u.name")
	if q.Status != "" {
		where.Add("a.status = ?", q.Status)
	}
	if employeeID := scope.EmployeeFilter(q.Filter("employee_id")); employeeID != "" {
		where.Add("a.employee_id::text = ?", employeeID)
	}
	if !from.IsZero() {
		where.Add("a.date >= ?", from)
	}
	if !to.IsZero() {
		where.Add("a.date < ?", to)
	}

	join := " FROM attendance_records a JOIN users u ON u.id = a.employee_id"
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+join+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, args := where.PageSQL(q, attendanceSorts, "a.date")
	rows, err := s.DB.Query(ctx, "SELECT a.id, a.employee_id, u.name, a.date, a.status, a.overtime_hours"+join+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []AttendanceRecord{}
	for rows.Next() {
		var r AttendanceRecord
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.Date, &r.Status, &r.OvertimeHours); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// MonthAttendance returns every record of one employee in [from, to).
func (s *Store) MonthAttendance(ctx context.Context, ownerID, employeeID string, from, to time.Time) ([]AttendanceRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, date, status, overtime_hours
    FROM attendance_records
    WHERE created_by = $1 AND employee_id::text = $2 AND date >= $3 AND date < $4
    ORDER BY date
  `, ownerID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AttendanceRecord{}
	for rows.Next() {
		var r AttendanceRecord
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Date, &r.Status, &r.OvertimeHours); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertPayslip(ctx context.Context, ownerID string, p Payslip, breakdown []byte) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payslips (created_by, employee_id, period, basic, earnings, deductions, unpaid_deduction, overtime, net, breakdown)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    ON CONFLICT (employee_id, period) DO UPDATE SET
      basic = EXCLUDED.basic, earnings = EXCLUDED.earnings, deductions = EXCLUDED.deductions,
      unpaid_deduction = EXCLUDED.unpaid_deduction, overtime = EXCLUDED.overtime, net = EXCLUDED.net,
      breakdown = EXCLUDED.breakdown, created_at = now()
    RETURNING id
  `, ownerID, p.EmployeeID, p.Period, p.Basic, p.Earnings, p.Deductions, p.UnpaidDeduction, p.Overtime, p.Net, breakdown).Scan(&id)
	return id, err
}

func (s *Store) SetPayslipFile(ctx context.Context, id, key string) error {
	_, err := s.DB.Exec(ctx, "UPDATE payslips SET file_key = $1 WHERE id = $2", key, id)
	return err
}

const payslipColumns = `p.id, p.employee_id, u.name, p.period, p.basic, p.earnings, p.deductions,
  p.unpaid_deduction, p.overtime, p.net, p.breakdown, p.file_key, p.created_at`

func scanPayslip(row pgx.Row) (Payslip, error) {
	var p Payslip
	err := row.Scan(&p.ID, &p.EmployeeID, &p.EmployeeName, &p.Period, &p.Basic, &p.Earnings, &p.Deductions,
		&p.UnpaidDeduction, &p.Overtime, &p.Net, &p.Report, &p.FileKey, &p.CreatedAt)
	p.HasFile = p.FileKey != ""
	return p, err
}

var payslipSorts = map[string]string{
	"period":    "p.period",
	"employee":  "u.name",
	"net":       "p.net",
	"createdAt": "p.created_at",
}

func (s *Store) ListPayslips(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Payslip, int, error) {
	where := listing.NewWhere("p.created_by = ?", scope.OwnerID)
	where.Search(q.Search, "u.name", "p.period")
	if employeeID := scope.EmployeeFilter(q.Filter("employee_id")); employeeID != "" {
		where.Add("p.employee_id::text = ?", employeeID)
	}
	if period := q.Filter("period"); period != "" {
		where.Add("p.period = ?", period)
	}

	join := " FROM payslips p JOIN users u ON u.id = p.employee_id"
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+join+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, payslipSorts, "p.period")
	rows, err := s.DB.Query(ctx, "SELECT "+payslipColumns+join+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Payslip{}
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Store) GetPayslip(ctx context.Context, ownerID, id string) (Payslip, error) {
	p, err := scanPayslip(s.DB.QueryRow(ctx, "SELECT "+payslipColumns+`
    FROM payslips p JOIN users u ON u.id = p.employee_id
    WHERE p.created_by = $1 AND p.id::text = $2`, ownerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payslip{}, ErrPayslipNotFound
	}
	return p, err
}

func affected(tag pgconn.CommandTag, err error, notFound error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
