package trips

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type StoreAPI interface {
	List(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Trip, int, error)
	Get(ctx context.Context, ownerID, id string) (Trip, error)
	Create(ctx context.Context, ownerID string, t Trip) (string, error)
	Update(ctx context.Context, ownerID string, t Trip) error
	SetStatus(ctx context.Context, ownerID, id, status string) error
	Delete(ctx context.Context, ownerID, id string) error
	StaffExists(ctx context.Context, ownerID, employeeID string) (bool, error)

	ListExpenses(ctx context.Context, tripID string) ([]Expense, error)
	GetExpense(ctx context.Context, tripID, id string) (Expense, error)
	CreateExpense(ctx context.Context, e Expense) (string, error)
	UpdateExpense(ctx context.Context, e Expense) error
	DeleteExpense(ctx context.Context, tripID, id string) error
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

const selectTrip = `SELECT t.id, t.employee_id, u.name, t.purpose, t.destination, t.start_date, t.end_date,
  t.description, t.advance_amount, t.status, t.created_at, t.updated_at
  FROM trips t JOIN users u ON u.id = t.employee_id`

func scanTrip(row pgx.Row) (Trip, error) {
	var t Trip
	err := row.Scan(&t.ID, &t.EmployeeID, &t.EmployeeName, &t.Purpose, &t.Destination, &t.StartDate, &t.EndDate,
		&t.Description, &t.AdvanceAmount, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, ErrNotFound
	}
	return t, err
}

var sorts = map[string]string{
	"purpose":     "t.purpose",
	"destination": "t.destination",
	"startDate":   "t.start_date",
	"status":      "t.status",
	"employee":    "u.name",
	"createdAt":   "t.created_at",
}

func (s *Store) List(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Trip, int, error) {
	where := listing.NewWhere("t.created_by = ?", scope.OwnerID)
	where.Search(q.Search, "t.purpose", "t.destination", "u.name")
	if q.Status != "" {
		where.Add("t.status = ?", q.Status)
	}
	if employeeID := scope.EmployeeFilter(q.Filter("employee_id")); employeeID != "" {
		where.Add("t.employee_id::text = ?", employeeID)
	}
	from := " FROM trips t JOIN users u ON u.id = t.employee_id"
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+from+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, sorts, "t.start_date")
	rows, err := s.DB.Query(ctx, selectTrip+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, ownerID, id string) (Trip, error) {
	return scanTrip(s.DB.QueryRow(ctx, selectTrip+" WHERE t.created_by = $1 AND t.id::text = $2", ownerID, id))
}

func (s *Store) Create(ctx context.Context, ownerID string, t Trip) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO trips (created_by, employee_id, purpose, destination, start_date, end_date, description, advance_amount, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, ownerID, t.EmployeeID, t.Purpose, t.Destination, t.StartDate, t.EndDate, t.Description, t.AdvanceAmount, t.Status).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, ownerID string, t Trip) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE trips SET employee_id = $3, purpose = $4, destination = $5, start_date = $6, end_date = $7,
      description = $8, advance_amount = $9, updated_at = now()
    WHERE created_by = $1 AND id::text = $2
  `, ownerID, t.ID, t.EmployeeID, t.Purpose, t.Destination, t.StartDate, t.EndDate, t.Description, t.AdvanceAmount)
	return affected(tag.RowsAffected(), err, ErrNotFound)
}

func (s *Store) SetStatus(ctx context.Context, ownerID, id, status string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE trips SET status = $3, updated_at = now() WHERE created_by = $1 AND id::text = $2", ownerID, id, status)
	return affected(tag.RowsAffected(), err, ErrNotFound)
}

func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM trips WHERE created_by = $1 AND id::text = $2", ownerID, id)
	return affected(tag.RowsAffected(), err, ErrNotFound)
}

func (s *Store) StaffExists(ctx context.Context, ownerID, employeeID string) (bool, error) {
	return tenancy.StaffExists(ctx, s.DB, ownerID, employeeID)
}

const expenseColumns = "id, trip_id, expense_type, expense_date, amount, description, is_reimbursable, status, created_at"

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.TripID, &e.Type, &e.Date, &e.Amount, &e.Description, &e.IsReimbursable, &e.Status, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, ErrExpenseNotFound
	}
	return e, err
}

func (s *Store) ListExpenses(ctx context.Context, tripID string) ([]Expense, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+expenseColumns+" FROM trip_expenses WHERE trip_id::text = $1 ORDER BY expense_date, created_at", tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetExpense(ctx context.Context, tripID, id string) (Expense, error) {
	return scanExpense(s.DB.QueryRow(ctx, "SELECT "+expenseColumns+" FROM trip_expenses WHERE trip_id::text = $1 AND id::text = $2", tripID, id))
}

func (s *Store) CreateExpense(ctx context.Context, e Expense) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO trip_expenses (trip_id, expense_type, expense_date, amount, description, is_reimbursable, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, e.TripID, e.Type, e.Date, e.Amount, e.Description, e.IsReimbursable, e.Status).Scan(&id)
	return id, err
}

func (s *Store) UpdateExpense(ctx context.Context, e Expense) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE trip_expenses SET expense_type = $3, expense_date = $4, amount = $5, description = $6,
      is_reimbursable = $7, status = $8
    WHERE trip_id::text = $1 AND id::text = $2
  `, e.TripID, e.ID, e.Type, e.Date, e.Amount, e.Description, e.IsReimbursable, e.Status)
	return affected(tag.RowsAffected(), err, ErrExpenseNotFound)
}

func (s *Store) DeleteExpense(ctx context.Context, tripID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM trip_expenses WHERE trip_id::text = $1 AND id::text = $2", tripID, id)
	return affected(tag.RowsAffected(), err, ErrExpenseNotFound)
}

func affected(n int64, err error, notFound error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
