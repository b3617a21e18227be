package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const companySelect = `SELECT c.id, c.name, c.email, c.status, COALESCE(c.plan_id::text, ''), COALESCE(p.name, ''),
  c.plan_expire_date, (SELECT COUNT(1) FROM users s WHERE s.created_by = c.id), c.last_login, c.created_at
  FROM users c LEFT JOIN plans p ON p.id = c.plan_id`

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Status, &c.PlanID, &c.PlanName, &c.PlanExpireDate,
		&c.StaffCount, &c.LastLogin, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	return c, err
}

var companySorts = map[string]string{
	"name":      "c.name",
	"email":     "c.email",
	"status":    "c.status",
	"createdAt": "c.created_at",
}

func (s *Store) ListCompanies(ctx context.Context, q listing.Query) ([]Company, int, error) {
	where := listing.NewWhere("c.type = ?", auth.UserTypeCompany)
	where.Search(q.Search, "c.name", "c.email")
	if q.Status != "" {
		where.Add("c.status = ?", q.Status)
	}
	if plan := q.Filter("plan_id"); plan != "" {
		where.Add("c.plan_id::text = ?", plan)
	}
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users c"+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, companySorts, "c.created_at")
	rows, err := s.DB.Query(ctx, companySelect+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *Store) GetCompany(ctx context.Context, id string) (Company, error) {
	return scanCompany(s.DB.QueryRow(ctx, companySelect+" WHERE c.id::text = $1 AND c.type = 'company'", id))
}

func (s *Store) DefaultPlanID(ctx context.Context) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM plans WHERE is_default ORDER BY created_at LIMIT 1").Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *Store) PlanExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM plans WHERE id::text = $1)", id).Scan(&exists)
	return exists, err
}

// CreateUser inserts an account owned by parentID.
func (s *Store) CreateUser(ctx context.Context, parentID string, a Account) (string, error) {
	var plan any
	if a.PlanID != "" {
		plan = a.PlanID
	}
	var parent any
	if parentID != "" {
		parent = parentID
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (name, email, password_hash, type, created_by, status, plan_id)
    VALUES ($1, lower($2), $3, $4, $5, $6, $7)
    RETURNING id
  `, a.Name, a.Email, a.passwordHash, a.Type, parent, a.Status, plan).Scan(&id)
	return id, mapUnique(err)
}

// UpdateUser rewrites name, email, status and, when set, the password hash of
// a user of userType owned by parentID. An empty parentID skips the owner check.
func (s *Store) UpdateUser(ctx context.Context, parentID, userType string, a Account) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET name = $3, email = lower($4), status = $5,
      password_hash = CASE WHEN $6 = '' THEN password_hash ELSE $6 END,
      type = CASE WHEN $7 = '' THEN type ELSE $7 END,
      updated_at = now()
    WHERE id::text = $1 AND ($2 = '' OR created_by::text = $2) AND type = ANY($8)
  `, a.ID, parentID, a.Name, a.Email, a.Status, a.passwordHash, a.Type, typesFor(userType))
	if err != nil {
		return false, mapUnique(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetStatus(ctx context.Context, parentID, userType, id, status string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET status = $4, updated_at = now()
    WHERE id::text = $1 AND ($2 = '' OR created_by::text = $2) AND type = ANY($3)
  `, id, parentID, typesFor(userType), status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteUser(ctx context.Context, parentID, userType, id string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM users WHERE id::text = $1 AND ($2 = '' OR created_by::text = $2) AND type = ANY($3)
  `, id, parentID, typesFor(userType))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// typesFor maps a kind to the user types it covers; "staff" is hr and employee.
func typesFor(kind string) []string {
	if kind == kindStaff {
		return []string{auth.UserTypeHR, auth.UserTypeEmployee}
	}
	return []string{kind}
}

const staffColumns = "id, name, email, type, status, last_login, created_at"

func scanStaff(row pgx.Row) (Staff, error) {
	var st Staff
	err := row.Scan(&st.ID, &st.Name, &st.Email, &st.Type, &st.Status, &st.LastLogin, &st.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, ErrStaffNotFound
	}
	return st, err
}

var staffSorts = map[string]string{
	"name":      "name",
	"email":     "email",
	"type":      "type",
	"status":    "status",
	"createdAt": "created_at",
}

func (s *Store) ListStaff(ctx context.Context, ownerID string, q listing.Query) ([]Staff, int, error) {
	where := listing.NewWhere("created_by::text = ?", ownerID)
	where.Add("type = ANY(?)", typesFor(kindStaff))
	where.Search(q.Search, "name", "email")
	if q.Status != "" {
		where.Add("status = ?", q.Status)
	}
	if t := q.Filter("type"); t != "" {
		where.Add("type = ?", t)
	}
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users"+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, args := where.PageSQL(q, staffSorts, "name")
	rows, err := s.DB.Query(ctx, "SELECT "+staffColumns+" FROM users"+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Staff{}
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, st)
	}
	return out, total, rows.Err()
}

func (s *Store) GetStaff(ctx context.Context, ownerID, id string) (Staff, error) {
	return scanStaff(s.DB.QueryRow(ctx, `
    SELECT `+staffColumns+` FROM users
    WHERE id::text = $1 AND created_by::text = $2 AND type IN ('hr','employee')
  `, id, ownerID))
}

// CountStaff returns how many users of userType the owner has.
func (s *Store) CountStaff(ctx context.Context, ownerID, userType string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE created_by::text = $1 AND type = $2", ownerID, userType).Scan(&n)
	return n, err
}

// Limits returns the plan caps of a company; a company without a plan has none.
func (s *Store) Limits(ctx context.Context, companyID string) (PlanLimits, error) {
	var l PlanLimits
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(p.max_users, 0), COALESCE(p.max_employees, 0)
    FROM users c LEFT JOIN plans p ON p.id = c.plan_id
    WHERE c.id::text = $1
  `, companyID).Scan(&l.MaxUsers, &l.MaxEmployees)
	if errors.Is(err, pgx.ErrNoRows) {
		return PlanLimits{}, ErrCompanyNotFound
	}
	return l, err
}

func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}
