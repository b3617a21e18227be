package complaints

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type StoreAPI interface {
	List(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Complaint, int, error)
	Get(ctx context.Context, ownerID, id string) (Complaint, error)
	Create(ctx context.Context, ownerID string, c Complaint) (string, error)
	Update(ctx context.Context, ownerID string, c Complaint) error
	SetStatus(ctx context.Context, ownerID, id, status, resolution string) error
	Delete(ctx context.Context, ownerID, id string) error
	StaffExists(ctx context.Context, ownerID, employeeID string) (bool, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

const selectComplaint = `SELECT c.id, c.employee_id, e.name, COALESCE(c.against_employee_id::text, ''), COALESCE(a.name, ''),
  c.complaint_type, c.subject, c.description, c.complaint_date, c.status, c.resolution, c.resolved_at,
  c.created_at, c.updated_at`

const fromComplaint = ` FROM complaints c
  JOIN users e ON e.id = c.employee_id
  LEFT JOIN users a ON a.id = c.against_employee_id`

func scanComplaint(row pgx.Row) (Complaint, error) {
	var c Complaint
	err := row.Scan(&c.ID, &c.EmployeeID, &c.EmployeeName, &c.AgainstEmployeeID, &c.AgainstName,
		&c.Type, &c.Subject, &c.Description, &c.Date, &c.Status, &c.Resolution, &c.ResolvedAt,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Complaint{}, ErrNotFound
	}
	return c, err
}

var sorts = map[string]string{
	"subject":       "c.subject",
	"complaintDate": "c.complaint_date",
	"status":        "c.status",
	"employee":      "e.name",
	"createdAt":     "c.created_at",
}

func (s *Store) List(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Complaint, int, error) {
	where := listing.NewWhere("c.created_by = ?", scope.OwnerID)
	where.Search(q.Search, "c.subject", "c.complaint_type", "e.name", "a.name")
	if q.Status != "" {
		where.Add("c.status = ?", q.Status)
	}
	if employeeID := scope.EmployeeFilter(q.Filter("employee_id")); employeeID != "" {
		where.Add("c.employee_id::text = ?", employeeID)
	}
	if t := q.Filter("complaint_type"); t != "" {
		where.Add("c.complaint_type = ?", t)
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+fromComplaint+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, sorts, "c.complaint_date")
	rows, err := s.DB.Query(ctx, selectComplaint+fromComplaint+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, ownerID, id string) (Complaint, error) {
	return scanComplaint(s.DB.QueryRow(ctx, selectComplaint+fromComplaint+" WHERE c.created_by = $1 AND c.id::text = $2", ownerID, id))
}

func (s *Store) Create(ctx context.Context, ownerID string, c Complaint) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO complaints (created_by, employee_id, against_employee_id, complaint_type, subject, description, complaint_date, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, ownerID, c.EmployeeID, nullable(c.AgainstEmployeeID), c.Type, c.Subject, c.Description, c.Date, c.Status).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, ownerID string, c Complaint) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE complaints SET employee_id = $3, against_employee_id = $4, complaint_type = $5, subject = $6,
      description = $7, complaint_date = $8, updated_at = now()
    WHERE created_by = $1 AND id::text = $2
  `, ownerID, c.ID, c.EmployeeID, nullable(c.AgainstEmployeeID), c.Type, c.Subject, c.Description, c.Date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus writes the status. Terminal statuses stamp resolved_at.
func (s *Store) SetStatus(ctx context.Context, ownerID, id, status, resolution string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE complaints SET status = $3, resolution = $4,
      resolved_at = CASE WHEN $3 IN ('resolved','dismissed') THEN now() ELSE NULL END,
      updated_at = now()
    WHERE created_by = $1 AND id::text = $2
  `, ownerID, id, status, resolution)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM complaints WHERE created_by = $1 AND id::text = $2", ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) StaffExists(ctx context.Context, ownerID, employeeID string) (bool, error) {
	return tenancy.StaffExists(ctx, s.DB, ownerID, employeeID)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
