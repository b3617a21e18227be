package training

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type StoreAPI interface {
	List(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Session, int, error)
	Get(ctx context.Context, ownerID, id string) (Session, error)
	Create(ctx context.Context, ownerID string, s Session) (string, error)
	Update(ctx context.Context, ownerID string, s Session) error
	SetStatus(ctx context.Context, ownerID, id, status string) error
	Delete(ctx context.Context, ownerID, id string) error
	StaffExists(ctx context.Context, ownerID, employeeID string) (bool, error)

	Enroll(ctx context.Context, sessionID string, employeeIDs []string) error
	Unenroll(ctx context.Context, sessionID, employeeID string) error
	ListAttendance(ctx context.Context, sessionID string) ([]Attendance, error)
	MarkAttendance(ctx context.Context, sessionID string, marks []Mark) error
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

const selectSession = `SELECT s.id, s.title, s.trainer, s.location, s.description, s.start_at, s.end_at, s.capacity,
  s.status, (SELECT COUNT(1) FROM training_attendances a WHERE a.session_id = s.id), s.created_at, s.updated_at
  FROM training_sessions s`

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.Title, &s.Trainer, &s.Location, &s.Description, &s.StartAt, &s.EndAt, &s.Capacity,
		&s.Status, &s.Enrolled, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

var sorts = map[string]string{
	"title":     "s.title",
	"trainer":   "s.trainer",
	"startAt":   "s.start_at",
	"status":    "s.status",
	"createdAt": "s.created_at",
}

// List pages sessions. Restricted callers see the sessions they are
// enrolled in.
func (s *Store) List(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Session, int, error) {
	where := listing.NewWhere("s.created_by = ?", scope.OwnerID)
	where.Search(q.Search, "s.title", "s.trainer", "s.location")
	if q.Status != "" {
		where.Add("s.status = ?", q.Status)
	}
	if employeeID := scope.EmployeeFilter(q.Filter("employee_id")); employeeID != "" {
		where.Add("EXISTS (SELECT 1 FROM training_attendances a WHERE a.session_id = s.id AND a.employee_id::text = ?)", employeeID)
	}
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM training_sessions s"+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, sorts, "s.start_at")
	rows, err := s.DB.Query(ctx, selectSession+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sess)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, ownerID, id string) (Session, error) {
	return scanSession(s.DB.QueryRow(ctx, selectSession+" WHERE s.created_by = $1 AND s.id::text = $2", ownerID, id))
}

func (s *Store) Create(ctx context.Context, ownerID string, sess Session) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO training_sessions (created_by, title, trainer, location, description, start_at, end_at, capacity, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, ownerID, sess.Title, sess.Trainer, sess.Location, sess.Description, sess.StartAt, sess.EndAt, sess.Capacity, sess.Status).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, ownerID string, sess Session) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE training_sessions SET title = $3, trainer = $4, location = $5, description = $6,
      start_at = $7, end_at = $8, capacity = $9, updated_at = now()
    WHERE created_by = $1 AND id::text = $2
  `, ownerID, sess.ID, sess.Title, sess.Trainer, sess.Location, sess.Description, sess.StartAt, sess.EndAt, sess.Capacity)
	return affected(tag.RowsAffected(), err, ErrNotFound)
}

func (s *Store) SetStatus(ctx context.Context, ownerID, id, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE training_sessions SET status = $3, updated_at = now() WHERE created_by = $1 AND id::text = $2
  `, ownerID, id, status)
	return affected(tag.RowsAffected(), err, ErrNotFound)
}

func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM training_sessions WHERE created_by = $1 AND id::text = $2", ownerID, id)
	return affected(tag.RowsAffected(), err, ErrNotFound)
}

func (s *Store) StaffExists(ctx context.Context, ownerID, employeeID string) (bool, error) {
	return tenancy.StaffExists(ctx, s.DB, ownerID, employeeID)
}

// Enroll adds employees to a session, locking the session row so concurrent
// enrollments cannot overshoot its capacity. Already enrolled employees are
// skipped.
func (s *Store) Enroll(ctx context.Context, sessionID string, employeeIDs []string) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		var capacity *int
		if err := q.QueryRow(ctx, "SELECT capacity FROM training_sessions WHERE id::text = $1 FOR UPDATE", sessionID).Scan(&capacity); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		var enrolled, fresh int
		if err := q.QueryRow(ctx, `
      SELECT COUNT(1), (SELECT COUNT(1) FROM unnest($2::text[]) e(id)
        WHERE e.id NOT IN (SELECT employee_id::text FROM training_attendances WHERE session_id::text = $1))
      FROM training_attendances WHERE session_id::text = $1
    `, sessionID, employeeIDs).Scan(&enrolled, &fresh); err != nil {
			return err
		}
		if capacity != nil && enrolled+fresh > *capacity {
			return ErrCapacityReached
		}
		_, err := q.Exec(ctx, `
      INSERT INTO training_attendances (session_id, employee_id, status)
      SELECT $1::uuid, e.id::uuid, 'enrolled' FROM unnest($2::text[]) e(id)
      ON CONFLICT (session_id, employee_id) DO NOTHING
    `, sessionID, employeeIDs)
		return err
	})
}

func (s *Store) Unenroll(ctx context.Context, sessionID, employeeID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM training_attendances WHERE session_id::text = $1 AND employee_id::text = $2
  `, sessionID, employeeID)
	return affected(tag.RowsAffected(), err, ErrNotEnrolled)
}

func (s *Store) ListAttendance(ctx context.Context, sessionID string) ([]Attendance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.session_id, a.employee_id, u.name, a.status, a.score, a.feedback, a.updated_at
    FROM training_attendances a JOIN users u ON u.id = a.employee_id
    WHERE a.session_id::text = $1
    ORDER BY u.name
  `, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attendance{}
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.SessionID, &a.EmployeeID, &a.EmployeeName, &a.Status, &a.Score, &a.Feedback, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkAttendance applies all marks or none.
func (s *Store) MarkAttendance(ctx context.Context, sessionID string, marks []Mark) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		for _, m := range marks {
			tag, err := q.Exec(ctx, `
        UPDATE training_attendances SET status = $3, score = $4, feedback = $5, updated_at = now()
        WHERE session_id::text = $1 AND employee_id::text = $2
      `, sessionID, m.EmployeeID, m.Status, m.Score, m.Feedback)
			if err = affected(tag.RowsAffected(), err, ErrNotEnrolled); err != nil {
				return fmt.Errorf("%s: %w", m.EmployeeID, err)
			}
		}
		return nil
	})
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
