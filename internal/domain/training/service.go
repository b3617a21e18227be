package training

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
)

var maxScore = decimal.NewFromInt(100)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, q listing.Query) (listing.Page[Session], error) {
	items, total, err := s.store.List(ctx, scope, q)
	if err != nil {
		return listing.Page[Session]{}, err
	}
	return listing.Page[Session]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Session, error) {
	return s.store.Get(ctx, ownerID, id)
}

func (s *Service) Create(ctx context.Context, ownerID string, sess Session) (Session, error) {
	sess.Status = StatusScheduled
	if err := checkSession(&sess); err != nil {
		return Session{}, err
	}
	id, err := s.store.Create(ctx, ownerID, sess)
	if err != nil {
		return Session{}, fmt.Errorf("create training session: %w", err)
	}
	return s.store.Get(ctx, ownerID, id)
}

// Update rewrites the session details. Capacity cannot drop below the
// number already enrolled.
func (s *Service) Update(ctx context.Context, ownerID string, sess Session) (Session, error) {
	if err := checkSession(&sess); err != nil {
		return Session{}, err
	}
	current, err := s.store.Get(ctx, ownerID, sess.ID)
	if err != nil {
		return Session{}, err
	}
	if sess.Capacity != nil && *sess.Capacity < current.Enrolled {
		return Session{}, fmt.Errorf("%w: capacity is below current enrollment", ErrInvalidSession)
	}
	if err := s.store.Update(ctx, ownerID, sess); err != nil {
		return Session{}, err
	}
	return s.store.Get(ctx, ownerID, sess.ID)
}

func (s *Service) SetStatus(ctx context.Context, ownerID, id, status string) (Session, error) {
	if !ValidStatus(status) {
		return Session{}, ErrInvalidStatus
	}
	if err := s.store.SetStatus(ctx, ownerID, id, status); err != nil {
		return Session{}, err
	}
	return s.store.Get(ctx, ownerID, id)
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, ownerID, id)
}

func checkSession(sess *Session) error {
	sess.Title = strings.TrimSpace(sess.Title)
	switch {
	case sess.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidSession)
	case sess.StartAt.IsZero() || sess.EndAt.IsZero():
		return fmt.Errorf("%w: start and end are required", ErrInvalidSession)
	case !sess.EndAt.After(sess.StartAt):
		return fmt.Errorf("%w: end must be after start", ErrInvalidSession)
	case sess.Capacity != nil && *sess.Capacity < 1:
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidSession)
	}
	return nil
}

// Enroll adds employees of the owner to an open session.
func (s *Service) Enroll(ctx context.Context, ownerID, sessionID string, employeeIDs []string) ([]Attendance, error) {
	sess, err := s.open(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	ids := dedupe(employeeIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no employees given", ErrInvalidAttendance)
	}
	for _, id := range ids {
		ok, err := s.store.StaffExists(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, id)
		}
	}
	if err := s.store.Enroll(ctx, sess.ID, ids); err != nil {
		return nil, err
	}
	return s.store.ListAttendance(ctx, sess.ID)
}

func (s *Service) Unenroll(ctx context.Context, ownerID, sessionID, employeeID string) error {
	sess, err := s.open(ctx, ownerID, sessionID)
	if err != nil {
		return err
	}
	return s.store.Unenroll(ctx, sess.ID, employeeID)
}

// Attendance lists a session's roster. Restricted callers only see their
// own row.
func (s *Service) Attendance(ctx context.Context, scope tenancy.Scope, sessionID string) ([]Attendance, error) {
	sess, err := s.store.Get(ctx, scope.OwnerID, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListAttendance(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if !scope.SelfOnly {
		return rows, nil
	}
	out := []Attendance{}
	for _, a := range rows {
		if scope.CanSee(a.EmployeeID) {
			out = append(out, a)
		}
	}
	return out, nil
}

// MarkAttendance records present/absent with optional score (0..100) and
// feedback for enrolled employees.
func (s *Service) MarkAttendance(ctx context.Context, ownerID, sessionID string, marks []Mark) ([]Attendance, error) {
	if len(marks) == 0 {
		return nil, fmt.Errorf("%w: no marks given", ErrInvalidAttendance)
	}
	sess, err := s.store.Get(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCancelled {
		return nil, ErrSessionNotEditable
	}
	for i := range marks {
		m := &marks[i]
		m.Feedback = strings.TrimSpace(m.Feedback)
		if m.Status != AttendancePresent && m.Status != AttendanceAbsent {
			return nil, fmt.Errorf("%w: status must be present or absent", ErrInvalidAttendance)
		}
		if m.Score != nil && (m.Score.IsNegative() || m.Score.GreaterThan(maxScore)) {
			return nil, fmt.Errorf("%w: score must be between 0 and 100", ErrInvalidAttendance)
		}
	}
	if err := s.store.MarkAttendance(ctx, sess.ID, marks); err != nil {
		return nil, err
	}
	return s.store.ListAttendance(ctx, sess.ID)
}

func (s *Service) open(ctx context.Context, ownerID, sessionID string) (Session, error) {
	sess, err := s.store.Get(ctx, ownerID, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !sess.Open() {
		return Session{}, ErrSessionNotEditable
	}
	return sess, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
