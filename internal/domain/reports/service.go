package reports

import (
	"context"
	"errors"
	"time"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/platform/listing"
)

var ErrForbidden = errors.New("job history is limited to the platform administrator")

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

// Dashboard returns the summary that fits the caller: platform totals for a
// superadmin, tenant totals for a company or its HR, and personal counts for
// an employee.
func (s *Service) Dashboard(ctx context.Context, user auth.UserContext) (any, error) {
	now := s.now().UTC()
	switch {
	case user.IsSuperAdmin():
		return s.store.Admin(ctx)
	case user.Restricted():
		return s.store.Employee(ctx, user.OwnerID, user.UserID, now)
	default:
		return s.store.Company(ctx, user.OwnerID, now)
	}
}

func (s *Service) JobRuns(ctx context.Context, user auth.UserContext, q listing.Query) (listing.Page[JobRun], error) {
	if !user.IsSuperAdmin() {
		return listing.Page[JobRun]{}, ErrForbidden
	}
	items, total, err := s.store.JobRuns(ctx, q)
	if err != nil {
		return listing.Page[JobRun]{}, err
	}
	return listing.Page[JobRun]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}
