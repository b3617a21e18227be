package complaints

import (
	"context"
	"fmt"
	"strings"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, q listing.Query) (listing.Page[Complaint], error) {
	items, total, err := s.store.List(ctx, scope, q)
	if err != nil {
		return listing.Page[Complaint]{}, err
	}
	return listing.Page[Complaint]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id string) (Complaint, error) {
	c, err := s.store.Get(ctx, scope.OwnerID, id)
	if err != nil {
		return Complaint{}, err
	}
	if !scope.CanSee(c.EmployeeID) {
		return Complaint{}, ErrNotFound
	}
	return c, nil
}

// Create files a complaint. Restricted callers always file for themselves.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, c Complaint) (Complaint, error) {
	c.EmployeeID = scope.EmployeeFilter(c.EmployeeID)
	c.Status = StatusSubmitted
	if err := s.check(ctx, scope.OwnerID, &c); err != nil {
		return Complaint{}, err
	}
	id, err := s.store.Create(ctx, scope.OwnerID, c)
	if err != nil {
		return Complaint{}, fmt.Errorf("create complaint: %w", err)
	}
	return s.store.Get(ctx, scope.OwnerID, id)
}

func (s *Service) Update(ctx context.Context, scope tenancy.Scope, c Complaint) (Complaint, error) {
	if err := s.check(ctx, scope.OwnerID, &c); err != nil {
		return Complaint{}, err
	}
	if err := s.store.Update(ctx, scope.OwnerID, c); err != nil {
		return Complaint{}, err
	}
	return s.store.Get(ctx, scope.OwnerID, c.ID)
}

// SetStatus writes any known status; no transition order is enforced.
func (s *Service) SetStatus(ctx context.Context, scope tenancy.Scope, id, status, resolution string) (Complaint, error) {
	if !ValidStatus(status) {
		return Complaint{}, ErrInvalidStatus
	}
	if err := s.store.SetStatus(ctx, scope.OwnerID, id, status, strings.TrimSpace(resolution)); err != nil {
		return Complaint{}, err
	}
	return s.store.Get(ctx, scope.OwnerID, id)
}

func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id string) error {
	return s.store.Delete(ctx, scope.OwnerID, id)
}

func (s *Service) check(ctx context.Context, ownerID string, c *Complaint) error {
	c.Subject = strings.TrimSpace(c.Subject)
	c.Type = strings.TrimSpace(c.Type)
	switch {
	case c.Subject == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidComplaint)
	case c.Date.IsZero():
		return fmt.Errorf("%w: complaint date is required", ErrInvalidComplaint)
	case c.AgainstEmployeeID != "" && c.AgainstEmployeeID == c.EmployeeID:
		return fmt.Errorf("%w: an employee cannot complain against themselves", ErrInvalidComplaint)
	}
	ids := []string{c.EmployeeID}
	if c.AgainstEmployeeID != "" {
		ids = append(ids, c.AgainstEmployeeID)
	}
	for _, id := range ids {
		ok, err := s.store.StaffExists(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEmployeeNotFound
		}
	}
	return nil
}
