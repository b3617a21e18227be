package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/platform/listing"
)

const kindStaff = "staff"

type Service struct {
	store StoreAPI
	saas  bool
}

// NewService builds the companies and staff service. Plan limits are only
// enforced in SaaS mode.
func NewService(store StoreAPI, saas bool) *Service {
	return &Service{store: store, saas: saas}
}

func (s *Service) ListCompanies(ctx context.Context, q listing.Query) (listing.Page[Company], error) {
	items, total, err := s.store.ListCompanies(ctx, q)
	if err != nil {
		return listing.Page[Company]{}, err
	}
	return listing.Page[Company]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetCompany(ctx context.Context, id string) (Company, error) {
	return s.store.GetCompany(ctx, id)
}

// CreateCompany registers a company under the superadmin actorID. Without an
// explicit plan the default plan is assigned.
func (s *Service) CreateCompany(ctx context.Context, actorID string, a Account) (Company, error) {
	a.Type = auth.UserTypeCompany
	if err := s.prepare(&a, true); err != nil {
		return Company{}, err
	}
	if a.PlanID == "" {
		planID, err := s.store.DefaultPlanID(ctx)
		if err != nil {
			return Company{}, err
		}
		a.PlanID = planID
	} else if err := s.checkPlan(ctx, a.PlanID); err != nil {
		return Company{}, err
	}
	id, err := s.store.CreateUser(ctx, actorID, a)
	if err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	return s.store.GetCompany(ctx, id)
}

func (s *Service) UpdateCompany(ctx context.Context, a Account) (Company, error) {
	a.Type = ""
	if err := s.prepare(&a, false); err != nil {
		return Company{}, err
	}
	ok, err := s.store.UpdateUser(ctx, "", auth.UserTypeCompany, a)
	if err != nil {
		return Company{}, err
	}
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return s.store.GetCompany(ctx, a.ID)
}

// ToggleCompany flips a company between active and inactive. Staff of an
// inactive company lose access with it.
func (s *Service) ToggleCompany(ctx context.Context, id string) (Company, error) {
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return Company{}, err
	}
	ok, err := s.store.SetStatus(ctx, "", auth.UserTypeCompany, id, flip(c.Status))
	if err != nil {
		return Company{}, err
	}
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return s.store.GetCompany(ctx, id)
}

func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	ok, err := s.store.DeleteUser(ctx, "", auth.UserTypeCompany, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCompanyNotFound
	}
	return nil
}

func (s *Service) ListStaff(ctx context.Context, ownerID string, q listing.Query) (listing.Page[Staff], error) {
	items, total, err := s.store.ListStaff(ctx, ownerID, q)
	if err != nil {
		return listing.Page[Staff]{}, err
	}
	return listing.Page[Staff]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetStaff(ctx context.Context, ownerID, id string) (Staff, error) {
	return s.store.GetStaff(ctx, ownerID, id)
}

// CreateStaff adds an hr or employee user to the company ownerID.
func (s *Service) CreateStaff(ctx context.Context, ownerID string, a Account) (Staff, error) {
	if !staffType(a.Type) {
		return Staff{}, fmt.Errorf("%w: type must be hr or employee", ErrInvalidUser)
	}
	if err := s.prepare(&a, true); err != nil {
		return Staff{}, err
	}
	if err := s.checkLimit(ctx, ownerID, a.Type); err != nil {
		return Staff{}, err
	}
	id, err := s.store.CreateUser(ctx, ownerID, a)
	if err != nil {
		return Staff{}, fmt.Errorf("create staff: %w", err)
	}
	return s.store.GetStaff(ctx, ownerID, id)
}

func (s *Service) UpdateStaff(ctx context.Context, ownerID string, a Account) (Staff, error) {
	if err := s.prepare(&a, false); err != nil {
		return Staff{}, err
	}
	current, err := s.store.GetStaff(ctx, ownerID, a.ID)
	if err != nil {
		return Staff{}, err
	}
	if a.Type == "" {
		a.Type = current.Type
	}
	if !staffType(a.Type) {
		return Staff{}, fmt.Errorf("%w: type must be hr or employee", ErrInvalidUser)
	}
	if current.Type != a.Type {
		if err := s.checkLimit(ctx, ownerID, a.Type); err != nil {
			return Staff{}, err
		}
	}
	ok, err := s.store.UpdateUser(ctx, ownerID, kindStaff, a)
	if err != nil {
		return Staff{}, err
	}
	if !ok {
		return Staff{}, ErrStaffNotFound
	}
	return s.store.GetStaff(ctx, ownerID, a.ID)
}

func (s *Service) ToggleStaff(ctx context.Context, ownerID, id string) (Staff, error) {
	st, err := s.store.GetStaff(ctx, ownerID, id)
	if err != nil {
		return Staff{}, err
	}
	if _, err := s.store.SetStatus(ctx, ownerID, kindStaff, id, flip(st.Status)); err != nil {
		return Staff{}, err
	}
	return s.store.GetStaff(ctx, ownerID, id)
}

func (s *Service) DeleteStaff(ctx context.Context, ownerID, id string) error {
	ok, err := s.store.DeleteUser(ctx, ownerID, kindStaff, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStaffNotFound
	}
	return nil
}

// checkLimit enforces max_users for hr accounts and max_employees for
// employees.
func (s *Service) checkLimit(ctx context.Context, ownerID, userType string) error {
	if !s.saas {
		return nil
	}
	limits, err := s.store.Limits(ctx, ownerID)
	if err != nil {
		return err
	}
	limit, limitErr := limits.MaxEmployees, ErrEmployeeLimit
	if userType == auth.UserTypeHR {
		limit, limitErr = limits.MaxUsers, ErrUserLimit
	}
	if limit <= 0 {
		return nil
	}
	n, err := s.store.CountStaff(ctx, ownerID, userType)
	if err != nil {
		return err
	}
	if n >= limit {
		return limitErr
	}
	return nil
}

func (s *Service) checkPlan(ctx context.Context, planID string) error {
	ok, err := s.store.PlanExists(ctx, planID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPlanNotFound
	}
	return nil
}

// prepare normalizes the account and hashes its password.
func (s *Service) prepare(a *Account, create bool) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.Status == "" {
		a.Status = auth.UserStatusActive
	}
	switch {
	case a.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	case !validEmail(a.Email):
		return fmt.Errorf("%w: email is invalid", ErrInvalidUser)
	case a.Status != auth.UserStatusActive && a.Status != auth.UserStatusInactive:
		return fmt.Errorf("%w: status must be active or inactive", ErrInvalidUser)
	case create && a.Password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidUser)
	}
	if a.Password == "" {
		return nil
	}
	if len(a.Password) < 8 {
		return auth.ErrWeakPassword
	}
	hash, err := auth.HashPassword(a.Password)
	if err != nil {
		return err
	}
	a.passwordHash = hash
	return nil
}

var validate = validator.New()

func validEmail(v string) bool {
	return validate.Var(v, "required,email") == nil
}

func staffType(t string) bool {
	return t == auth.UserTypeHR || t == auth.UserTypeEmployee
}

func flip(status string) string {
	if status == auth.UserStatusActive {
		return auth.UserStatusInactive
	}
	return auth.UserStatusActive
}
