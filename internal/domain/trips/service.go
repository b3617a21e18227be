package trips

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

func (s *Service) List(ctx context.Context, scope tenancy.Scope, q listing.Query) (listing.Page[Trip], error) {
	items, total, err := s.store.List(ctx, scope, q)
	if err != nil {
		return listing.Page[Trip]{}, err
	}
	return listing.Page[Trip]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

// Get returns the trip with its expense totals.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id string) (Trip, error) {
	t, err := s.visible(ctx, scope, id)
	if err != nil {
		return Trip{}, err
	}
	expenses, err := s.store.ListExpenses(ctx, t.ID)
	if err != nil {
		return Trip{}, err
	}
	totals := ComputeTotals(t.AdvanceAmount, expenses)
	t.Totals = &totals
	return t, nil
}

func (s *Service) visible(ctx context.Context, scope tenancy.Scope, id string) (Trip, error) {
	t, err := s.store.Get(ctx, scope.OwnerID, id)
	if err != nil {
		return Trip{}, err
	}
	if !scope.CanSee(t.EmployeeID) {
		return Trip{}, ErrNotFound
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, scope tenancy.Scope, t Trip) (Trip, error) {
	t.EmployeeID = scope.EmployeeFilter(t.EmployeeID)
	t.Status = StatusPlanned
	if err := s.check(ctx, scope.OwnerID, &t); err != nil {
		return Trip{}, err
	}
	id, err := s.store.Create(ctx, scope.OwnerID, t)
	if err != nil {
		return Trip{}, fmt.Errorf("create trip: %w", err)
	}
	return s.Get(ctx, scope, id)
}

func (s *Service) Update(ctx context.Context, scope tenancy.Scope, t Trip) (Trip, error) {
	if err := s.check(ctx, scope.OwnerID, &t); err != nil {
		return Trip{}, err
	}
	if err := s.store.Update(ctx, scope.OwnerID, t); err != nil {
		return Trip{}, err
	}
	return s.Get(ctx, scope, t.ID)
}

func (s *Service) SetStatus(ctx context.Context, scope tenancy.Scope, id, status string) (Trip, error) {
	if !ValidStatus(status) {
		return Trip{}, ErrInvalidStatus
	}
	if err := s.store.SetStatus(ctx, scope.OwnerID, id, status); err != nil {
		return Trip{}, err
	}
	return s.Get(ctx, scope, id)
}

func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id string) error {
	return s.store.Delete(ctx, scope.OwnerID, id)
}

func (s *Service) check(ctx context.Context, ownerID string, t *Trip) error {
	t.Purpose = strings.TrimSpace(t.Purpose)
	t.Destination = strings.TrimSpace(t.Destination)
	switch {
	case t.Purpose == "" || t.Destination == "":
		return fmt.Errorf("%w: purpose and destination are required", ErrInvalidTrip)
	case t.StartDate.IsZero() || t.EndDate.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidTrip)
	case t.EndDate.Before(t.StartDate):
		return fmt.Errorf("%w: end date must not be before start date", ErrInvalidTrip)
	case t.AdvanceAmount.IsNegative():
		return fmt.Errorf("%w: advance must not be negative", ErrInvalidTrip)
	}
	ok, err := s.store.StaffExists(ctx, ownerID, t.EmployeeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Service) ListExpenses(ctx context.Context, scope tenancy.Scope, tripID string) ([]Expense, error) {
	if _, err := s.visible(ctx, scope, tripID); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, tripID)
}

// AddExpense records an expense on a visible trip. Restricted callers can
// only file pending expenses.
func (s *Service) AddExpense(ctx context.Context, scope tenancy.Scope, e Expense) (Expense, error) {
	t, err := s.visible(ctx, scope, e.TripID)
	if err != nil {
		return Expense{}, err
	}
	e.TripID = t.ID
	if scope.SelfOnly || e.Status == "" {
		e.Status = ExpensePending
	}
	if err := checkExpense(&e); err != nil {
		return Expense{}, err
	}
	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return s.store.GetExpense(ctx, t.ID, id)
}

func (s *Service) UpdateExpense(ctx context.Context, scope tenancy.Scope, e Expense) (Expense, error) {
	if _, err := s.visible(ctx, scope, e.TripID); err != nil {
		return Expense{}, err
	}
	if e.Status == "" {
		e.Status = ExpensePending
	}
	if err := checkExpense(&e); err != nil {
		return Expense{}, err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return Expense{}, err
	}
	return s.store.GetExpense(ctx, e.TripID, e.ID)
}

func (s *Service) DeleteExpense(ctx context.Context, scope tenancy.Scope, tripID, id string) error {
	if _, err := s.visible(ctx, scope, tripID); err != nil {
		return err
	}
	return s.store.DeleteExpense(ctx, tripID, id)
}

func checkExpense(e *Expense) error {
	e.Type = strings.TrimSpace(e.Type)
	switch {
	case e.Type == "":
		return fmt.Errorf("%w: expense type is required", ErrInvalidExpense)
	case e.Date.IsZero():
		return fmt.Errorf("%w: expense date is required", ErrInvalidExpense)
	case !e.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	case !ValidExpenseStatus(e.Status):
		return fmt.Errorf("%w: status must be pending, approved or rejected", ErrInvalidExpense)
	}
	return nil
}
