package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/platform/listing"
)

type fakeStore struct {
	StoreAPI
	companies map[string]Company
	staff     map[string]Staff
	created   []Account
	limits    PlanLimits
	counts    map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		companies: map[string]Company{"acme": {ID: "acme", Name: "Acme", Status: auth.UserStatusActive}},
		staff:     map[string]Staff{"s1": {ID: "s1", Name: "Sam", Type: auth.UserTypeEmployee, Status: auth.UserStatusActive}},
		counts:    map[string]int{},
	}
}

func (f *fakeStore) DefaultPlanID(context.Context) (string, error) { return "free", nil }

func (f *fakeStore) PlanExists(_ context.Context, id string) (bool, error) { return id == "pro", nil }

func (f *fakeStore) CreateUser(_ context.Context, parentID string, a Account) (string, error) {
	f.created = append(f.created, a)
	id := "new"
	if a.Type == auth.UserTypeCompany {
		f.companies[id] = Company{ID: id, Name: a.Name, Email: a.Email, Status: a.Status, PlanID: a.PlanID}
	} else {
		f.staff[id] = Staff{ID: id, Name: a.Name, Email: a.Email, Type: a.Type, Status: a.Status}
	}
	return id, nil
}

func (f *fakeStore) GetCompany(_ context.Context, id string) (Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeStore) GetStaff(_ context.Context, _ string, id string) (Staff, error) {
	st, ok := f.staff[id]
	if !ok {
		return Staff{}, ErrStaffNotFound
	}
	return st, nil
}

func (f *fakeStore) SetStatus(_ context.Context, _, kind, id, status string) (bool, error) {
	if kind == auth.UserTypeCompany {
		c := f.companies[id]
		c.Status = status
		f.companies[id] = c
		return true, nil
	}
	st := f.staff[id]
	st.Status = status
	f.staff[id] = st
	return true, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, _, _ string, a Account) (bool, error) {
	st, ok := f.staff[a.ID]
	if !ok {
		return false, nil
	}
	st.Name, st.Email, st.Type = a.Name, a.Email, a.Type
	f.staff[a.ID] = st
	return true, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, _, _, id string) (bool, error) {
	_, ok := f.staff[id]
	delete(f.staff, id)
	return ok, nil
}

func (f *fakeStore) CountStaff(_ context.Context, _, userType string) (int, error) {
	return f.counts[userType], nil
}

func (f *fakeStore) Limits(context.Context, string) (PlanLimits, error) { return f.limits, nil }

func (f *fakeStore) ListStaff(context.Context, string, listing.Query) ([]Staff, int, error) {
	out := []Staff{}
	for _, st := range f.staff {
		out = append(out, st)
	}
	return out, len(out), nil
}

func TestCreateCompanyAssignsDefaultPlan(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, true)

	c, err := svc.CreateCompany(context.Background(), "admin", Account{
		Name: " Globex ", Email: "Owner@Globex.io", Password: "supersecret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Globex", c.Name)
	assert.Equal(t, "owner@globex.io", c.Email)
	assert.Equal(t, "free", c.PlanID)
	require.Len(t, store.created, 1)
	assert.NotEmpty(t, store.created[0].passwordHash)
	assert.NoError(t, auth.CheckPassword(store.created[0].passwordHash, "supersecret"))
}

func TestCreateCompanyRejectsUnknownPlan(t *testing.T) {
	svc := NewService(newFakeStore(), true)
	_, err := svc.CreateCompany(context.Background(), "admin", Account{
		Name: "Globex", Email: "owner@globex.io", Password: "supersecret", PlanID: "gold",
	})
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCreateStaffValidation(t *testing.T) {
	svc := NewService(newFakeStore(), true)
	ctx := context.Background()
	tests := []struct {
		name string
		in   Account
		want error
	}{
		{"company type", Account{Name: "X", Email: "x@y.io", Password: "password1", Type: auth.UserTypeCompany}, ErrInvalidUser},
		{"bad email", Account{Name: "X", Email: "nope", Password: "password1", Type: auth.UserTypeHR}, ErrInvalidUser},
		{"no password", Account{Name: "X", Email: "x@y.io", Type: auth.UserTypeHR}, ErrInvalidUser},
		{"short password", Account{Name: "X", Email: "x@y.io", Password: "short", Type: auth.UserTypeHR}, auth.ErrWeakPassword},
		{"bad status", Account{Name: "X", Email: "x@y.io", Password: "password1", Type: auth.UserTypeHR, Status: "gone"}, ErrInvalidUser},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateStaff(ctx, "acme", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateStaffPlanLimits(t *testing.T) {
	store := newFakeStore()
	store.limits = PlanLimits{MaxUsers: 1, MaxEmployees: 2}
	store.counts[auth.UserTypeEmployee] = 2
	store.counts[auth.UserTypeHR] = 0
	ctx := context.Background()

	svc := NewService(store, true)
	_, err := svc.CreateStaff(ctx, "acme", Account{Name: "E", Email: "e@acme.io", Password: "password1", Type: auth.UserTypeEmployee})
	assert.ErrorIs(t, err, ErrEmployeeLimit)

	st, err := svc.CreateStaff(ctx, "acme", Account{Name: "H", Email: "h@acme.io", Password: "password1", Type: auth.UserTypeHR})
	require.NoError(t, err)
	assert.Equal(t, auth.UserTypeHR, st.Type)

	// Outside SaaS mode plans do not cap staff.
	_, err = NewService(store, false).CreateStaff(ctx, "acme", Account{Name: "E", Email: "e@acme.io", Password: "password1", Type: auth.UserTypeEmployee})
	assert.NoError(t, err)
}

func TestUpdateStaffTypeChangeChecksLimit(t *testing.T) {
	store := newFakeStore()
	store.limits = PlanLimits{MaxUsers: 1}
	store.counts[auth.UserTypeHR] = 1
	svc := NewService(store, true)

	_, err := svc.UpdateStaff(context.Background(), "acme", Account{ID: "s1", Name: "Sam", Email: "sam@acme.io", Type: auth.UserTypeHR})
	assert.ErrorIs(t, err, ErrUserLimit)

	st, err := svc.UpdateStaff(context.Background(), "acme", Account{ID: "s1", Name: "Samuel", Email: "sam@acme.io"})
	require.NoError(t, err)
	assert.Equal(t, "Samuel", st.Name)
	assert.Equal(t, auth.UserTypeEmployee, st.Type)
}

func TestToggleAndDelete(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, true)
	ctx := context.Background()

	c, err := svc.ToggleCompany(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, auth.UserStatusInactive, c.Status)

	st, err := svc.ToggleStaff(ctx, "acme", "s1")
	require.NoError(t, err)
	assert.Equal(t, auth.UserStatusInactive, st.Status)

	require.NoError(t, svc.DeleteStaff(ctx, "acme", "s1"))
	assert.ErrorIs(t, svc.DeleteStaff(ctx, "acme", "s1"), ErrStaffNotFound)
}
