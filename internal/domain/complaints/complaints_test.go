package complaints

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/tenancy"
)

type fakeStore struct {
	StoreAPI
	items map[string]Complaint
	staff map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items: map[string]Complaint{"c1": {ID: "c1", EmployeeID: "bob", Subject: "Noise", Status: StatusSubmitted}},
		staff: map[string]bool{"alice": true, "bob": true},
	}
}

func (f *fakeStore) StaffExists(_ context.Context, _, id string) (bool, error) {
	return f.staff[id], nil
}

func (f *fakeStore) Create(_ context.Context, _ string, c Complaint) (string, error) {
	c.ID = "new"
	f.items[c.ID] = c
	return c.ID, nil
}

func (f *fakeStore) Get(_ context.Context, _, id string) (Complaint, error) {
	c, ok := f.items[id]
	if !ok {
		return Complaint{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) SetStatus(_ context.Context, _, id, status, resolution string) error {
	c, ok := f.items[id]
	if !ok {
		return ErrNotFound
	}
	c.Status, c.Resolution = status, resolution
	f.items[id] = c
	return nil
}

var (
	company  = tenancy.Scope{OwnerID: "acme", ActorID: "acme"}
	employee = tenancy.Scope{OwnerID: "acme", ActorID: "alice", SelfOnly: true}
	day      = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
)

func TestCreatePinsRestrictedCallerAsComplainant(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	c, err := svc.Create(context.Background(), employee, Complaint{
		EmployeeID: "bob", AgainstEmployeeID: "bob", Subject: " Parking ", Date: day, Status: StatusResolved,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", c.EmployeeID)
	assert.Equal(t, "Parking", c.Subject)
	assert.Equal(t, StatusSubmitted, c.Status)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, company, Complaint{EmployeeID: "bob", Date: day})
	assert.ErrorIs(t, err, ErrInvalidComplaint)
	_, err = svc.Create(ctx, company, Complaint{EmployeeID: "bob", Subject: "x"})
	assert.ErrorIs(t, err, ErrInvalidComplaint)
	_, err = svc.Create(ctx, company, Complaint{EmployeeID: "bob", AgainstEmployeeID: "bob", Subject: "x", Date: day})
	assert.ErrorIs(t, err, ErrInvalidComplaint)
	_, err = svc.Create(ctx, company, Complaint{EmployeeID: "mallory", Subject: "x", Date: day})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
	_, err = svc.Create(ctx, company, Complaint{Subject: "x", Date: day})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestGetHidesOthersFromRestrictedCaller(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.Get(context.Background(), employee, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
	c, err := svc.Get(context.Background(), company, "c1")
	require.NoError(t, err)
	assert.Equal(t, "bob", c.EmployeeID)
}

func TestSetStatusAcceptsAnyKnownStatus(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	c, err := svc.SetStatus(ctx, company, "c1", StatusDismissed, " duplicate ")
	require.NoError(t, err)
	assert.Equal(t, StatusDismissed, c.Status)
	assert.Equal(t, "duplicate", c.Resolution)

	c, err = svc.SetStatus(ctx, company, "c1", StatusSubmitted, "")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, c.Status)

	_, err = svc.SetStatus(ctx, company, "c1", "closed", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
