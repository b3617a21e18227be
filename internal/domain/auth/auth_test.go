package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	cryptoutil "hrsaas/internal/platform/crypto"
)

type fakeStore struct {
	users      map[string]User
	lastLogin  string
	mfaEnabled map[string]bool
}

func newFakeStore(users ...User) *fakeStore {
	s := &fakeStore{users: map[string]User{}, mfaEnabled: map[string]bool{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeStore) FindByID(_ context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) UpdateLastLogin(_ context.Context, userID string) error {
	f.lastLogin = userID
	return nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID, hash string) error {
	u := f.users[userID]
	u.PasswordHash = hash
	f.users[userID] = u
	return nil
}

func (f *fakeStore) UpdateMFASecret(_ context.Context, userID string, secretEnc []byte) error {
	u := f.users[userID]
	u.MFASecretEnc = secretEnc
	f.users[userID] = u
	return nil
}

func (f *fakeStore) SetMFAEnabled(_ context.Context, userID string, enabled bool) error {
	u := f.users[userID]
	u.MFAEnabled = enabled
	f.users[userID] = u
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

func TestTokenRoundTrip(t *testing.T) {
	user := UserContext{UserID: "u1", Type: UserTypeHR, OwnerID: "c1", Email: "hr@example.com"}
	token, err := GenerateToken("secret", user, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserContext() != user {
		t.Fatalf("unexpected claims: %+v", claims.UserContext())
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected signature error with wrong secret")
	}
}

func TestOwnerIDUsesUserType(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{name: "superadmin", user: User{ID: "s1", Type: UserTypeSuperAdmin}, want: "s1"},
		{name: "company owns itself even when created by superadmin", user: User{ID: "c1", Type: UserTypeCompany, CreatedBy: "s1"}, want: "c1"},
		{name: "hr belongs to company", user: User{ID: "h1", Type: UserTypeHR, CreatedBy: "c1"}, want: "c1"},
		{name: "employee belongs to company", user: User{ID: "e1", Type: UserTypeEmployee, CreatedBy: "c1"}, want: "c1"},
		{name: "orphan employee", user: User{ID: "e2", Type: UserTypeEmployee}, want: "e2"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := OwnerID(tc.user); got != tc.want {
				t.Fatalf("OwnerID = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCapabilitySets(t *testing.T) {
	if !CapabilitiesFor(UserTypeCompany).Has(CapComplaintDelete) {
		t.Fatal("company should delete complaints")
	}
	if CapabilitiesFor(UserTypeEmployee).Has(CapComplaintStatus) {
		t.Fatal("employee must not change complaint status")
	}
	if CapabilitiesFor(UserTypeHR).Has(CapPaymentSettingEdit) {
		t.Fatal("hr must not edit payment settings")
	}
	if CapabilitiesFor("guest").Has(CapPlanView) {
		t.Fatal("unknown type should have no capabilities")
	}

	got := CapabilitiesFor(UserTypeCompany).Actions("complaint")
	want := []string{"create", "delete", "edit", "status", "view"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Actions = %v, want %v", got, want)
	}
	if actions := CapabilitiesFor(UserTypeEmployee).Actions("trip"); !reflect.DeepEqual(actions, []string{"create", "view"}) {
		t.Fatalf("unexpected employee trip actions %v", actions)
	}
}

func TestLogin(t *testing.T) {
	store := newFakeStore(
		User{ID: "c1", Email: "company@example.com", Type: UserTypeCompany, Status: UserStatusActive, PasswordHash: mustHash(t, "password")},
		User{ID: "c2", Email: "off@example.com", Type: UserTypeCompany, Status: UserStatusInactive, PasswordHash: mustHash(t, "password")},
	)
	svc := NewService(store, nil, "secret")

	result, err := svc.Login(context.Background(), "company@example.com", "password", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" || result.User.ID != "c1" || len(result.Capabilities) == 0 {
		t.Fatalf("unexpected login result: %+v", result)
	}
	if store.lastLogin != "c1" {
		t.Fatal("expected last login to be recorded")
	}

	if _, err := svc.Login(context.Background(), "company@example.com", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "missing@example.com", "password", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "off@example.com", "password", ""); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected inactive user, got %v", err)
	}
}

func TestMFAFlow(t *testing.T) {
	store := newFakeStore(User{ID: "c1", Email: "company@example.com", Type: UserTypeCompany, Status: UserStatusActive, PasswordHash: mustHash(t, "password")})
	crypto, err := cryptoutil.New("")
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	svc := NewService(store, crypto, "secret")
	ctx := context.Background()

	setup, err := svc.SetupMFA(ctx, "c1")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if err := svc.SetMFA(ctx, "c1", code, true); err != nil {
		t.Fatalf("enable: %v", err)
	}

	if _, err := svc.Login(ctx, "company@example.com", "password", ""); !errors.Is(err, ErrMFARequired) {
		t.Fatalf("expected mfa required, got %v", err)
	}
	if _, err := svc.Login(ctx, "company@example.com", "password", "000000x"); !errors.Is(err, ErrMFAInvalid) {
		t.Fatalf("expected invalid mfa code, got %v", err)
	}
	if _, err := svc.Login(ctx, "company@example.com", "password", code); err != nil {
		t.Fatalf("login with mfa: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	store := newFakeStore(User{ID: "e1", Email: "e@example.com", Type: UserTypeEmployee, Status: UserStatusActive, PasswordHash: mustHash(t, "password")})
	svc := NewService(store, nil, "secret")
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, "e1", "nope", "longenough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, "e1", "password", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, "e1", "password", "longenough"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := CheckPassword(store.users["e1"].PasswordHash, "longenough"); err != nil {
		t.Fatal("expected new password hash to be stored")
	}
}
