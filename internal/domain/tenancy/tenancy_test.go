package tenancy

import (
	"testing"

	"hrsaas/internal/domain/auth"
)

func TestScopeFromEmployee(t *testing.T) {
	s := FromUser(auth.UserContext{UserID: "e1", Type: auth.UserTypeEmployee, OwnerID: "c1"})
	if !s.SelfOnly || s.OwnerID != "c1" {
		t.Fatalf("unexpected scope %+v", s)
	}
	if got := s.EmployeeFilter("e2"); got != "e1" {
		t.Fatalf("employee filter = %q", got)
	}
	if s.CanSee("e2") {
		t.Fatal("employee must not see other records")
	}
}

func TestScopeFromHR(t *testing.T) {
	s := FromUser(auth.UserContext{UserID: "h1", Type: auth.UserTypeHR, OwnerID: "c1"})
	if s.SelfOnly {
		t.Fatal("hr is not restricted")
	}
	if got := s.EmployeeFilter("e2"); got != "e2" {
		t.Fatalf("employee filter = %q", got)
	}
	if !s.CanSee("e2") {
		t.Fatal("hr sees company records")
	}
}
