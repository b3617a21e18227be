// Package tenancy narrows queries to the records a caller may see: everything
// owned by their company, or only their own rows for employees.
package tenancy

import (
	"context"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/platform/querier"
)

type Scope struct {
	OwnerID string
	ActorID string
	// SelfOnly limits employee-keyed records to the actor's own.
	SelfOnly bool
}

func FromUser(u auth.UserContext) Scope {
	return Scope{OwnerID: u.OwnerID, ActorID: u.UserID, SelfOnly: u.Restricted()}
}

// EmployeeFilter returns the employee id a list must be pinned to, or the
// requested one when the caller is not restricted.
func (s Scope) EmployeeFilter(requested string) string {
	if s.SelfOnly {
		return s.ActorID
	}
	return requested
}

// CanSee reports whether a record about employeeID is visible to the scope.
func (s Scope) CanSee(employeeID string) bool {
	return !s.SelfOnly || employeeID == s.ActorID
}

// StaffExists reports whether employeeID is an hr/employee user owned by ownerID.
func StaffExists(ctx context.Context, db querier.Querier, ownerID, employeeID string) (bool, error) {
	if ownerID == "" || employeeID == "" {
		return false, nil
	}
	var exists bool
	err := db.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM users
      WHERE id::text = $1 AND created_by = $2 AND type IN ('hr','employee')
    )
  `, employeeID, ownerID).Scan(&exists)
	return exists, err
}
