package users

import "errors"

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrStaffNotFound   = errors.New("staff member not found")
	ErrEmailTaken      = errors.New("email is already registered")
	ErrInvalidUser     = errors.New("invalid user")
	ErrEmployeeLimit   = errors.New("plan employee limit reached")
	ErrUserLimit       = errors.New("plan user limit reached")
	ErrPlanNotFound    = errors.New("plan not found")
)
