package users

import "time"

type Company struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	PlanID         string     `json:"planId,omitempty"`
	PlanName       string     `json:"planName,omitempty"`
	PlanExpireDate *time.Time `json:"planExpireDate,omitempty"`
	StaffCount     int        `json:"staffCount"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type Staff struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Account is the write model shared by companies and staff. An empty
// Password on update keeps the current one.
type Account struct {
	ID       string
	Name     string
	Email    string
	Password string
	Type     string
	Status   string
	PlanID   string

	passwordHash string
}

// PlanLimits are the caps of a company's plan. Zero means unlimited.
type PlanLimits struct {
	MaxUsers     int
	MaxEmployees int
}
