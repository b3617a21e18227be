package complaints

import (
	"errors"
	"time"
)

const (
	StatusSubmitted          = "submitted"
	StatusUnderInvestigation = "under_investigation"
	StatusResolved           = "resolved"
	StatusDismissed          = "dismissed"
)

var Statuses = []string{StatusSubmitted, StatusUnderInvestigation, StatusResolved, StatusDismissed}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

var (
	ErrNotFound         = errors.New("complaint not found")
	ErrInvalidComplaint = errors.New("invalid complaint")
	ErrInvalidStatus    = errors.New("invalid complaint status")
	ErrEmployeeNotFound = errors.New("employee not found")
)

type Complaint struct {
	ID                string     `json:"id"`
	EmployeeID        string     `json:"employeeId"`
	EmployeeName      string     `json:"employeeName"`
	AgainstEmployeeID string     `json:"againstEmployeeId,omitempty"`
	AgainstName       string     `json:"againstEmployeeName,omitempty"`
	Type              string     `json:"complaintType"`
	Subject           string     `json:"subject"`
	Description       string     `json:"description"`
	Date              time.Time  `json:"complaintDate"`
	Status            string     `json:"status"`
	Resolution        string     `json:"resolution"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
