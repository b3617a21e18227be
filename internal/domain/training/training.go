package training

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	AttendanceEnrolled = "enrolled"
	AttendancePresent  = "present"
	AttendanceAbsent   = "absent"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var (
	ErrNotFound           = errors.New("training session not found")
	ErrInvalidSession     = errors.New("invalid training session")
	ErrInvalidStatus      = errors.New("invalid training status")
	ErrInvalidAttendance  = errors.New("invalid attendance")
	ErrCapacityReached    = errors.New("training session is full")
	ErrNotEnrolled        = errors.New("employee is not enrolled")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrSessionNotEditable = errors.New("training session is closed")
)

type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Trainer     string    `json:"trainer"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	Capacity    *int      `json:"capacity,omitempty"`
	Status      string    `json:"status"`
	Enrolled    int       `json:"enrolled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Open reports whether enrollment and attendance may still change.
func (s Session) Open() bool {
	return s.Status == StatusScheduled || s.Status == StatusInProgress
}

type Attendance struct {
	SessionID    string           `json:"sessionId"`
	EmployeeID   string           `json:"employeeId"`
	EmployeeName string           `json:"employeeName"`
	Status       string           `json:"status"`
	Score        *decimal.Decimal `json:"score,omitempty"`
	Feedback     string           `json:"feedback"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Mark is one row of a bulk attendance update.
type Mark struct {
	EmployeeID string
	Status     string
	Score      *decimal.Decimal
	Feedback   string
}
