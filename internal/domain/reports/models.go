package reports

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeDashboard is what an employee sees about themselves.
type EmployeeDashboard struct {
	Payslips          int              `json:"payslips"`
	LatestNet         *decimal.Decimal `json:"latestNet,omitempty"`
	LatestPeriod      string           `json:"latestPeriod,omitempty"`
	OpenComplaints    int              `json:"openComplaints"`
	ActiveTrips       int              `json:"activeTrips"`
	UpcomingTrainings int              `json:"upcomingTrainings"`
	PublishedReviews  int              `json:"publishedReviews"`
}

// CompanyDashboard covers one tenant and is shared by the company and its HR.
type CompanyDashboard struct {
	Employees         int        `json:"employees"`
	HRUsers           int        `json:"hrUsers"`
	OpenComplaints    int        `json:"openComplaints"`
	ActiveTrips       int        `json:"activeTrips"`
	UpcomingTrainings int        `json:"upcomingTrainings"`
	PayslipsThisMonth int        `json:"payslipsThisMonth"`
	PlanName          string     `json:"planName"`
	PlanExpiresAt     *time.Time `json:"planExpiresAt,omitempty"`
}

type AdminDashboard struct {
	Companies       int             `json:"companies"`
	ActiveCompanies int             `json:"activeCompanies"`
	PendingOrders   int             `json:"pendingOrders"`
	ApprovedRevenue decimal.Decimal `json:"approvedRevenue"`
}

type JobRun struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId,omitempty"`
	Type        string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}
