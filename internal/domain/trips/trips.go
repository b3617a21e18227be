package trips

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPlanned   = "planned"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	ExpensePending  = "pending"
	ExpenseApproved = "approved"
	ExpenseRejected = "rejected"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPlanned, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ValidExpenseStatus(s string) bool {
	switch s {
	case ExpensePending, ExpenseApproved, ExpenseRejected:
		return true
	}
	return false
}

var (
	ErrNotFound         = errors.New("trip not found")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrInvalidTrip      = errors.New("invalid trip")
	ErrInvalidExpense   = errors.New("invalid expense")
	ErrInvalidStatus    = errors.New("invalid trip status")
	ErrEmployeeNotFound = errors.New("employee not found")
)

type Trip struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	Purpose       string          `json:"purpose"`
	Destination   string          `json:"destination"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	Description   string          `json:"description"`
	AdvanceAmount decimal.Decimal `json:"advanceAmount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Totals        *Totals         `json:"totals,omitempty"`
}

// Days is the inclusive length of the trip.
func (t Trip) Days() int {
	return int(t.EndDate.Sub(t.StartDate).Hours()/24) + 1
}

type Expense struct {
	ID             string          `json:"id"`
	TripID         string          `json:"tripId"`
	Type           string          `json:"expenseType"`
	Date           time.Time       `json:"expenseDate"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	IsReimbursable bool            `json:"isReimbursable"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Totals summarizes a trip's expenses against its advance. Balance is what
// the company still owes the employee; negative means the employee returns
// part of the advance.
type Totals struct {
	Expenses     decimal.Decimal `json:"expenses"`
	Reimbursable decimal.Decimal `json:"reimbursable"`
	Approved     decimal.Decimal `json:"approved"`
	Advance      decimal.Decimal `json:"advance"`
	Balance      decimal.Decimal `json:"balance"`
}

func ComputeTotals(advance decimal.Decimal, expenses []Expense) Totals {
	t := Totals{Advance: advance}
	for _, e := range expenses {
		t.Expenses = t.Expenses.Add(e.Amount)
		if !e.IsReimbursable {
			continue
		}
		t.Reimbursable = t.Reimbursable.Add(e.Amount)
		if e.Status == ExpenseApproved {
			t.Approved = t.Approved.Add(e.Amount)
		}
	}
	t.Balance = t.Approved.Sub(advance)
	return t
}
