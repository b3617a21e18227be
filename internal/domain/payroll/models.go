package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalaryComponent struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	CalculationType string          `json:"calculationType"`
	DefaultValue    decimal.Decimal `json:"defaultValue"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// AttachedComponent is a component on an employee salary. Value overrides
// the component default when set.
type AttachedComponent struct {
	ComponentID     string           `json:"componentId"`
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	CalculationType string           `json:"calculationType"`
	DefaultValue    decimal.Decimal  `json:"defaultValue"`
	Value           *decimal.Decimal `json:"value,omitempty"`
}

func (c AttachedComponent) EffectiveValue() decimal.Decimal {
	if c.Value != nil {
		return *c.Value
	}
	return c.DefaultValue
}

type EmployeeSalary struct {
	ID           string              `json:"id"`
	EmployeeID   string              `json:"employeeId"`
	EmployeeName string              `json:"employeeName"`
	BasicSalary  decimal.Decimal     `json:"basicSalary"`
	OvertimeRate decimal.Decimal     `json:"overtimeRate"`
	Status       string              `json:"status"`
	Notes        string              `json:"notes"`
	Components   []AttachedComponent `json:"components"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

type ComponentInput struct {
	ComponentID string
	Value       *decimal.Decimal
}

type SalaryInput struct {
	EmployeeID   string
	BasicSalary  decimal.Decimal
	OvertimeRate decimal.Decimal
	Status       string
	Notes        string
	Components   []ComponentInput
}

type AttendanceRecord struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	Date          time.Time       `json:"date"`
	Status        string          `json:"status"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
}

// AttendanceSummary is a month of attendance folded into the figures the
// calculation needs.
type AttendanceSummary struct {
	WorkingDays    int             `json:"workingDays"`
	Present        int             `json:"present"`
	Absent         int             `json:"absent"`
	HalfDay        int             `json:"halfDay"`
	Leave          int             `json:"leave"`
	UnpaidLeave    int             `json:"unpaidLeave"`
	OvertimeHours  decimal.Decimal `json:"overtimeHours"`
	OvertimeAmount decimal.Decimal `json:"overtimeAmount"`
}

type ReportLine struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// Report is the result of one payroll calculation. Amounts are rounded to
// two places.
type Report struct {
	Basic           decimal.Decimal   `json:"basic"`
	Earnings        decimal.Decimal   `json:"earnings"`
	Deductions      decimal.Decimal   `json:"deductions"`
	PerDay          decimal.Decimal   `json:"perDay"`
	UnpaidDays      decimal.Decimal   `json:"unpaidDays"`
	UnpaidDeduction decimal.Decimal   `json:"unpaidDeduction"`
	Overtime        decimal.Decimal   `json:"overtime"`
	Net             decimal.Decimal   `json:"net"`
	Lines           []ReportLine      `json:"lines"`
	Attendance      AttendanceSummary `json:"attendance"`
}

type Payslip struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employeeId"`
	EmployeeName    string          `json:"employeeName"`
	Period          string          `json:"period"`
	Basic           decimal.Decimal `json:"basic"`
	Earnings        decimal.Decimal `json:"earnings"`
	Deductions      decimal.Decimal `json:"deductions"`
	UnpaidDeduction decimal.Decimal `json:"unpaidDeduction"`
	Overtime        decimal.Decimal `json:"overtime"`
	Net             decimal.Decimal `json:"net"`
	Report          Report          `json:"report"`
	FileKey         string          `json:"-"`
	HasFile         bool            `json:"hasFile"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Employee struct {
	ID    string
	Name  string
	Email string
}
