package payroll

import (
	"context"
	"time"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
)

type StoreAPI interface {
	ListComponents(ctx context.Context, ownerID string, q listing.Query) ([]SalaryComponent, int, error)
	GetComponent(ctx context.Context, ownerID, id string) (SalaryComponent, error)
	CreateComponent(ctx context.Context, ownerID string, c SalaryComponent) (string, error)
	UpdateComponent(ctx context.Context, ownerID string, c SalaryComponent) error
	DeleteComponent(ctx context.Context, ownerID, id string) error
	ComponentsOwned(ctx context.Context, ownerID string, ids []string) (bool, error)

	Employee(ctx context.Context, ownerID, employeeID string) (Employee, error)

	ListSalaries(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]EmployeeSalary, int, error)
	GetSalary(ctx context.Context, ownerID, id string) (EmployeeSalary, error)
	SalaryForEmployee(ctx context.Context, ownerID, employeeID string) (EmployeeSalary, error)
	ActiveSalaryEmployees(ctx context.Context, ownerID string) ([]string, error)
	CreateSalary(ctx context.Context, ownerID string, in SalaryInput) (string, error)
	UpdateSalary(ctx context.Context, ownerID, id string, in SalaryInput) error
	DeleteSalary(ctx context.Context, ownerID, id string) error

	UpsertAttendance(ctx context.Context, ownerID string, r AttendanceRecord) (string, error)
	DeleteAttendance(ctx context.Context, ownerID, id string) error
	ListAttendance(ctx context.Context, scope tenancy.Scope, q listing.Query, from, to time.Time) ([]AttendanceRecord, int, error)
	MonthAttendance(ctx context.Context, ownerID, employeeID string, from, to time.Time) ([]AttendanceRecord, error)

	UpsertPayslip(ctx context.Context, ownerID string, p Payslip, breakdown []byte) (string, error)
	SetPayslipFile(ctx context.Context, id, key string) error
	ListPayslips(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Payslip, int, error)
	GetPayslip(ctx context.Context, ownerID, id string) (Payslip, error)
}

var _ StoreAPI = (*Store)(nil)
