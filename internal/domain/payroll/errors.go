package payroll

import "errors"

var (
	ErrInvalidWorkingDays = errors.New("working days must be positive")
	ErrInvalidComponent   = errors.New("invalid salary component")
	ErrComponentNotFound  = errors.New("salary component not found")
	ErrSalaryNotFound     = errors.New("employee salary not found")
	ErrSalaryExists       = errors.New("employee already has a salary record")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrInvalidPeriod      = errors.New("period must be formatted YYYY-MM")
	ErrPayslipNotFound    = errors.New("payslip not found")
	ErrPayslipFileMissing = errors.New("payslip has no stored document")
	ErrInvalidAttendance  = errors.New("invalid attendance record")
	ErrSalaryInactive     = errors.New("employee salary is inactive")
)
