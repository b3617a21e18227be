package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/settings"
	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/storage"
)

// SettingsSource resolves the effective settings of a user.
type SettingsSource interface {
	Resolve(ctx context.Context, userID string) (map[string]string, error)
}

type Service struct {
	store    StoreAPI
	settings SettingsSource
	files    storage.Storage
}

func NewService(store StoreAPI, settingsSource SettingsSource, files storage.Storage) *Service {
	return &Service{store: store, settings: settingsSource, files: files}
}

func (s *Service) ListComponents(ctx context.Context, ownerID string, q listing.Query) (listing.Page[SalaryComponent], error) {
	items, total, err := s.store.ListComponents(ctx, ownerID, q)
	if err != nil {
		return listing.Page[SalaryComponent]{}, err
	}
	return listing.Page[SalaryComponent]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetComponent(ctx context.Context, ownerID, id string) (SalaryComponent, error) {
	return s.store.GetComponent(ctx, ownerID, id)
}

func (s *Service) CreateComponent(ctx context.Context, ownerID string, c SalaryComponent) (SalaryComponent, error) {
	if c.Status == "" {
		c.Status = StatusActive
	}
	if err := ValidateComponent(c); err != nil {
		return SalaryComponent{}, err
	}
	id, err := s.store.CreateComponent(ctx, ownerID, c)
	if err != nil {
		return SalaryComponent{}, fmt.Errorf("create component: %w", err)
	}
	return s.store.GetComponent(ctx, ownerID, id)
}

func (s *Service) UpdateComponent(ctx context.Context, ownerID string, c SalaryComponent) (SalaryComponent, error) {
	if c.Status == "" {
		c.Status = StatusActive
	}
	if err := ValidateComponent(c); err != nil {
		return SalaryComponent{}, err
	}
	if err := s.store.UpdateComponent(ctx, ownerID, c); err != nil {
		return SalaryComponent{}, err
	}
	return s.store.GetComponent(ctx, ownerID, c.ID)
}

func (s *Service) DeleteComponent(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteComponent(ctx, ownerID, id)
}

// ValidateComponent enforces the enums and that percentages stay in 0..100.
func ValidateComponent(c SalaryComponent) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidComponent)
	}
	if c.Type != ComponentEarning && c.Type != ComponentDeduction {
		return fmt.Errorf("%w: type must be earning or deduction", ErrInvalidComponent)
	}
	if c.CalculationType != CalcFixed && c.CalculationType != CalcPercentage {
		return fmt.Errorf("%w: calculation type must be fixed or percentage", ErrInvalidComponent)
	}
	if c.DefaultValue.IsNegative() {
		return fmt.Errorf("%w: value must not be negative", ErrInvalidComponent)
	}
	if c.CalculationType == CalcPercentage && c.DefaultValue.GreaterThan(hundred) {
		return fmt.Errorf("%w: percentage must not exceed 100", ErrInvalidComponent)
	}
	if c.Status != StatusActive && c.Status != StatusInactive {
		return fmt.Errorf("%w: status must be active or inactive", ErrInvalidComponent)
	}
	return nil
}

func (s *Service) ListSalaries(ctx context.Context, scope tenancy.Scope, q listing.Query) (listing.Page[EmployeeSalary], error) {
	items, total, err := s.store.ListSalaries(ctx, scope, q)
	if err != nil {
		return listing.Page[EmployeeSalary]{}, err
	}
	return listing.Page[EmployeeSalary]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetSalary(ctx context.Context, scope tenancy.Scope, id string) (EmployeeSalary, error) {
	salary, err := s.store.GetSalary(ctx, scope.OwnerID, id)
	if err != nil {
		return EmployeeSalary{}, err
	}
	if !scope.CanSee(salary.EmployeeID) {
		return EmployeeSalary{}, ErrSalaryNotFound
	}
	return salary, nil
}

func (s *Service) CreateSalary(ctx context.Context, ownerID string, in SalaryInput) (EmployeeSalary, error) {
	if err := s.checkSalaryInput(ctx, ownerID, &in); err != nil {
		return EmployeeSalary{}, err
	}
	if _, err := s.store.Employee(ctx, ownerID, in.EmployeeID); err != nil {
		return EmployeeSalary{}, err
	}
	id, err := s.store.CreateSalary(ctx, ownerID, in)
	if err != nil {
		return EmployeeSalary{}, err
	}
	return s.store.GetSalary(ctx, ownerID, id)
}

func (s *Service) UpdateSalary(ctx context.Context, ownerID, id string, in SalaryInput) (EmployeeSalary, error) {
	if err := s.checkSalaryInput(ctx, ownerID, &in); err != nil {
		return EmployeeSalary{}, err
	}
	if err := s.store.UpdateSalary(ctx, ownerID, id, in); err != nil {
		return EmployeeSalary{}, err
	}
	return s.store.GetSalary(ctx, ownerID, id)
}

func (s *Service) DeleteSalary(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteSalary(ctx, ownerID, id)
}

func (s *Service) checkSalaryInput(ctx context.Context, ownerID string, in *SalaryInput) error {
	if in.Status == "" {
		in.Status = StatusActive
	}
	if in.BasicSalary.IsNegative() || in.OvertimeRate.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidComponent)
	}
	ids := make([]string, 0, len(in.Components))
	for _, c := range in.Components {
		if c.Value != nil && c.Value.IsNegative() {
			return fmt.Errorf("%w: component value must not be negative", ErrInvalidComponent)
		}
		ids = append(ids, c.ComponentID)
	}
	owned, err := s.store.ComponentsOwned(ctx, ownerID, ids)
	if err != nil {
		return err
	}
	if !owned {
		return ErrComponentNotFound
	}
	return nil
}

func (s *Service) RecordAttendance(ctx context.Context, ownerID string, r AttendanceRecord) (AttendanceRecord, error) {
	if !ValidAttendanceStatus(r.Status) || r.Date.IsZero() || r.OvertimeHours.IsNegative() {
		return AttendanceRecord{}, ErrInvalidAttendance
	}
	employee, err := s.store.Employee(ctx, ownerID, r.EmployeeID)
	if err != nil {
		return AttendanceRecord{}, err
	}
	id, err := s.store.UpsertAttendance(ctx, ownerID, r)
	if err != nil {
		return AttendanceRecord{}, err
	}
	r.ID = id
	r.EmployeeName = employee.Name
	return r, nil
}

func (s *Service) DeleteAttendance(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteAttendance(ctx, ownerID, id)
}

// ListAttendance lists records, limited to one month when period is set.
func (s *Service) ListAttendance(ctx context.Context, scope tenancy.Scope, q listing.Query, period string) (listing.Page[AttendanceRecord], error) {
	var from, to time.Time
	if period != "" {
		var err error
		if from, to, err = PeriodBounds(period); err != nil {
			return listing.Page[AttendanceRecord]{}, err
		}
	}
	items, total, err := s.store.ListAttendance(ctx, scope, q, from, to)
	if err != nil {
		return listing.Page[AttendanceRecord]{}, err
	}
	return listing.Page[AttendanceRecord]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

// PeriodBounds turns "YYYY-MM" into the half-open month [from, to).
func PeriodBounds(period string) (time.Time, time.Time, error) {
	from, err := time.Parse(PeriodLayout, strings.TrimSpace(period))
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return from, from.AddDate(0, 1, 0), nil
}

// Preview calculates an employee's pay for a month without storing it.
func (s *Service) Preview(ctx context.Context, scope tenancy.Scope, employeeID, period string) (Report, error) {
	if !scope.CanSee(employeeID) {
		return Report{}, ErrSalaryNotFound
	}
	report, _, err := s.calculate(ctx, scope.OwnerID, employeeID, period)
	return report, err
}

func (s *Service) calculate(ctx context.Context, ownerID, employeeID, period string) (Report, EmployeeSalary, error) {
	from, to, err := PeriodBounds(period)
	if err != nil {
		return Report{}, EmployeeSalary{}, err
	}
	salary, err := s.store.SalaryForEmployee(ctx, ownerID, employeeID)
	if err != nil {
		return Report{}, EmployeeSalary{}, err
	}
	if salary.Status != StatusActive {
		return Report{}, EmployeeSalary{}, ErrSalaryInactive
	}
	records, err := s.store.MonthAttendance(ctx, ownerID, employeeID, from, to)
	if err != nil {
		return Report{}, EmployeeSalary{}, err
	}
	values, err := s.settings.Resolve(ctx, ownerID)
	if err != nil {
		return Report{}, EmployeeSalary{}, fmt.Errorf("resolve settings: %w", err)
	}
	summary := Summarize(records, workingDays(values), salary.OvertimeRate)
	report, err := Calculate(salary.BasicSalary, salary.Components, summary)
	return report, salary, err
}

func workingDays(values map[string]string) int {
	if n, err := strconv.Atoi(values[settings.KeyWorkingDaysPerMonth]); err == nil && n > 0 {
		return n
	}
	return DefaultWorkingDays
}

// GeneratePayslip calculates, stores and renders one employee's payslip for
// a month. Regenerating replaces the previous payslip of that month.
func (s *Service) GeneratePayslip(ctx context.Context, ownerID, employeeID, period string) (Payslip, error) {
	report, salary, err := s.calculate(ctx, ownerID, employeeID, period)
	if err != nil {
		return Payslip{}, err
	}
	breakdown, err := json.Marshal(report)
	if err != nil {
		return Payslip{}, err
	}
	slip := Payslip{
		EmployeeID:      employeeID,
		EmployeeName:    salary.EmployeeName,
		Period:          period,
		Basic:           report.Basic,
		Earnings:        report.Earnings,
		Deductions:      report.Deductions,
		UnpaidDeduction: report.UnpaidDeduction,
		Overtime:        report.Overtime,
		Net:             report.Net,
		Report:          report,
	}
	id, err := s.store.UpsertPayslip(ctx, ownerID, slip, breakdown)
	if err != nil {
		return Payslip{}, fmt.Errorf("store payslip: %w", err)
	}
	slip.ID = id

	key, err := s.renderAndStore(ctx, ownerID, employeeID, slip)
	if err != nil {
		slog.Warn("payslip document failed", "payslipId", id, "err", err)
		return slip, nil
	}
	if err := s.store.SetPayslipFile(ctx, id, key); err != nil {
		return Payslip{}, err
	}
	slip.FileKey = key
	slip.HasFile = true
	return slip, nil
}

func (s *Service) renderAndStore(ctx context.Context, ownerID, employeeID string, slip Payslip) (string, error) {
	if s.files == nil {
		return "", errors.New("no document storage configured")
	}
	employee, err := s.store.Employee(ctx, ownerID, employeeID)
	if err != nil {
		return "", err
	}
	values, err := s.settings.Resolve(ctx, ownerID)
	if err != nil {
		return "", err
	}
	company := values[settings.KeyCompanyName]
	if company == "" {
		company = "Payslip"
	}
	data, err := RenderPayslipPDF(PayslipDocument{
		CompanyName: company,
		Employee:    employee,
		Period:      slip.Period,
		Report:      slip.Report,
	}, settings.NewFormatter(values))
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("payslips/%s/%s/%s.pdf", ownerID, employeeID, slip.Period)
	if _, err := s.files.Put(ctx, key, "application/pdf", data); err != nil {
		return "", err
	}
	return key, nil
}

type GenerationResult struct {
	Generated []Payslip         `json:"generated"`
	Failed    map[string]string `json:"failed"`
}

// GeneratePayslips runs GeneratePayslip for the given employees, or for every
// employee with an active salary when none are given.
func (s *Service) GeneratePayslips(ctx context.Context, ownerID, period string, employeeIDs []string) (GenerationResult, error) {
	if _, _, err := PeriodBounds(period); err != nil {
		return GenerationResult{}, err
	}
	if len(employeeIDs) == 0 {
		ids, err := s.store.ActiveSalaryEmployees(ctx, ownerID)
		if err != nil {
			return GenerationResult{}, err
		}
		employeeIDs = ids
	}
	result := GenerationResult{Generated: []Payslip{}, Failed: map[string]string{}}
	for _, employeeID := range uniq(employeeIDs) {
		slip, err := s.GeneratePayslip(ctx, ownerID, employeeID, period)
		if err != nil {
			result.Failed[employeeID] = err.Error()
			continue
		}
		result.Generated = append(result.Generated, slip)
	}
	return result, nil
}

func (s *Service) ListPayslips(ctx context.Context, scope tenancy.Scope, q listing.Query) (listing.Page[Payslip], error) {
	items, total, err := s.store.ListPayslips(ctx, scope, q)
	if err != nil {
		return listing.Page[Payslip]{}, err
	}
	return listing.Page[Payslip]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetPayslip(ctx context.Context, scope tenancy.Scope, id string) (Payslip, error) {
	slip, err := s.store.GetPayslip(ctx, scope.OwnerID, id)
	if err != nil {
		return Payslip{}, err
	}
	if !scope.CanSee(slip.EmployeeID) {
		return Payslip{}, ErrPayslipNotFound
	}
	return slip, nil
}

// PayslipFile returns the stored PDF and a download file name.
func (s *Service) PayslipFile(ctx context.Context, scope tenancy.Scope, id string) ([]byte, string, error) {
	slip, err := s.GetPayslip(ctx, scope, id)
	if err != nil {
		return nil, "", err
	}
	if slip.FileKey == "" || s.files == nil {
		return nil, "", ErrPayslipFileMissing
	}
	data, err := s.files.Get(ctx, slip.FileKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrPayslipFileMissing
	}
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("payslip-%s.pdf", slip.Period), nil
}

// ZeroIfNil is used when decoding optional amounts.
func ZeroIfNil(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
