package payrollhandler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/domain/payroll"
	"hrsaas/internal/domain/settings"
	"hrsaas/internal/platform/storage"
	"hrsaas/internal/transport/http/handlers/handlertest"
)

type fakeStore struct {
	payroll.StoreAPI
	salary     payroll.EmployeeSalary
	attendance []payroll.AttendanceRecord
	payslips   map[string]payroll.Payslip
}

func (f *fakeStore) Employee(_ context.Context, ownerID, employeeID string) (payroll.Employee, error) {
	if ownerID != "c1" || employeeID != "e1" {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	return payroll.Employee{ID: "e1", Name: "Ada"}, nil
}

func (f *fakeStore) SalaryForEmployee(_ context.Context, ownerID, employeeID string) (payroll.EmployeeSalary, error) {
	if ownerID != "c1" || employeeID != f.salary.EmployeeID {
		return payroll.EmployeeSalary{}, payroll.ErrSalaryNotFound
	}
	return f.salary, nil
}

func (f *fakeStore) ActiveSalaryEmployees(context.Context, string) ([]string, error) {
	return []string{f.salary.EmployeeID}, nil
}

func (f *fakeStore) MonthAttendance(_ context.Context, _, _ string, from, to time.Time) ([]payroll.AttendanceRecord, error) {
	var out []payroll.AttendanceRecord
	for _, r := range f.attendance {
		if !r.Date.Before(from) && r.Date.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertPayslip(_ context.Context, _ string, p payroll.Payslip, _ []byte) (string, error) {
	p.ID = "slip-" + p.EmployeeID + "-" + p.Period
	f.payslips[p.ID] = p
	return p.ID, nil
}

func (f *fakeStore) SetPayslipFile(_ context.Context, id, key string) error {
	p := f.payslips[id]
	p.FileKey = key
	p.HasFile = true
	f.payslips[id] = p
	return nil
}

func (f *fakeStore) GetPayslip(_ context.Context, _, id string) (payroll.Payslip, error) {
	p, ok := f.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, nil
}

type staticSettings map[string]string

func (s staticSettings) Resolve(context.Context, string) (map[string]string, error) { return s, nil }

type memStorage map[string][]byte

func (m memStorage) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m[key] = data
	return "mem://" + key, nil
}

func (m memStorage) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func newHandler() (*Handler, *fakeStore, *handlertest.Events) {
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }
	store := &fakeStore{
		salary: payroll.EmployeeSalary{
			ID: "s1", EmployeeID: "e1", EmployeeName: "Ada",
			BasicSalary: decimal.NewFromInt(3000), OvertimeRate: decimal.NewFromInt(25), Status: payroll.StatusActive,
		},
		attendance: []payroll.AttendanceRecord{
			{Date: day(2), Status: payroll.AttendanceAbsent},
			{Date: day(3), Status: payroll.AttendanceAbsent},
			{Date: day(6), Status: payroll.AttendanceHalfDay},
			{Date: day(7), Status: payroll.AttendancePresent, OvertimeHours: decimal.NewFromInt(2)},
		},
		payslips: map[string]payroll.Payslip{},
	}
	values := staticSettings{settings.KeyWorkingDaysPerMonth: "30", settings.KeyCompanyName: "Acme"}
	events := &handlertest.Events{}
	return NewHandler(payroll.NewService(store, values, memStorage{}), events), store, events
}

func TestGenerateAndDownloadPayslip(t *testing.T) {
	h, store, events := newHandler()
	inbox := &handlertest.Inbox{}
	h.Notify = inbox
	router := handlertest.Router(handlertest.Company("c1"), h.RegisterRoutes)

	rec, env := handlertest.Do(t, router, http.MethodPost, "/payroll/payslips/generate", map[string]any{"period": "2024-05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result payroll.GenerationResult
	handlertest.Data(t, env, &result)
	require.Len(t, result.Generated, 1)
	assert.True(t, result.Generated[0].Net.Equal(decimal.NewFromInt(2800)), result.Generated[0].Net.String())
	assert.Equal(t, "1 payslip(s) generated.", env.Flash.Success)
	assert.Equal(t, []string{"payslip.create"}, events.Actions)
	require.Contains(t, store.payslips, "slip-e1-2024-05")
	assert.Equal(t, []handlertest.Sent{{
		OwnerID: "c1", UserID: "e1", Type: notifications.TypePayslipPublished, Title: "Your payslip for 2024-05 is ready",
	}}, inbox.Sent)

	employee := handlertest.Router(handlertest.Employee("e1", "c1"), h.RegisterRoutes)
	rec, _ = handlertest.Do(t, employee, http.MethodGet, "/payroll/payslips/slip-e1-2024-05/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-2024-05.pdf")
	assert.True(t, len(rec.Body.Bytes()) > 4 && string(rec.Body.Bytes()[:4]) == "%PDF")

	other := handlertest.Router(handlertest.Employee("e2", "c1"), h.RegisterRoutes)
	rec, _ = handlertest.Do(t, other, http.MethodGet, "/payroll/payslips/slip-e1-2024-05/download", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateRejectsBadPeriod(t *testing.T) {
	h, _, _ := newHandler()
	router := handlertest.Router(handlertest.Company("c1"), h.RegisterRoutes)
	rec, env := handlertest.Do(t, router, http.MethodPost, "/payroll/payslips/generate", map[string]any{"period": "May 2024"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "period")

	employee := handlertest.Router(handlertest.Employee("e1", "c1"), h.RegisterRoutes)
	rec, _ = handlertest.Do(t, employee, http.MethodPost, "/payroll/payslips/generate", map[string]any{"period": "2024-05"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPreviewIsPinnedForEmployees(t *testing.T) {
	h, _, _ := newHandler()

	own := handlertest.Router(handlertest.Employee("e1", "c1"), h.RegisterRoutes)
	rec, env := handlertest.Do(t, own, http.MethodGet, "/payroll/preview?period=2024-05&employeeId=someone-else", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report payroll.Report
	handlertest.Data(t, env, &report)
	assert.True(t, report.PerDay.Equal(decimal.NewFromInt(100)), report.PerDay.String())
	assert.True(t, report.Net.Equal(decimal.NewFromInt(2800)), report.Net.String())

	other := handlertest.Router(handlertest.Employee("e2", "c1"), h.RegisterRoutes)
	rec, _ = handlertest.Do(t, other, http.MethodGet, "/payroll/preview?period=2024-05&employeeId=e1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSalaryValidation(t *testing.T) {
	h, _, _ := newHandler()
	router := handlertest.Router(handlertest.Company("c1"), h.RegisterRoutes)
	rec, env := handlertest.Do(t, router, http.MethodPost, "/payroll/salaries", map[string]any{
		"employeeId": "e1", "basicSalary": "0", "overtimeRate": "-1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "basicSalary")
	assert.Contains(t, env.Error.Fields, "overtimeRate")
}
