package payrollhandler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/domain/payroll"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Audit   audit.Recorder
	Notify  shared.Notifier
}

func NewHandler(service *payroll.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type componentRequest struct {
	Name            string          `json:"name" validate:"required,max=255"`
	Type            string          `json:"type" validate:"required,oneof=earning deduction"`
	CalculationType string          `json:"calculationType" validate:"required,oneof=fixed percentage"`
	DefaultValue    decimal.Decimal `json:"defaultValue"`
	Description     string          `json:"description" validate:"max=1000"`
	Status          string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

type attachedComponentRequest struct {
	ComponentID string           `json:"componentId" validate:"required"`
	Value       *decimal.Decimal `json:"value"`
}

type salaryRequest struct {
	EmployeeID   string                     `json:"employeeId" validate:"required"`
	BasicSalary  decimal.Decimal            `json:"basicSalary"`
	OvertimeRate decimal.Decimal            `json:"overtimeRate"`
	Status       string                     `json:"status" validate:"omitempty,oneof=active inactive"`
	Notes        string                     `json:"notes" validate:"max=1000"`
	Components   []attachedComponentRequest `json:"components" validate:"dive"`
}

func (p salaryRequest) input() payroll.SalaryInput {
	in := payroll.SalaryInput{
		EmployeeID:   p.EmployeeID,
		BasicSalary:  p.BasicSalary,
		OvertimeRate: p.OvertimeRate,
		Status:       p.Status,
		Notes:        p.Notes,
	}
	for _, c := range p.Components {
		in.Components = append(in.Components, payroll.ComponentInput{ComponentID: c.ComponentID, Value: c.Value})
	}
	return in
}

type attendanceRequest struct {
	EmployeeID    string          `json:"employeeId" validate:"required"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
	Status        string          `json:"status" validate:"required,oneof=present absent half_day leave unpaid_leave holiday"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
}

type generateRequest struct {
	Period      string   `json:"period" validate:"required,datetime=2006-01"`
	EmployeeIDs []string `json:"employeeIds"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapSalaryView)).Get("/components", h.handleListComponents)
		r.With(middleware.RequireCapability(auth.CapSalaryCreate)).Post("/components", h.handleCreateComponent)
		r.With(middleware.RequireCapability(auth.CapSalaryView)).Get("/components/{componentID}", h.handleGetComponent)
		r.With(middleware.RequireCapability(auth.CapSalaryEdit)).Put("/components/{componentID}", h.handleUpdateComponent)
		r.With(middleware.RequireCapability(auth.CapSalaryDelete)).Delete("/components/{componentID}", h.handleDeleteComponent)

		r.With(middleware.RequireCapability(auth.CapSalaryView)).Get("/salaries", h.handleListSalaries)
		r.With(middleware.RequireCapability(auth.CapSalaryCreate)).Post("/salaries", h.handleCreateSalary)
		r.With(middleware.RequireCapability(auth.CapSalaryView)).Get("/salaries/{salaryID}", h.handleGetSalary)
		r.With(middleware.RequireCapability(auth.CapSalaryEdit)).Put("/salaries/{salaryID}", h.handleUpdateSalary)
		r.With(middleware.RequireCapability(auth.CapSalaryDelete)).Delete("/salaries/{salaryID}", h.handleDeleteSalary)

		r.With(middleware.RequireCapability(auth.CapAttendanceView)).Get("/attendance", h.handleListAttendance)
		r.With(middleware.RequireCapability(auth.CapAttendanceEdit)).Post("/attendance", h.handleRecordAttendance)
		r.With(middleware.RequireCapability(auth.CapAttendanceEdit)).Delete("/attendance/{recordID}", h.handleDeleteAttendance)

		r.With(middleware.RequireCapability(auth.CapPayslipView)).Get("/preview", h.handlePreview)
		r.With(middleware.RequireCapability(auth.CapPayslipView)).Get("/payslips", h.handleListPayslips)
		r.With(middleware.RequireCapability(auth.CapPayslipGenerate)).Post("/payslips/generate", h.handleGeneratePayslips)
		r.With(middleware.RequireCapability(auth.CapPayslipView)).Get("/payslips/{payslipID}", h.handleGetPayslip)
		r.With(middleware.RequireCapability(auth.CapPayslipView)).Get("/payslips/{payslipID}/download", h.handleDownloadPayslip)
	})
}

func (h *Handler) handleListComponents(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "type")
	page, err := h.Service.ListComponents(r.Context(), user.OwnerID, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "salary", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	c, err := h.Service.GetComponent(r.Context(), user.OwnerID, chi.URLParam(r, "componentID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, c, shared.RequestID(r))
}

func decodeComponent(w http.ResponseWriter, r *http.Request, id string) (payroll.SalaryComponent, bool) {
	reqID := shared.RequestID(r)
	var payload componentRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return payroll.SalaryComponent{}, false
	}
	if payload.DefaultValue.IsNegative() {
		fields.Add("defaultValue", "Must be greater than or equal to 0")
	}
	if fields.Reject(w, reqID) {
		return payroll.SalaryComponent{}, false
	}
	return payroll.SalaryComponent{
		ID: id, Name: strings.TrimSpace(payload.Name), Type: payload.Type,
		CalculationType: payload.CalculationType, DefaultValue: payload.DefaultValue,
		Description: payload.Description, Status: payload.Status,
	}, true
}

func (h *Handler) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeComponent(w, r, "")
	if !ok {
		return
	}
	c, err := h.Service.CreateComponent(r.Context(), user.OwnerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "salary_component", c.ID, nil, c)
	api.Created(w, c, "Salary component created successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdateComponent(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "componentID")
	in, ok := decodeComponent(w, r, id)
	if !ok {
		return
	}
	before, err := h.Service.GetComponent(r.Context(), user.OwnerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Service.UpdateComponent(r.Context(), user.OwnerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "salary_component", id, before, c)
	api.Updated(w, c, "Salary component updated successfully.", shared.RequestID(r))
}

func (h *Handler) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "componentID")
	if err := h.Service.DeleteComponent(r.Context(), user.OwnerID, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "salary_component", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Salary component deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handleListSalaries(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "employee_id")
	page, err := h.Service.ListSalaries(r.Context(), scope, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "salary", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetSalary(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	salary, err := h.Service.GetSalary(r.Context(), scope, chi.URLParam(r, "salaryID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, salary, shared.RequestID(r))
}

func decodeSalary(w http.ResponseWriter, r *http.Request) (payroll.SalaryInput, bool) {
	reqID := shared.RequestID(r)
	var payload salaryRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return payroll.SalaryInput{}, false
	}
	if !payload.BasicSalary.IsPositive() {
		fields.Add("basicSalary", "Must be greater than 0")
	}
	if payload.OvertimeRate.IsNegative() {
		fields.Add("overtimeRate", "Must be greater than or equal to 0")
	}
	if fields.Reject(w, reqID) {
		return payroll.SalaryInput{}, false
	}
	return payload.input(), true
}

func (h *Handler) handleCreateSalary(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeSalary(w, r)
	if !ok {
		return
	}
	salary, err := h.Service.CreateSalary(r.Context(), user.OwnerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "employee_salary", salary.ID, nil, salary)
	api.Created(w, salary, "Employee salary created successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdateSalary(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "salaryID")
	in, ok := decodeSalary(w, r)
	if !ok {
		return
	}
	before, err := h.Service.GetSalary(r.Context(), scope, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	salary, err := h.Service.UpdateSalary(r.Context(), user.OwnerID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "employee_salary", id, before, salary)
	api.Updated(w, salary, "Employee salary updated successfully.", shared.RequestID(r))
}

func (h *Handler) handleDeleteSalary(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "salaryID")
	if err := h.Service.DeleteSalary(r.Context(), user.OwnerID, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "employee_salary", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Employee salary deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "employee_id")
	page, err := h.Service.ListAttendance(r.Context(), scope, q, strings.TrimSpace(r.URL.Query().Get("period")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "attendance", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload attendanceRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return
	}
	if payload.OvertimeHours.IsNegative() {
		fields.Add("overtimeHours", "Must be greater than or equal to 0")
	}
	if fields.Reject(w, reqID) {
		return
	}
	date, _ := shared.ParseDate(payload.Date)
	record, err := h.Service.RecordAttendance(r.Context(), user.OwnerID, payroll.AttendanceRecord{
		EmployeeID: payload.EmployeeID, Date: date, Status: payload.Status, OvertimeHours: payload.OvertimeHours,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "attendance", record.ID, nil, record)
	api.Updated(w, record, "Attendance saved successfully.", reqID)
}

func (h *Handler) handleDeleteAttendance(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "recordID")
	if err := h.Service.DeleteAttendance(r.Context(), user.OwnerID, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "attendance", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Attendance record deleted.", shared.RequestID(r))
}

// handlePreview calculates a month without storing a payslip. Employees
// preview their own salary.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	employeeID := scope.EmployeeFilter(strings.TrimSpace(query.Get("employeeId")))
	fields := shared.Fields{}
	fields.Required("employeeId", employeeID)
	fields.Required("period", query.Get("period"))
	if fields.Reject(w, shared.RequestID(r)) {
		return
	}
	report, err := h.Service.Preview(r.Context(), scope, employeeID, query.Get("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, report, shared.RequestID(r))
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "employee_id", "period")
	page, err := h.Service.ListPayslips(r.Context(), scope, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "payslip", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetPayslip(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	slip, err := h.Service.GetPayslip(r.Context(), scope, chi.URLParam(r, "payslipID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, slip, shared.RequestID(r))
}

func (h *Handler) handleGeneratePayslips(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload generateRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	result, err := h.Service.GeneratePayslips(r.Context(), user.OwnerID, payload.Period, payload.EmployeeIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, slip := range result.Generated {
		shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "payslip", slip.ID, nil, map[string]any{
			"employeeId": slip.EmployeeID, "period": slip.Period, "net": slip.Net,
		})
		shared.Notify(r.Context(), h.Notify, user.OwnerID, slip.EmployeeID, notifications.TypePayslipPublished,
			"Your payslip for "+slip.Period+" is ready", "")
	}
	message := strconv.Itoa(len(result.Generated)) + " payslip(s) generated."
	if len(result.Failed) > 0 {
		message += " " + strconv.Itoa(len(result.Failed)) + " failed."
	}
	api.Updated(w, result, message, reqID)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	data, name, err := h.Service.PayslipFile(r.Context(), scope, chi.URLParam(r, "payslipID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payroll.ErrComponentNotFound), errors.Is(err, payroll.ErrSalaryNotFound),
		errors.Is(err, payroll.ErrPayslipNotFound), errors.Is(err, payroll.ErrPayslipFileMissing):
		shared.NotFound(w, r, err)
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"employeeId": err.Error()})
	case errors.Is(err, payroll.ErrInvalidPeriod):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"period": err.Error()})
	case errors.Is(err, payroll.ErrSalaryExists):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"employeeId": err.Error()})
	case errors.Is(err, payroll.ErrInvalidComponent), errors.Is(err, payroll.ErrInvalidAttendance),
		errors.Is(err, payroll.ErrInvalidWorkingDays), errors.Is(err, payroll.ErrSalaryInactive):
		shared.Invalid(w, r, err)
	default:
		shared.Internal(w, r, err)
	}
}
