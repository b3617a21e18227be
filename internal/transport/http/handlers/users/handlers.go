package usershandler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/billing"
	"hrsaas/internal/domain/users"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

// PlanAssigner switches a company to a plan outside checkout.
type PlanAssigner interface {
	AssignPlan(ctx context.Context, companyID, planID string, expiresAt time.Time) error
}

type Handler struct {
	Service *users.Service
	Plans   PlanAssigner
	Audit   audit.Recorder
}

func NewHandler(service *users.Service, plans PlanAssigner, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Plans: plans, Audit: recorder}
}

type companyRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
	PlanID   string `json:"planId"`
}

type staffRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Type     string `json:"type" validate:"omitempty,oneof=hr employee"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type assignPlanRequest struct {
	PlanID    string `json:"planId" validate:"required"`
	ExpiresAt string `json:"expiresAt"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapCompanyView)).Get("/", h.handleListCompanies)
		r.With(middleware.RequireCapability(auth.CapCompanyCreate)).Post("/", h.handleCreateCompany)
		r.With(middleware.RequireCapability(auth.CapCompanyView)).Get("/{companyID}", h.handleGetCompany)
		r.With(middleware.RequireCapability(auth.CapCompanyEdit)).Put("/{companyID}", h.handleUpdateCompany)
		r.With(middleware.RequireCapability(auth.CapCompanyEdit)).Patch("/{companyID}/toggle", h.handleToggleCompany)
		r.With(middleware.RequireCapability(auth.CapCompanyEdit)).Put("/{companyID}/plan", h.handleAssignPlan)
		r.With(middleware.RequireCapability(auth.CapCompanyDelete)).Delete("/{companyID}", h.handleDeleteCompany)
	})
	r.Route("/staff", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapStaffView)).Get("/", h.handleListStaff)
		r.With(middleware.RequireCapability(auth.CapStaffCreate)).Post("/", h.handleCreateStaff)
		r.With(middleware.RequireCapability(auth.CapStaffView)).Get("/{staffID}", h.handleGetStaff)
		r.With(middleware.RequireCapability(auth.CapStaffEdit)).Put("/{staffID}", h.handleUpdateStaff)
		r.With(middleware.RequireCapability(auth.CapStaffEdit)).Patch("/{staffID}/toggle", h.handleToggleStaff)
		r.With(middleware.RequireCapability(auth.CapStaffDelete)).Delete("/{staffID}", h.handleDeleteStaff)
	})
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "plan_id")
	page, err := h.Service.ListCompanies(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "company", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.Service.GetCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, company, shared.RequestID(r))
}

func (h *Handler) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload companyRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return
	}
	fields.Required("password", payload.Password)
	if fields.Reject(w, reqID) {
		return
	}
	company, err := h.Service.CreateCompany(r.Context(), user.UserID, users.Account{
		Name: payload.Name, Email: payload.Email, Password: payload.Password,
		Status: payload.Status, PlanID: payload.PlanID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "company", company.ID, nil, company)
	api.Created(w, company, "Company created successfully.", reqID)
}

func (h *Handler) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload companyRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	id := chi.URLParam(r, "companyID")
	before, err := h.Service.GetCompany(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	company, err := h.Service.UpdateCompany(r.Context(), users.Account{
		ID: id, Name: payload.Name, Email: payload.Email, Password: payload.Password, Status: payload.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "company", id, before, company)
	api.Updated(w, company, "Company updated successfully.", reqID)
}

func (h *Handler) handleToggleCompany(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	company, err := h.Service.ToggleCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionStatus, "company", company.ID, nil, map[string]string{"status": company.Status})
	api.Updated(w, company, "Company status updated.", shared.RequestID(r))
}

func (h *Handler) handleAssignPlan(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload assignPlanRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return
	}
	var expiresAt time.Time
	if payload.ExpiresAt != "" {
		parsed, err := shared.ParseDate(payload.ExpiresAt)
		if err != nil {
			fields.Add("expiresAt", "Must be a date in 2006-01-02 format")
		}
		expiresAt = parsed
	}
	if fields.Reject(w, reqID) {
		return
	}
	id := chi.URLParam(r, "companyID")
	if err := h.Plans.AssignPlan(r.Context(), id, payload.PlanID, expiresAt); err != nil {
		writeError(w, r, err)
		return
	}
	company, err := h.Service.GetCompany(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "company_plan", id, nil, map[string]any{"planId": payload.PlanID, "expiresAt": payload.ExpiresAt})
	api.Updated(w, company, "Plan assigned successfully.", reqID)
}

func (h *Handler) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "companyID")
	if err := h.Service.DeleteCompany(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "company", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Company deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "type")
	page, err := h.Service.ListStaff(r.Context(), user.OwnerID, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "staff", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	staff, err := h.Service.GetStaff(r.Context(), user.OwnerID, chi.URLParam(r, "staffID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, staff, shared.RequestID(r))
}

func (h *Handler) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload staffRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return
	}
	fields.Required("password", payload.Password)
	fields.Required("type", payload.Type)
	if fields.Reject(w, reqID) {
		return
	}
	staff, err := h.Service.CreateStaff(r.Context(), user.OwnerID, users.Account{
		Name: payload.Name, Email: payload.Email, Password: payload.Password,
		Type: payload.Type, Status: payload.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "staff", staff.ID, nil, staff)
	api.Created(w, staff, "Staff member created successfully.", reqID)
}

func (h *Handler) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload staffRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	id := chi.URLParam(r, "staffID")
	before, err := h.Service.GetStaff(r.Context(), user.OwnerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	staff, err := h.Service.UpdateStaff(r.Context(), user.OwnerID, users.Account{
		ID: id, Name: payload.Name, Email: payload.Email, Password: payload.Password,
		Type: payload.Type, Status: payload.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "staff", id, before, staff)
	api.Updated(w, staff, "Staff member updated successfully.", reqID)
}

func (h *Handler) handleToggleStaff(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	staff, err := h.Service.ToggleStaff(r.Context(), user.OwnerID, chi.URLParam(r, "staffID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionStatus, "staff", staff.ID, nil, map[string]string{"status": staff.Status})
	api.Updated(w, staff, "Staff status updated.", shared.RequestID(r))
}

func (h *Handler) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "staffID")
	if id == user.UserID {
		api.Fail(w, http.StatusConflict, "conflict", "you cannot delete your own account", shared.RequestID(r))
		return
	}
	if err := h.Service.DeleteStaff(r.Context(), user.OwnerID, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "staff", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Staff member deleted successfully.", shared.RequestID(r))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, users.ErrCompanyNotFound), errors.Is(err, users.ErrStaffNotFound),
		errors.Is(err, billing.ErrCompanyNotFound):
		shared.NotFound(w, r, err)
	case errors.Is(err, users.ErrPlanNotFound), errors.Is(err, billing.ErrPlanNotFound):
		shared.Invalid(w, r, err)
	case errors.Is(err, users.ErrEmailTaken):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"email": err.Error()})
	case errors.Is(err, auth.ErrWeakPassword):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"password": err.Error()})
	case errors.Is(err, users.ErrInvalidUser):
		shared.Invalid(w, r, err)
	case errors.Is(err, users.ErrEmployeeLimit), errors.Is(err, users.ErrUserLimit):
		api.Fail(w, http.StatusForbidden, "plan_limit", err.Error()+". Upgrade your plan to add more.", shared.RequestID(r))
	default:
		shared.Internal(w, r, err)
	}
}
