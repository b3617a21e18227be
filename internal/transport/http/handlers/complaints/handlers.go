package complaintshandler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/complaints"
	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

type Handler struct {
	Service *complaints.Service
	Audit   audit.Recorder
	Notify  shared.Notifier
}

func NewHandler(service *complaints.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type complaintRequest struct {
	EmployeeID        string `json:"employeeId"`
	AgainstEmployeeID string `json:"againstEmployeeId"`
	Type              string `json:"complaintType" validate:"required,max=100"`
	Subject           string `json:"subject" validate:"required,max=255"`
	Description       string `json:"description" validate:"max=5000"`
	Date              string `json:"complaintDate" validate:"required"`
}

type statusRequest struct {
	Status     string `json:"status" validate:"required,oneof=submitted under_investigation resolved dismissed"`
	Resolution string `json:"resolution" validate:"max=5000"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/complaints", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapComplaintView)).Get("/", h.handleList)
		r.With(middleware.RequireCapability(auth.CapComplaintCreate)).Post("/", h.handleCreate)
		r.With(middleware.RequireCapability(auth.CapComplaintView)).Get("/{complaintID}", h.handleGet)
		r.With(middleware.RequireCapability(auth.CapComplaintEdit)).Put("/{complaintID}", h.handleUpdate)
		r.With(middleware.RequireCapability(auth.CapComplaintStatus)).Patch("/{complaintID}/status", h.handleStatus)
		r.With(middleware.RequireCapability(auth.CapComplaintDelete)).Delete("/{complaintID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	page, err := h.Service.List(r.Context(), scope, shared.ParseList(r, "employee_id", "complaint_type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "complaint", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	complaint, err := h.Service.Get(r.Context(), scope, chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, complaint, shared.RequestID(r))
}

func decodeComplaint(w http.ResponseWriter, r *http.Request) (complaints.Complaint, bool) {
	reqID := shared.RequestID(r)
	var payload complaintRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return complaints.Complaint{}, false
	}
	var date time.Time
	if payload.Date != "" {
		parsed, err := shared.ParseDate(payload.Date)
		if err != nil {
			fields.Add("complaintDate", "Must be a date in 2006-01-02 format")
		}
		date = parsed
	}
	if fields.Reject(w, reqID) {
		return complaints.Complaint{}, false
	}
	return complaints.Complaint{
		EmployeeID:        payload.EmployeeID,
		AgainstEmployeeID: payload.AgainstEmployeeID,
		Type:              payload.Type,
		Subject:           payload.Subject,
		Description:       payload.Description,
		Date:              date,
	}, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeComplaint(w, r)
	if !ok {
		return
	}
	if in.EmployeeID == "" && !scope.SelfOnly {
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"employeeId": "This field is required"})
		return
	}
	complaint, err := h.Service.Create(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "complaint", complaint.ID, nil, complaint)
	api.Created(w, complaint, "Complaint submitted successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeComplaint(w, r)
	if !ok {
		return
	}
	before, err := h.Service.Get(r.Context(), scope, chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = before.ID
	if in.EmployeeID == "" {
		in.EmployeeID = before.EmployeeID
	}
	complaint, err := h.Service.Update(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "complaint", complaint.ID, before, complaint)
	api.Updated(w, complaint, "Complaint updated successfully.", shared.RequestID(r))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload statusRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	complaint, err := h.Service.SetStatus(r.Context(), scope, chi.URLParam(r, "complaintID"), payload.Status, payload.Resolution)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionStatus, "complaint", complaint.ID, nil, map[string]string{
		"status": complaint.Status, "resolution": complaint.Resolution,
	})
	shared.Notify(r.Context(), h.Notify, user.OwnerID, complaint.EmployeeID, notifications.TypeComplaintStatus,
		fmt.Sprintf("Complaint %q is now %s", complaint.Subject, strings.ReplaceAll(complaint.Status, "_", " ")),
		complaint.Resolution)
	api.Updated(w, complaint, "Complaint status updated.", reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "complaintID")
	if err := h.Service.Delete(r.Context(), scope, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "complaint", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Complaint deleted successfully.", shared.RequestID(r))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, complaints.ErrNotFound):
		shared.NotFound(w, r, err)
	case errors.Is(err, complaints.ErrEmployeeNotFound):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"employeeId": err.Error()})
	case errors.Is(err, complaints.ErrInvalidComplaint), errors.Is(err, complaints.ErrInvalidStatus):
		shared.Invalid(w, r, err)
	default:
		shared.Internal(w, r, err)
	}
}
