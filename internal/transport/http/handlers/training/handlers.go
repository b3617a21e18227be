package traininghandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/domain/training"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

type Handler struct {
	Service *training.Service
	Audit   audit.Recorder
	Notify  shared.Notifier
}

func NewHandler(service *training.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type sessionRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Trainer     string `json:"trainer" validate:"max=255"`
	Location    string `json:"location" validate:"max=255"`
	Description string `json:"description" validate:"max=5000"`
	StartAt     string `json:"startAt" validate:"required"`
	EndAt       string `json:"endAt" validate:"required"`
	Capacity    *int   `json:"capacity" validate:"omitempty,min=1"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
}

type enrollRequest struct {
	EmployeeIDs []string `json:"employeeIds" validate:"required,min=1,dive,required"`
}

type markRequest struct {
	EmployeeID string           `json:"employeeId" validate:"required"`
	Status     string           `json:"status" validate:"required,oneof=present absent"`
	Score      *decimal.Decimal `json:"score"`
	Feedback   string           `json:"feedback" validate:"max=2000"`
}

type attendanceRequest struct {
	Attendance []markRequest `json:"attendance" validate:"required,min=1,dive"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/training/sessions", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapTrainingView)).Get("/", h.handleList)
		r.With(middleware.RequireCapability(auth.CapTrainingCreate)).Post("/", h.handleCreate)
		r.With(middleware.RequireCapability(auth.CapTrainingView)).Get("/{sessionID}", h.handleGet)
		r.With(middleware.RequireCapability(auth.CapTrainingEdit)).Put("/{sessionID}", h.handleUpdate)
		r.With(middleware.RequireCapability(auth.CapTrainingStatus)).Patch("/{sessionID}/status", h.handleStatus)
		r.With(middleware.RequireCapability(auth.CapTrainingDelete)).Delete("/{sessionID}", h.handleDelete)

		r.With(middleware.RequireCapability(auth.CapTrainingEdit)).Post("/{sessionID}/enrollments", h.handleEnroll)
		r.With(middleware.RequireCapability(auth.CapTrainingEdit)).Delete("/{sessionID}/enrollments/{employeeID}", h.handleUnenroll)
		r.With(middleware.RequireCapability(auth.CapTrainingView)).Get("/{sessionID}/attendance", h.handleAttendance)
		r.With(middleware.RequireCapability(auth.CapTrainingAttendance)).Put("/{sessionID}/attendance", h.handleMarkAttendance)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	page, err := h.Service.List(r.Context(), scope, shared.ParseList(r, "employee_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "training", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	sess, err := h.Service.Get(r.Context(), user.OwnerID, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, sess, shared.RequestID(r))
}

func parseMoment(fields shared.Fields, name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := shared.ParseDate(value)
	if err != nil {
		fields.Add(name, "Must be an RFC3339 timestamp or a 2006-01-02 date")
	}
	return parsed
}

func decodeSession(w http.ResponseWriter, r *http.Request) (training.Session, bool) {
	reqID := shared.RequestID(r)
	var payload sessionRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return training.Session{}, false
	}
	start := parseMoment(fields, "startAt", payload.StartAt)
	end := parseMoment(fields, "endAt", payload.EndAt)
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		fields.Add("endAt", "Must be after the start")
	}
	if fields.Reject(w, reqID) {
		return training.Session{}, false
	}
	return training.Session{
		Title:       payload.Title,
		Trainer:     payload.Trainer,
		Location:    payload.Location,
		Description: payload.Description,
		StartAt:     start,
		EndAt:       end,
		Capacity:    payload.Capacity,
	}, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeSession(w, r)
	if !ok {
		return
	}
	sess, err := h.Service.Create(r.Context(), user.OwnerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "training_session", sess.ID, nil, sess)
	api.Created(w, sess, "Training session created successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeSession(w, r)
	if !ok {
		return
	}
	before, err := h.Service.Get(r.Context(), user.OwnerID, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = before.ID
	sess, err := h.Service.Update(r.Context(), user.OwnerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "training_session", sess.ID, before, sess)
	api.Updated(w, sess, "Training session updated successfully.", shared.RequestID(r))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload statusRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	sess, err := h.Service.SetStatus(r.Context(), user.OwnerID, chi.URLParam(r, "sessionID"), payload.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionStatus, "training_session", sess.ID, nil, map[string]string{"status": sess.Status})
	api.Updated(w, sess, "Training session status updated.", reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "sessionID")
	if err := h.Service.Delete(r.Context(), user.OwnerID, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "training_session", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Training session deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload enrollRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	id := chi.URLParam(r, "sessionID")
	roster, err := h.Service.Enroll(r.Context(), user.OwnerID, id, payload.EmployeeIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "training_enrollment", id, nil, map[string]any{"employeeIds": payload.EmployeeIDs})
	enrolled := make(map[string]bool, len(payload.EmployeeIDs))
	for _, employeeID := range payload.EmployeeIDs {
		enrolled[employeeID] = true
	}
	for _, row := range roster {
		if enrolled[row.EmployeeID] {
			delete(enrolled, row.EmployeeID)
			shared.Notify(r.Context(), h.Notify, user.OwnerID, row.EmployeeID, notifications.TypeTrainingEnrolled,
				"You have been enrolled in a training session", "")
		}
	}
	api.Updated(w, roster, "Employees enrolled successfully.", reqID)
}

func (h *Handler) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "sessionID")
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.Unenroll(r.Context(), user.OwnerID, id, employeeID); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "training_enrollment", id, map[string]string{"employeeId": employeeID}, nil)
	api.Updated(w, map[string]string{"sessionId": id, "employeeId": employeeID}, "Employee removed from the session.", shared.RequestID(r))
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	roster, err := h.Service.Attendance(r.Context(), scope, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, roster, shared.RequestID(r))
}

func (h *Handler) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload attendanceRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	marks := make([]training.Mark, 0, len(payload.Attendance))
	for _, m := range payload.Attendance {
		marks = append(marks, training.Mark{EmployeeID: m.EmployeeID, Status: m.Status, Score: m.Score, Feedback: m.Feedback})
	}
	id := chi.URLParam(r, "sessionID")
	roster, err := h.Service.MarkAttendance(r.Context(), user.OwnerID, id, marks)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "training_attendance", id, nil, roster)
	api.Updated(w, roster, "Attendance saved.", reqID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, training.ErrNotFound):
		shared.NotFound(w, r, err)
	case errors.Is(err, training.ErrEmployeeNotFound):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"employeeIds": err.Error()})
	case errors.Is(err, training.ErrCapacityReached), errors.Is(err, training.ErrSessionNotEditable):
		shared.Conflict(w, r, err)
	case errors.Is(err, training.ErrInvalidSession), errors.Is(err, training.ErrInvalidStatus),
		errors.Is(err, training.ErrInvalidAttendance), errors.Is(err, training.ErrNotEnrolled):
		shared.Invalid(w, r, err)
	default:
		shared.Internal(w, r, err)
	}
}
