package tripshandler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/domain/trips"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

type Handler struct {
	Service *trips.Service
	Audit   audit.Recorder
	Notify  shared.Notifier
}

func NewHandler(service *trips.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type tripRequest struct {
	EmployeeID    string          `json:"employeeId"`
	Purpose       string          `json:"purpose" validate:"required,max=255"`
	Destination   string          `json:"destination" validate:"required,max=255"`
	StartDate     string          `json:"startDate" validate:"required"`
	EndDate       string          `json:"endDate" validate:"required"`
	Description   string          `json:"description" validate:"max=5000"`
	AdvanceAmount decimal.Decimal `json:"advanceAmount"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=planned ongoing completed cancelled"`
}

type expenseRequest struct {
	Type           string          `json:"expenseType" validate:"required,max=100"`
	Date           string          `json:"expenseDate" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description" validate:"max=1000"`
	IsReimbursable *bool           `json:"isReimbursable"`
	Status         string          `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trips", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapTripView)).Get("/", h.handleList)
		r.With(middleware.RequireCapability(auth.CapTripCreate)).Post("/", h.handleCreate)
		r.With(middleware.RequireCapability(auth.CapTripView)).Get("/{tripID}", h.handleGet)
		r.With(middleware.RequireCapability(auth.CapTripEdit)).Put("/{tripID}", h.handleUpdate)
		r.With(middleware.RequireCapability(auth.CapTripStatus)).Patch("/{tripID}/status", h.handleStatus)
		r.With(middleware.RequireCapability(auth.CapTripDelete)).Delete("/{tripID}", h.handleDelete)

		r.With(middleware.RequireCapability(auth.CapTripView)).Get("/{tripID}/expenses", h.handleListExpenses)
		r.With(middleware.RequireCapability(auth.CapTripCreate)).Post("/{tripID}/expenses", h.handleAddExpense)
		r.With(middleware.RequireCapability(auth.CapTripEdit)).Put("/{tripID}/expenses/{expenseID}", h.handleUpdateExpense)
		r.With(middleware.RequireCapability(auth.CapTripEdit)).Delete("/{tripID}/expenses/{expenseID}", h.handleDeleteExpense)
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
	api.List(w, page.Items, shared.Meta(user, "trip", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	trip, err := h.Service.Get(r.Context(), scope, chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, trip, shared.RequestID(r))
}

func parseDay(fields shared.Fields, name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := shared.ParseDate(value)
	if err != nil {
		fields.Add(name, "Must be a date in 2006-01-02 format")
	}
	return parsed
}

func decodeTrip(w http.ResponseWriter, r *http.Request) (trips.Trip, bool) {
	reqID := shared.RequestID(r)
	var payload tripRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return trips.Trip{}, false
	}
	start := parseDay(fields, "startDate", payload.StartDate)
	end := parseDay(fields, "endDate", payload.EndDate)
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		fields.Add("endDate", "Must not be before the start date")
	}
	if payload.AdvanceAmount.IsNegative() {
		fields.Add("advanceAmount", "Must be greater than or equal to 0")
	}
	if fields.Reject(w, reqID) {
		return trips.Trip{}, false
	}
	return trips.Trip{
		EmployeeID:    payload.EmployeeID,
		Purpose:       payload.Purpose,
		Destination:   payload.Destination,
		StartDate:     start,
		EndDate:       end,
		Description:   payload.Description,
		AdvanceAmount: payload.AdvanceAmount,
	}, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeTrip(w, r)
	if !ok {
		return
	}
	if in.EmployeeID == "" && !scope.SelfOnly {
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"employeeId": "This field is required"})
		return
	}
	trip, err := h.Service.Create(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "trip", trip.ID, nil, trip)
	api.Created(w, trip, "Trip created successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeTrip(w, r)
	if !ok {
		return
	}
	before, err := h.Service.Get(r.Context(), scope, chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = before.ID
	if in.EmployeeID == "" {
		in.EmployeeID = before.EmployeeID
	}
	trip, err := h.Service.Update(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "trip", trip.ID, before, trip)
	api.Updated(w, trip, "Trip updated successfully.", shared.RequestID(r))
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
	trip, err := h.Service.SetStatus(r.Context(), scope, chi.URLParam(r, "tripID"), payload.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionStatus, "trip", trip.ID, nil, map[string]string{"status": trip.Status})
	shared.Notify(r.Context(), h.Notify, user.OwnerID, trip.EmployeeID, notifications.TypeTripStatus,
		fmt.Sprintf("Trip to %s is now %s", trip.Destination, trip.Status), trip.Purpose)
	api.Updated(w, trip, "Trip status updated.", reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "tripID")
	if err := h.Service.Delete(r.Context(), scope, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "trip", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Trip deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	expenses, err := h.Service.ListExpenses(r.Context(), scope, chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, expenses, shared.RequestID(r))
}

func decodeExpense(w http.ResponseWriter, r *http.Request) (trips.Expense, bool) {
	reqID := shared.RequestID(r)
	var payload expenseRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return trips.Expense{}, false
	}
	date := parseDay(fields, "expenseDate", payload.Date)
	if !payload.Amount.IsPositive() {
		fields.Add("amount", "Must be greater than 0")
	}
	if fields.Reject(w, reqID) {
		return trips.Expense{}, false
	}
	reimbursable := true
	if payload.IsReimbursable != nil {
		reimbursable = *payload.IsReimbursable
	}
	return trips.Expense{
		TripID:         chi.URLParam(r, "tripID"),
		ID:             chi.URLParam(r, "expenseID"),
		Type:           payload.Type,
		Date:           date,
		Amount:         payload.Amount,
		Description:    payload.Description,
		IsReimbursable: reimbursable,
		Status:         payload.Status,
	}, true
}

func (h *Handler) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeExpense(w, r)
	if !ok {
		return
	}
	expense, err := h.Service.AddExpense(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "trip_expense", expense.ID, nil, expense)
	api.Created(w, expense, "Expense added successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeExpense(w, r)
	if !ok {
		return
	}
	expense, err := h.Service.UpdateExpense(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "trip_expense", expense.ID, nil, expense)
	api.Updated(w, expense, "Expense updated successfully.", shared.RequestID(r))
}

func (h *Handler) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "expenseID")
	if err := h.Service.DeleteExpense(r.Context(), scope, chi.URLParam(r, "tripID"), id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "trip_expense", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Expense deleted successfully.", shared.RequestID(r))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, trips.ErrNotFound), errors.Is(err, trips.ErrExpenseNotFound):
		shared.NotFound(w, r, err)
	case errors.Is(err, trips.ErrEmployeeNotFound):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"employeeId": err.Error()})
	case errors.Is(err, trips.ErrInvalidTrip), errors.Is(err, trips.ErrInvalidExpense), errors.Is(err, trips.ErrInvalidStatus):
		shared.Invalid(w, r, err)
	default:
		shared.Internal(w, r, err)
	}
}
