package performancehandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/domain/performance"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

type Handler struct {
	Service *performance.Service
	Audit   audit.Recorder
	Notify  shared.Notifier
}

func NewHandler(service *performance.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type indicatorRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
	Status      string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type ratingRequest struct {
	IndicatorID string `json:"indicatorId" validate:"required"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Comment     string `json:"comment" validate:"max=2000"`
}

type reviewRequest struct {
	EmployeeID string          `json:"employeeId" validate:"required"`
	ReviewerID string          `json:"reviewerId"`
	Period     string          `json:"reviewPeriod" validate:"required,max=50"`
	Date       string          `json:"reviewDate" validate:"required"`
	Comments   string          `json:"comments" validate:"max=5000"`
	Status     string          `json:"status" validate:"omitempty,oneof=draft submitted completed"`
	Ratings    []ratingRequest `json:"ratings" validate:"required,min=1,dive"`
}

// Indicators share the review capabilities.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/performance", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapReviewView)).Get("/indicators", h.handleListIndicators)
		r.With(middleware.RequireCapability(auth.CapReviewCreate)).Post("/indicators", h.handleCreateIndicator)
		r.With(middleware.RequireCapability(auth.CapReviewView)).Get("/indicators/{indicatorID}", h.handleGetIndicator)
		r.With(middleware.RequireCapability(auth.CapReviewEdit)).Put("/indicators/{indicatorID}", h.handleUpdateIndicator)
		r.With(middleware.RequireCapability(auth.CapReviewDelete)).Delete("/indicators/{indicatorID}", h.handleDeleteIndicator)

		r.With(middleware.RequireCapability(auth.CapReviewView)).Get("/reviews", h.handleListReviews)
		r.With(middleware.RequireCapability(auth.CapReviewCreate)).Post("/reviews", h.handleCreateReview)
		r.With(middleware.RequireCapability(auth.CapReviewView)).Get("/reviews/{reviewID}", h.handleGetReview)
		r.With(middleware.RequireCapability(auth.CapReviewEdit)).Put("/reviews/{reviewID}", h.handleUpdateReview)
		r.With(middleware.RequireCapability(auth.CapReviewDelete)).Delete("/reviews/{reviewID}", h.handleDeleteReview)

		r.With(middleware.RequireCapability(auth.CapReviewView)).Get("/summary", h.handleSummary)
	})
}

func (h *Handler) handleListIndicators(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	page, err := h.Service.ListIndicators(r.Context(), user.OwnerID, shared.ParseList(r, "category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "review", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetIndicator(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	indicator, err := h.Service.GetIndicator(r.Context(), user.OwnerID, chi.URLParam(r, "indicatorID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, indicator, shared.RequestID(r))
}

func decodeIndicator(w http.ResponseWriter, r *http.Request) (performance.Indicator, bool) {
	reqID := shared.RequestID(r)
	var payload indicatorRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return performance.Indicator{}, false
	}
	return performance.Indicator{
		Name: payload.Name, Category: payload.Category, Description: payload.Description, Status: payload.Status,
	}, true
}

func (h *Handler) handleCreateIndicator(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeIndicator(w, r)
	if !ok {
		return
	}
	indicator, err := h.Service.CreateIndicator(r.Context(), user.OwnerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "indicator", indicator.ID, nil, indicator)
	api.Created(w, indicator, "Indicator created successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdateIndicator(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeIndicator(w, r)
	if !ok {
		return
	}
	before, err := h.Service.GetIndicator(r.Context(), user.OwnerID, chi.URLParam(r, "indicatorID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = before.ID
	indicator, err := h.Service.UpdateIndicator(r.Context(), user.OwnerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "indicator", indicator.ID, before, indicator)
	api.Updated(w, indicator, "Indicator updated successfully.", shared.RequestID(r))
}

func (h *Handler) handleDeleteIndicator(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "indicatorID")
	if err := h.Service.DeleteIndicator(r.Context(), user.OwnerID, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "indicator", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Indicator deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	page, err := h.Service.ListReviews(r.Context(), scope, shared.ParseList(r, "employee_id", "review_period", "reviewer_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "review", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetReview(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	review, err := h.Service.GetReview(r.Context(), scope, chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, review, shared.RequestID(r))
}

func decodeReview(w http.ResponseWriter, r *http.Request) (performance.Review, bool) {
	reqID := shared.RequestID(r)
	var payload reviewRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return performance.Review{}, false
	}
	var date time.Time
	if payload.Date != "" {
		parsed, err := shared.ParseDate(payload.Date)
		if err != nil {
			fields.Add("reviewDate", "Must be a date in 2006-01-02 format")
		}
		date = parsed
	}
	if fields.Reject(w, reqID) {
		return performance.Review{}, false
	}
	ratings := make([]performance.Rating, 0, len(payload.Ratings))
	for _, rt := range payload.Ratings {
		ratings = append(ratings, performance.Rating{IndicatorID: rt.IndicatorID, Rating: rt.Rating, Comment: rt.Comment})
	}
	return performance.Review{
		EmployeeID: payload.EmployeeID,
		ReviewerID: payload.ReviewerID,
		Period:     payload.Period,
		Date:       date,
		Comments:   payload.Comments,
		Status:     payload.Status,
		Ratings:    ratings,
	}, true
}

func (h *Handler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeReview(w, r)
	if !ok {
		return
	}
	review, err := h.Service.CreateReview(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "review", review.ID, nil, review)
	h.notifyPublished(r, user.OwnerID, "", review)
	api.Created(w, review, "Review created successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeReview(w, r)
	if !ok {
		return
	}
	before, err := h.Service.GetReview(r.Context(), scope, chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = before.ID
	review, err := h.Service.UpdateReview(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "review", review.ID, before, review)
	h.notifyPublished(r, user.OwnerID, before.Status, review)
	api.Updated(w, review, "Review updated successfully.", shared.RequestID(r))
}

// notifyPublished tells the employee once a review leaves draft.
func (h *Handler) notifyPublished(r *http.Request, ownerID, previous string, review performance.Review) {
	if review.Status == performance.ReviewDraft || (previous != "" && previous != performance.ReviewDraft) {
		return
	}
	shared.Notify(r.Context(), h.Notify, ownerID, review.EmployeeID, notifications.TypeReviewPublished,
		"Your "+review.Period+" performance review is available", "")
}

func (h *Handler) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "reviewID")
	if err := h.Service.DeleteReview(r.Context(), scope, id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "review", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Review deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, summary, shared.RequestID(r))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, performance.ErrReviewNotFound):
		shared.NotFound(w, r, err)
	case errors.Is(err, performance.ErrIndicatorNotFound):
		if chi.URLParam(r, "indicatorID") != "" {
			shared.NotFound(w, r, err)
			return
		}
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"ratings": err.Error()})
	case errors.Is(err, performance.ErrEmployeeNotFound):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"employeeId": err.Error()})
	case errors.Is(err, performance.ErrInvalidRating):
		shared.FailValidation(w, shared.RequestID(r), shared.Fields{"ratings": err.Error()})
	case errors.Is(err, performance.ErrInvalidIndicator), errors.Is(err, performance.ErrInvalidReview):
		shared.Invalid(w, r, err)
	default:
		shared.Internal(w, r, err)
	}
}
