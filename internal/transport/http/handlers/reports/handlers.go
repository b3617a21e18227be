package reportshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/reports"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/shared"
)

type Reporter interface {
	Dashboard(ctx context.Context, user auth.UserContext) (any, error)
	JobRuns(ctx context.Context, user auth.UserContext, q listing.Query) (listing.Page[reports.JobRun], error)
}

type Handler struct {
	Service Reporter
}

func NewHandler(service Reporter) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/job-runs", h.handleJobRuns)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	dashboard, err := h.Service.Dashboard(r.Context(), user)
	if err != nil {
		shared.Internal(w, r, err)
		return
	}
	api.Success(w, dashboard, shared.RequestID(r))
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	page, err := h.Service.JobRuns(r.Context(), user, shared.ParseList(r, "job_type", "owner_id"))
	if err != nil {
		if errors.Is(err, reports.ErrForbidden) {
			api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), shared.RequestID(r))
			return
		}
		shared.Internal(w, r, err)
		return
	}
	api.List(w, page.Items, page.Meta, shared.RequestID(r))
}
