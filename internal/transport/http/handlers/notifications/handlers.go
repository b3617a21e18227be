package notificationshandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/shared"
)

// Inbox is the part of notifications.Service the handler reads from.
type Inbox interface {
	List(ctx context.Context, userID string, unreadOnly bool, q listing.Query) (listing.Page[notifications.Notification], error)
	Summary(ctx context.Context, userID string) (notifications.Summary, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type Handler struct {
	Service Inbox
}

func NewHandler(service Inbox) *Handler {
	return &Handler{Service: service}
}

// Every authenticated user has an inbox, so no capability gates these routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/summary", h.handleSummary)
		r.Post("/read-all", h.handleMarkAllRead)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "type")
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	page, err := h.Service.List(r.Context(), user.UserID, unreadOnly, q)
	if err != nil {
		shared.Internal(w, r, err)
		return
	}
	api.List(w, page.Items, page.Meta, shared.RequestID(r))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), user.UserID)
	if err != nil {
		shared.Internal(w, r, err)
		return
	}
	api.Success(w, summary, shared.RequestID(r))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), user.UserID, id); err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			shared.NotFound(w, r, err)
			return
		}
		shared.Internal(w, r, err)
		return
	}
	api.Success(w, map[string]string{"id": id, "status": "read"}, shared.RequestID(r))
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.MarkAllRead(r.Context(), user.UserID)
	if err != nil {
		shared.Internal(w, r, err)
		return
	}
	api.Updated(w, map[string]int64{"updated": updated}, "All notifications marked as read.", shared.RequestID(r))
}
