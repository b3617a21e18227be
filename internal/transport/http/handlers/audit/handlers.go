package audithandler

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

// exportLimit caps the rows written by one CSV export.
const exportLimit = 10000

type Lister interface {
	List(ctx context.Context, ownerID string, q listing.Query, includeDetails bool) (listing.Page[audit.Event], error)
}

type Handler struct {
	Service Lister
}

func NewHandler(service Lister) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapAuditView)).Get("/events", h.handleListEvents)
		r.With(middleware.RequireCapability(auth.CapAuditView)).Get("/events/export", h.handleExportEvents)
	})
}

// ownerFilter widens the superadmin to every tenant.
func ownerFilter(user auth.UserContext) string {
	if user.IsSuperAdmin() {
		return ""
	}
	return user.OwnerID
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "action", "entity_type", "actor_id")
	includeDetails := r.URL.Query().Get("includeDetails") == "true"
	page, err := h.Service.List(r.Context(), ownerFilter(user), q, includeDetails)
	if err != nil {
		shared.Internal(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Meta.Total))
	api.List(w, page.Items, shared.Meta(user, "audit", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "action", "entity_type", "actor_id")
	q.PerPage = listing.MaxPerPage
	owner := ownerFilter(user)

	var events []audit.Event
	for q.Page = 1; len(events) < exportLimit; q.Page++ {
		page, err := h.Service.List(r.Context(), owner, q, false)
		if err != nil {
			shared.Internal(w, r, err)
			return
		}
		events = append(events, page.Items...)
		if q.Page >= page.Meta.LastPage || len(page.Items) == 0 {
			break
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "owner_id", "actor_id", "actor_name", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}); err != nil {
		slog.Warn("audit export header failed", "err", err)
	}
	for _, evt := range events {
		row := []string{evt.ID, evt.OwnerID, evt.ActorID, evt.ActorName, evt.Action, evt.EntityType,
			evt.EntityID, evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			slog.Warn("audit export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("audit export flush failed", "err", err)
	}
}
