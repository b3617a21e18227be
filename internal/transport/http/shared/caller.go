package shared

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
)

// Caller returns the authenticated user and its tenant scope. Routes are
// mounted behind RequireAuth, so a missing user writes 401 and returns false.
func Caller(w http.ResponseWriter, r *http.Request) (auth.UserContext, tenancy.Scope, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", RequestID(r))
		return auth.UserContext{}, tenancy.Scope{}, false
	}
	return user, tenancy.FromUser(user), true
}

func RequestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// Meta builds a list meta block with the caller's actions on resource.
func Meta(user auth.UserContext, resource string, meta listing.Meta) ListMeta {
	return ListMeta{Meta: meta, Actions: user.Capabilities().Actions(resource)}
}

func URLParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// Record writes an audit event for a mutation. Failures are logged and do
// not fail the request.
func Record(ctx context.Context, rec audit.Recorder, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, user.OwnerID, user.UserID, action, entityType, entityID, before, after); err != nil {
		slog.Warn("audit log failed", "action", action, "entity", entityType, "entityId", entityID, "err", err)
	}
}

// Internal logs err and writes a generic 500.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "path", r.URL.Path, "requestId", RequestID(r), "err", err)
	api.Fail(w, http.StatusInternalServerError, "internal_error", "Something went wrong. Please try again.", RequestID(r))
}

// Invalid writes a 422 carrying a domain validation error.
func Invalid(w http.ResponseWriter, r *http.Request, err error) {
	api.Fail(w, http.StatusUnprocessableEntity, "validation_error", err.Error(), RequestID(r))
}

func NotFound(w http.ResponseWriter, r *http.Request, err error) {
	api.Fail(w, http.StatusNotFound, "not_found", err.Error(), RequestID(r))
}

func Conflict(w http.ResponseWriter, r *http.Request, err error) {
	api.Fail(w, http.StatusConflict, "conflict", err.Error(), RequestID(r))
}

// Notifier delivers an in-app (and optionally mailed) notification to a user.
type Notifier interface {
	Notify(ctx context.Context, ownerID, userID, ntype, title, body string) error
}

// Notify is Record's counterpart for notifications: a nil notifier is a
// no-op and failures are only logged.
func Notify(ctx context.Context, n Notifier, ownerID, userID, ntype, title, body string) {
	if n == nil || userID == "" {
		return
	}
	if err := n.Notify(ctx, ownerID, userID, ntype, title, body); err != nil {
		slog.Warn("notification failed", "type", ntype, "userId", userID, "err", err)
	}
}
