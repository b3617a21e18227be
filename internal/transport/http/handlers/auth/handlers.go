package authhandler

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Audit   audit.Recorder
}

func NewHandler(service *auth.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfaCode"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// RegisterPublic mounts the routes reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
		r.Post("/password", h.handleChangePassword)
		r.Post("/mfa/setup", h.handleMFASetup)
		r.Post("/mfa/enable", h.handleMFAToggle(true))
		r.Post("/mfa/disable", h.handleMFAToggle(false))
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := shared.RequestID(r)
	var payload loginRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{
		"token":        result.Token,
		"expiresAt":    time.Now().Add(auth.TokenTTL).UTC(),
		"user":         result.User,
		"capabilities": result.Capabilities,
	}, reqID)
}

// Tokens are stateless; logout only acknowledges so clients drop theirs.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "logged_out"}, shared.RequestID(r))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", shared.RequestID(r))
		return
	}
	me, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	caps := user.Capabilities()
	names := make([]string, 0, len(caps))
	for c := range caps {
		names = append(names, string(c))
	}
	sort.Strings(names)
	api.Success(w, map[string]any{"user": me, "capabilities": names}, shared.RequestID(r))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload passwordRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), user.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "password", user.UserID, nil, nil)
	api.Updated(w, map[string]string{"status": "password_changed"}, "Password changed successfully.", reqID)
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	setup, err := h.Service.SetupMFA(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, setup, shared.RequestID(r))
}

func (h *Handler) handleMFAToggle(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := shared.Caller(w, r)
		if !ok {
			return
		}
		reqID := shared.RequestID(r)
		var payload mfaCodeRequest
		fields, ok := shared.Decode(w, r, reqID, &payload)
		if !ok || fields.Reject(w, reqID) {
			return
		}
		if err := h.Service.SetMFA(r.Context(), user.UserID, payload.Code, enabled); err != nil {
			writeError(w, r, err)
			return
		}
		shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "mfa", user.UserID, nil, map[string]bool{"enabled": enabled})
		message := "Two-factor authentication disabled."
		if enabled {
			message = "Two-factor authentication enabled."
		}
		api.Updated(w, map[string]bool{"mfaEnabled": enabled}, message, reqID)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := shared.RequestID(r)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
	case errors.Is(err, auth.ErrUserInactive):
		api.Fail(w, http.StatusForbidden, "account_inactive", "account is inactive", reqID)
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", reqID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", reqID)
	case errors.Is(err, auth.ErrMFANotConfigured):
		api.Fail(w, http.StatusConflict, "mfa_not_configured", err.Error(), reqID)
	case errors.Is(err, auth.ErrWeakPassword):
		shared.FailValidation(w, reqID, shared.Fields{"newPassword": err.Error()})
	case errors.Is(err, auth.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
	default:
		shared.Internal(w, r, err)
	}
}
