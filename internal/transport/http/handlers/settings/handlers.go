package settingshandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/payment"
	"hrsaas/internal/domain/settings"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

type Handler struct {
	Settings *settings.Service
	Payments *payment.Service
	Audit    audit.Recorder
}

func NewHandler(settingsSvc *settings.Service, payments *payment.Service, recorder audit.Recorder) *Handler {
	return &Handler{Settings: settingsSvc, Payments: payments, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireCapability(auth.CapSettingView)).Get("/settings", h.handleGetSettings)
	r.With(middleware.RequireCapability(auth.CapSettingEdit)).Put("/settings", h.handleUpdateSettings)
	r.With(middleware.RequireCapability(auth.CapPaymentSettingEdit)).Get("/payment-settings", h.handleGetPaymentSettings)
	r.With(middleware.RequireCapability(auth.CapPaymentSettingEdit)).Put("/payment-settings", h.handleUpdatePaymentSettings)
}

// handleGetSettings returns the caller's effective settings, inherited
// values included.
func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	values, err := h.Settings.Resolve(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	api.Success(w, values, shared.RequestID(r))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	values, ok := decodeValues(w, r)
	if !ok {
		return
	}
	before, err := h.Settings.Resolve(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	problems, err := h.Settings.Update(r.Context(), user.UserID, values)
	if err != nil {
		writeError(w, r, err, problems)
		return
	}
	after, err := h.Settings.Resolve(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "settings", user.UserID, before, after)
	api.Updated(w, after, "Settings saved successfully.", shared.RequestID(r))
}

type paymentSettingsView struct {
	Values      map[string]string    `json:"values"`
	Descriptors []payment.Descriptor `json:"descriptors"`
	Enabled     []payment.Method     `json:"enabled"`
}

func (h *Handler) paymentView(r *http.Request, userID string) (paymentSettingsView, error) {
	values, err := h.Payments.Masked(r.Context(), userID)
	if err != nil {
		return paymentSettingsView{}, err
	}
	enabled, err := h.Payments.EnabledFor(r.Context(), userID)
	if err != nil {
		return paymentSettingsView{}, err
	}
	return paymentSettingsView{Values: values, Descriptors: payment.Descriptors(), Enabled: enabled}, nil
}

func (h *Handler) handleGetPaymentSettings(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	view, err := h.paymentView(r, user.UserID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	api.Success(w, view, shared.RequestID(r))
}

func (h *Handler) handleUpdatePaymentSettings(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	values, ok := decodeValues(w, r)
	if !ok {
		return
	}
	problems, err := h.Payments.Update(r.Context(), user.UserID, values)
	if err != nil {
		writeError(w, r, err, problems)
		return
	}
	view, err := h.paymentView(r, user.UserID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	// Only keys are audited; values may hold credentials.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "payment_settings", user.UserID, nil, map[string]any{"keys": keys})
	api.Updated(w, view, "Payment settings saved successfully.", shared.RequestID(r))
}

// decodeValues accepts either {"settings": {...}} or a flat object of
// string values.
func decodeValues(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", shared.RequestID(r))
		return nil, false
	}
	if nested, ok := raw["settings"]; ok && len(raw) == 1 {
		if err := json.Unmarshal(nested, &raw); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", shared.RequestID(r))
			return nil, false
		}
	}
	values := make(map[string]string, len(raw))
	fields := shared.Fields{}
	for key, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				fields.Add(key, "Must be a string")
				continue
			}
			s = "off"
			if b {
				s = "on"
			}
		}
		values[key] = s
	}
	if fields.Reject(w, shared.RequestID(r)) {
		return nil, false
	}
	return values, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error, problems map[string]string) {
	reqID := shared.RequestID(r)
	switch {
	case errors.Is(err, settings.ErrInvalidSetting), errors.Is(err, payment.ErrInvalidSetting):
		shared.FailValidation(w, reqID, problems)
	case errors.Is(err, settings.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
	default:
		shared.Internal(w, r, err)
	}
}
