package billinghandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/billing"
	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/domain/payment"
	"hrsaas/internal/transport/http/api"
	"hrsaas/internal/transport/http/middleware"
	"hrsaas/internal/transport/http/shared"
)

const checkoutEndpoint = "billing.checkout"

// Idempotency replays the stored response of a keyed request.
type Idempotency interface {
	Check(ctx context.Context, ownerID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, ownerID, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

type Handler struct {
	Service     *billing.Service
	Idempotency Idempotency
	Audit       audit.Recorder
	Notify      shared.Notifier
}

func NewHandler(service *billing.Service, idem Idempotency, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Idempotency: idem, Audit: recorder}
}

type planRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description" validate:"max=1000"`
	MonthlyPrice decimal.Decimal `json:"monthlyPrice"`
	YearlyPrice  decimal.Decimal `json:"yearlyPrice"`
	MaxUsers     int             `json:"maxUsers" validate:"gte=0"`
	MaxEmployees int             `json:"maxEmployees" validate:"gte=0"`
	TrialDays    int             `json:"trialDays" validate:"gte=0"`
	IsDefault    bool            `json:"isDefault"`
	Status       string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (p planRequest) plan(id string) billing.Plan {
	return billing.Plan{
		ID: id, Name: p.Name, Description: p.Description,
		MonthlyPrice: p.MonthlyPrice, YearlyPrice: p.YearlyPrice,
		MaxUsers: p.MaxUsers, MaxEmployees: p.MaxEmployees, TrialDays: p.TrialDays,
		IsDefault: p.IsDefault, Status: p.Status,
	}
}

type couponRequest struct {
	Name       string          `json:"name" validate:"required,max=100"`
	Code       string          `json:"code" validate:"required,max=50"`
	Type       string          `json:"type" validate:"required,oneof=percentage flat"`
	Value      decimal.Decimal `json:"value"`
	UsageLimit *int            `json:"usageLimit" validate:"omitempty,gte=1"`
	ExpiresAt  string          `json:"expiresAt"`
	Status     string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

type quoteRequest struct {
	PlanID     string `json:"planId" validate:"required"`
	Duration   string `json:"duration" validate:"required,oneof=monthly yearly"`
	CouponCode string `json:"couponCode" validate:"max=50"`
}

type checkoutRequest struct {
	quoteRequest
	PaymentMethod    string `json:"paymentMethod"`
	PaymentReference string `json:"paymentReference" validate:"max=255"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/plans", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapPlanView)).Get("/", h.handleListPlans)
		r.With(middleware.RequireCapability(auth.CapPlanCreate)).Post("/", h.handleCreatePlan)
		r.With(middleware.RequireCapability(auth.CapPlanView)).Get("/{planID}", h.handleGetPlan)
		r.With(middleware.RequireCapability(auth.CapPlanEdit)).Put("/{planID}", h.handleUpdatePlan)
		r.With(middleware.RequireCapability(auth.CapPlanDelete)).Delete("/{planID}", h.handleDeletePlan)
	})
	r.Route("/coupons", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapCouponView)).Get("/", h.handleListCoupons)
		r.With(middleware.RequireCapability(auth.CapCouponCreate)).Post("/", h.handleCreateCoupon)
		r.With(middleware.RequireCapability(auth.CapCouponView)).Get("/{couponID}", h.handleGetCoupon)
		r.With(middleware.RequireCapability(auth.CapCouponEdit)).Put("/{couponID}", h.handleUpdateCoupon)
		r.With(middleware.RequireCapability(auth.CapCouponDelete)).Delete("/{couponID}", h.handleDeleteCoupon)
	})
	r.Route("/billing", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapPlanPurchase)).Get("/payment-methods", h.handlePaymentMethods)
		r.With(middleware.RequireCapability(auth.CapPlanPurchase)).Post("/quote", h.handleQuote)
		r.With(middleware.RequireCapability(auth.CapPlanPurchase)).Post("/checkout", h.handleCheckout)
		r.With(middleware.RequireCapability(auth.CapOrderView)).Get("/orders", h.handleListOrders)
		r.With(middleware.RequireCapability(auth.CapOrderView)).Get("/orders/{orderID}", h.handleGetOrder)
		r.With(middleware.RequireCapability(auth.CapOrderApprove)).Post("/orders/{orderID}/approve", h.handleProcessOrder(billing.OrderApproved))
		r.With(middleware.RequireCapability(auth.CapOrderApprove)).Post("/orders/{orderID}/reject", h.handleProcessOrder(billing.OrderRejected))
	})
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r)
	if !user.Capabilities().Has(auth.CapPlanEdit) {
		q.Status = billing.StatusActive
	}
	page, err := h.Service.ListPlans(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "plan", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	plan, err := h.Service.GetPlan(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if plan.Status != billing.StatusActive && !user.Capabilities().Has(auth.CapPlanEdit) {
		writeError(w, r, billing.ErrPlanNotFound)
		return
	}
	api.Success(w, plan, shared.RequestID(r))
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload planRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	plan, err := h.Service.CreatePlan(r.Context(), payload.plan(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "plan", plan.ID, nil, plan)
	api.Created(w, plan, "Plan created successfully.", reqID)
}

func (h *Handler) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	var payload planRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	id := chi.URLParam(r, "planID")
	before, err := h.Service.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := h.Service.UpdatePlan(r.Context(), payload.plan(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "plan", id, before, plan)
	api.Updated(w, plan, "Plan updated successfully.", reqID)
}

func (h *Handler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "planID")
	if err := h.Service.DeletePlan(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "plan", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Plan deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handleListCoupons(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "type")
	page, err := h.Service.ListCoupons(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "coupon", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetCoupon(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.Service.GetCoupon(r.Context(), chi.URLParam(r, "couponID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, coupon, shared.RequestID(r))
}

// decodeCoupon reads and validates a coupon payload, writing the response
// itself on failure.
func decodeCoupon(w http.ResponseWriter, r *http.Request, id string) (billing.Coupon, bool) {
	reqID := shared.RequestID(r)
	var payload couponRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return billing.Coupon{}, false
	}
	coupon := billing.Coupon{
		ID: id, Name: payload.Name, Code: payload.Code, Type: payload.Type,
		Value: payload.Value, UsageLimit: payload.UsageLimit, Status: payload.Status,
	}
	if payload.ExpiresAt != "" {
		expires, err := shared.ParseDate(payload.ExpiresAt)
		if err != nil {
			fields.Add("expiresAt", "Must be a date in 2006-01-02 format")
		} else {
			coupon.ExpiresAt = &expires
		}
	}
	if fields.Reject(w, reqID) {
		return billing.Coupon{}, false
	}
	return coupon, true
}

func (h *Handler) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeCoupon(w, r, "")
	if !ok {
		return
	}
	coupon, err := h.Service.CreateCoupon(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "coupon", coupon.ID, nil, coupon)
	api.Created(w, coupon, "Coupon created successfully.", shared.RequestID(r))
}

func (h *Handler) handleUpdateCoupon(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "couponID")
	in, ok := decodeCoupon(w, r, id)
	if !ok {
		return
	}
	before, err := h.Service.GetCoupon(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	coupon, err := h.Service.UpdateCoupon(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionUpdate, "coupon", id, before, coupon)
	api.Updated(w, coupon, "Coupon updated successfully.", shared.RequestID(r))
}

func (h *Handler) handleDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "couponID")
	if err := h.Service.DeleteCoupon(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionDelete, "coupon", id, nil, nil)
	api.Updated(w, map[string]string{"id": id}, "Coupon deleted successfully.", shared.RequestID(r))
}

func (h *Handler) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.Service.PaymentMethods(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, methods, shared.RequestID(r))
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	reqID := shared.RequestID(r)
	var payload quoteRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok || fields.Reject(w, reqID) {
		return
	}
	quote, err := h.Service.Quote(r.Context(), payload.PlanID, payload.Duration, payload.CouponCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, quote, reqID)
}

// handleCheckout places an order. With an Idempotency-Key header a retried
// request returns the order of the first attempt.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	reqID := shared.RequestID(r)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	key := middleware.IdempotencyKey(r)
	hash := middleware.RequestHash(body)
	if key != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.OwnerID, user.UserID, checkoutEndpoint, key, hash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), reqID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "endpoint", checkoutEndpoint, "err", err)
		}
		if found {
			var replayed billing.PlanOrder
			if err := json.Unmarshal(stored, &replayed); err != nil {
				slog.Warn("idempotency decode failed", "endpoint", checkoutEndpoint, "err", err)
			}
			api.Created(w, stored, checkoutMessage(replayed.Status), reqID)
			return
		}
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	var payload checkoutRequest
	fields, ok := shared.Decode(w, r, reqID, &payload)
	if !ok {
		return
	}
	if fields.Reject(w, reqID) {
		return
	}
	order, err := h.Service.Checkout(r.Context(), user.OwnerID, billing.CheckoutInput{
		PlanID:           payload.PlanID,
		Duration:         payload.Duration,
		CouponCode:       payload.CouponCode,
		PaymentMethod:    strings.TrimSpace(payload.PaymentMethod),
		PaymentReference: payload.PaymentReference,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.Record(r.Context(), h.Audit, user, audit.ActionCreate, "plan_order", order.ID, nil, order)

	if key != "" && h.Idempotency != nil {
		if encoded, err := json.Marshal(order); err != nil {
			slog.Warn("idempotency encode failed", "endpoint", checkoutEndpoint, "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.OwnerID, user.UserID, checkoutEndpoint, key, hash, encoded); err != nil {
			slog.Warn("idempotency save failed", "endpoint", checkoutEndpoint, "err", err)
		}
	}
	api.Created(w, order, checkoutMessage(order.Status), reqID)
}

func checkoutMessage(status string) string {
	if status == billing.OrderApproved {
		return "Plan activated successfully."
	}
	return "Order placed. It will be activated once payment is confirmed."
}

// companyScope is the company an order query is pinned to; empty for the
// platform owner.
func companyScope(user auth.UserContext) string {
	if user.IsSuperAdmin() {
		return ""
	}
	return user.OwnerID
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	q := shared.ParseList(r, "payment_method")
	page, err := h.Service.ListOrders(r.Context(), companyScope(user), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.List(w, page.Items, shared.Meta(user, "plan_order", page.Meta), shared.RequestID(r))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	user, _, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	order, err := h.Service.GetOrder(r.Context(), companyScope(user), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, order, shared.RequestID(r))
}

func (h *Handler) handleProcessOrder(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := shared.Caller(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "orderID")
		var (
			order billing.PlanOrder
			err   error
		)
		message := "Order approved and plan assigned."
		if status == billing.OrderApproved {
			order, err = h.Service.ApproveOrder(r.Context(), id)
		} else {
			order, err = h.Service.RejectOrder(r.Context(), id)
			message = "Order rejected."
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		shared.Record(r.Context(), h.Audit, user, audit.ActionStatus, "plan_order", id, nil, map[string]any{"status": order.Status, "processedAt": time.Now().UTC()})
		ntype := notifications.TypePlanOrderApproved
		if order.Status != billing.OrderApproved {
			ntype = notifications.TypePlanOrderRejected
		}
		shared.Notify(r.Context(), h.Notify, order.CompanyID, order.CompanyID, ntype,
			"Order "+order.OrderNumber+" for "+order.PlanName+" was "+order.Status, "")
		api.Updated(w, order, message, shared.RequestID(r))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := shared.RequestID(r)
	var cfgErr *payment.ConfigError
	switch {
	case errors.Is(err, billing.ErrPlanNotFound), errors.Is(err, billing.ErrCouponNotFound),
		errors.Is(err, billing.ErrOrderNotFound), errors.Is(err, billing.ErrCompanyNotFound):
		shared.NotFound(w, r, err)
	case errors.Is(err, billing.ErrPlanNameTaken):
		shared.FailValidation(w, reqID, shared.Fields{"name": err.Error()})
	case errors.Is(err, billing.ErrCouponCodeTaken):
		shared.FailValidation(w, reqID, shared.Fields{"code": err.Error()})
	case errors.Is(err, billing.ErrCouponInactive), errors.Is(err, billing.ErrCouponExpired),
		errors.Is(err, billing.ErrCouponExhausted):
		shared.FailValidation(w, reqID, shared.Fields{"couponCode": err.Error()})
	case errors.Is(err, billing.ErrInvalidDuration):
		shared.FailValidation(w, reqID, shared.Fields{"duration": err.Error()})
	case errors.Is(err, billing.ErrInvalidPlan), errors.Is(err, billing.ErrInvalidCoupon),
		errors.Is(err, billing.ErrPlanInactive):
		shared.Invalid(w, r, err)
	case errors.Is(err, billing.ErrPlanInUse), errors.Is(err, billing.ErrDefaultPlan),
		errors.Is(err, billing.ErrOrderProcessed):
		shared.Conflict(w, r, err)
	case errors.Is(err, payment.ErrUnknownMethod), errors.Is(err, payment.ErrMethodDisabled),
		errors.As(err, &cfgErr), errors.Is(err, payment.ErrNotConfigured):
		slog.Warn("checkout payment method rejected", "requestId", reqID, "err", err)
		shared.FailValidation(w, reqID, shared.Fields{"paymentMethod": payment.UserMessage(err)})
	case errors.Is(err, billing.ErrNoPlatformOwner):
		api.Fail(w, http.StatusServiceUnavailable, "payments_unavailable", "Payments are not available right now.", reqID)
	default:
		shared.Internal(w, r, err)
	}
}
