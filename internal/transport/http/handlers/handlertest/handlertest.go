// Package handlertest drives chi routers in handler tests.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/transport/http/middleware"
)

// Envelope mirrors api.Envelope with raw data for per-test decoding.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Flash   *struct {
		Success string `json:"success"`
		Error   string `json:"error"`
	} `json:"flash"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// Router mounts register under a fresh chi router. When user is non-nil every
// request is authenticated as that user.
func Router(user *auth.UserContext, register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	if user != nil {
		u := *user
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), u)))
			})
		})
	}
	register(r)
	return r
}

// Do sends a JSON request and decodes the envelope of the response.
func Do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return Serve(t, h, req)
}

// Serve runs req through h and decodes the JSON envelope, if any.
func Serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env Envelope
	if ct := rec.Header().Get("Content-Type"); ct == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

// Data decodes the envelope data into out.
func Data(t *testing.T, env Envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func Company(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Type: auth.UserTypeCompany, OwnerID: id}
}

func SuperAdmin(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Type: auth.UserTypeSuperAdmin, OwnerID: id}
}

func HR(id, ownerID string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Type: auth.UserTypeHR, OwnerID: ownerID}
}

func Employee(id, ownerID string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Type: auth.UserTypeEmployee, OwnerID: ownerID}
}

// Events records audit calls.
type Events struct {
	Actions []string
}

func (e *Events) Record(_ context.Context, _, _, action, entityType, _ string, _, _ any) error {
	e.Actions = append(e.Actions, entityType+"."+action)
	return nil
}

// Sent is one captured notification.
type Sent struct {
	OwnerID string
	UserID  string
	Type    string
	Title   string
}

// Inbox records notifications.
type Inbox struct {
	Sent []Sent
}

func (i *Inbox) Notify(_ context.Context, ownerID, userID, ntype, title, _ string) error {
	i.Sent = append(i.Sent, Sent{OwnerID: ownerID, UserID: userID, Type: ntype, Title: title})
	return nil
}
