package settingshandler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/payment"
	"hrsaas/internal/domain/settings"
	cryptoutil "hrsaas/internal/platform/crypto"
	"hrsaas/internal/transport/http/handlers/handlertest"
)

type fakeSettings struct {
	nodes  map[string]settings.Node
	values map[string]map[string]string
}

func (f *fakeSettings) Node(_ context.Context, id string) (settings.Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return settings.Node{}, settings.ErrUserNotFound
	}
	return n, nil
}

func (f *fakeSettings) FirstSuperAdmin(context.Context) (string, error) { return "admin", nil }

func (f *fakeSettings) Values(_ context.Context, id string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range f.values[id] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSettings) Upsert(_ context.Context, id string, values map[string]string) error {
	if f.values[id] == nil {
		f.values[id] = map[string]string{}
	}
	for k, v := range values {
		f.values[id][k] = v
	}
	return nil
}

type fakePayments struct {
	values map[string]map[string]string
}

func (f *fakePayments) Values(_ context.Context, id string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range f.values[id] {
		out[k] = v
	}
	return out, nil
}

func (f *fakePayments) Upsert(_ context.Context, id string, values map[string]string) error {
	if f.values[id] == nil {
		f.values[id] = map[string]string{}
	}
	for k, v := range values {
		f.values[id][k] = v
	}
	return nil
}

func newHandler(t *testing.T) (*Handler, *fakePayments, *handlertest.Events) {
	t.Helper()
	store := &fakeSettings{
		nodes: map[string]settings.Node{
			"admin": {ID: "admin", Type: auth.UserTypeSuperAdmin},
			"c1":    {ID: "c1", Type: auth.UserTypeCompany, CreatedBy: "admin"},
		},
		values: map[string]map[string]string{
			"admin": {settings.KeyDefaultCurrency: "USD"},
		},
	}
	crypto, err := cryptoutil.New("")
	require.NoError(t, err)
	payStore := &fakePayments{values: map[string]map[string]string{}}
	events := &handlertest.Events{}
	h := NewHandler(settings.NewService(store, true), payment.NewService(payStore, crypto), events)
	return h, payStore, events
}

func TestUpdateSettingsValidates(t *testing.T) {
	h, _, events := newHandler(t)
	router := handlertest.Router(handlertest.Company("c1"), h.RegisterRoutes)

	rec, env := handlertest.Do(t, router, http.MethodPut, "/settings", map[string]any{
		"settings": map[string]string{settings.KeyDefaultCurrency: "dollars"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, settings.KeyDefaultCurrency)
	assert.Empty(t, events.Actions)

	rec, env = handlertest.Do(t, router, http.MethodPut, "/settings", map[string]string{
		settings.KeyDefaultCurrency: "EUR",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var values map[string]string
	handlertest.Data(t, env, &values)
	assert.Equal(t, "EUR", values[settings.KeyDefaultCurrency])
	assert.Equal(t, []string{"settings.update"}, events.Actions)
}

func TestSettingsCapabilities(t *testing.T) {
	h, _, _ := newHandler(t)
	router := handlertest.Router(handlertest.Employee("e1", "c1"), h.RegisterRoutes)

	rec, _ := handlertest.Do(t, router, http.MethodPut, "/settings", map[string]string{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = handlertest.Do(t, router, http.MethodGet, "/payment-settings", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPaymentSettingsAreMasked(t *testing.T) {
	h, store, _ := newHandler(t)
	router := handlertest.Router(handlertest.SuperAdmin("admin"), h.RegisterRoutes)

	rec, env := handlertest.Do(t, router, http.MethodPut, "/payment-settings", map[string]any{
		"stripe_enabled": true,
		"stripe_key":     "pk_test_1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "stripe_secret")

	rec, env = handlertest.Do(t, router, http.MethodPut, "/payment-settings", map[string]any{
		"stripe_enabled": "on",
		"stripe_key":     "pk_test_1",
		"stripe_secret":  "sk_test_abcd1234",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Values  map[string]string `json:"values"`
		Enabled []payment.Method  `json:"enabled"`
	}
	handlertest.Data(t, env, &view)
	assert.Equal(t, "********1234", view.Values["stripe_secret"])
	require.Len(t, view.Enabled, 1)
	assert.Equal(t, "stripe", view.Enabled[0].Method)
	assert.Equal(t, "sk_test_abcd1234", store.values["admin"]["stripe_secret"])
}
