package notificationshandler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/transport/http/handlers/handlertest"
)

type row struct {
	userID string
	n      notifications.Notification
}

type fakeStore struct {
	notifications.StoreAPI
	rows []row
}

func (f *fakeStore) List(_ context.Context, userID string, unreadOnly bool, _ listing.Query) ([]notifications.Notification, int, error) {
	out := []notifications.Notification{}
	for _, r := range f.rows {
		if r.userID == userID && (!unreadOnly || r.n.ReadAt == nil) {
			out = append(out, r.n)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) Unread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, r := range f.rows {
		if r.userID == userID && r.n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkRead(_ context.Context, userID, id string) error {
	for i, r := range f.rows {
		if r.userID == userID && r.n.ID == id {
			now := time.Now()
			f.rows[i].n.ReadAt = &now
			return nil
		}
	}
	return notifications.ErrNotFound
}

func (f *fakeStore) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var updated int64
	for i, r := range f.rows {
		if r.userID == userID && r.n.ReadAt == nil {
			now := time.Now()
			f.rows[i].n.ReadAt = &now
			updated++
		}
	}
	return updated, nil
}

func newHandler() (*Handler, *fakeStore) {
	store := &fakeStore{rows: []row{
		{userID: "e1", n: notifications.Notification{ID: "n1", Type: notifications.TypePayslipPublished, Title: "Payslip"}},
		{userID: "e1", n: notifications.Notification{ID: "n2", Type: notifications.TypeTripStatus, Title: "Trip"}},
		{userID: "e2", n: notifications.Notification{ID: "n3", Type: notifications.TypeTripStatus, Title: "Other"}},
	}}
	return NewHandler(notifications.New(store, nil, nil, nil)), store
}

func TestInboxFlow(t *testing.T) {
	h, _ := newHandler()
	router := handlertest.Router(handlertest.Employee("e1", "c1"), h.RegisterRoutes)

	rec, env := handlertest.Do(t, router, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []notifications.Notification
	handlertest.Data(t, env, &items)
	assert.Len(t, items, 2)

	rec, _ = handlertest.Do(t, router, http.MethodPost, "/notifications/n1/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = handlertest.Do(t, router, http.MethodGet, "/notifications/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary notifications.Summary
	handlertest.Data(t, env, &summary)
	assert.Equal(t, 1, summary.Unread)

	rec, env = handlertest.Do(t, router, http.MethodGet, "/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	handlertest.Data(t, env, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "n2", items[0].ID)

	rec, env = handlertest.Do(t, router, http.MethodPost, "/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result map[string]int64
	handlertest.Data(t, env, &result)
	assert.Equal(t, int64(1), result["updated"])
}

func TestCannotReadSomeoneElsesNotification(t *testing.T) {
	h, store := newHandler()
	router := handlertest.Router(handlertest.Employee("e1", "c1"), h.RegisterRoutes)

	rec, _ := handlertest.Do(t, router, http.MethodPost, "/notifications/n3/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, store.rows[2].n.ReadAt)

	rec, _ = handlertest.Do(t, handlertest.Router(nil, h.RegisterRoutes), http.MethodGet, "/notifications", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
