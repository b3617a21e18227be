package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/settings"
	"hrsaas/internal/platform/listing"
)

type memStore struct {
	StoreAPI
	created []Notification
	owners  []string
	emails  map[string]string
}

func (m *memStore) Create(_ context.Context, ownerID, userID, ntype, title, body string) error {
	m.owners = append(m.owners, ownerID)
	m.created = append(m.created, Notification{ID: userID, Type: ntype, Title: title, Body: body})
	return nil
}

func (m *memStore) UserEmail(_ context.Context, userID string) (string, error) {
	return m.emails[userID], nil
}

func (m *memStore) List(_ context.Context, _ string, unreadOnly bool, _ listing.Query) ([]Notification, int, error) {
	if unreadOnly {
		return m.created[:1], 1, nil
	}
	return m.created, len(m.created), nil
}

type staticSettings map[string]string

func (s staticSettings) Resolve(context.Context, string) (map[string]string, error) {
	return s, nil
}

type sentMail struct{ from, to, subject string }

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (r *recordingMailer) Send(_ context.Context, from, to, subject, _ string) error {
	r.sent = append(r.sent, sentMail{from, to, subject})
	return r.err
}

type queue struct {
	jobs []func(context.Context) (any, error)
}

func (q *queue) Enqueue(_ string, _ string, run func(context.Context) (any, error)) {
	q.jobs = append(q.jobs, run)
}

func TestNotifyStoresWithoutMailWhenOff(t *testing.T) {
	store := &memStore{emails: map[string]string{"e1": "ann@acme.test"}}
	mailer := &recordingMailer{}
	svc := New(store, mailer, staticSettings{settings.KeyEmailNotifications: settings.Off}, nil)

	require.NoError(t, svc.Notify(context.Background(), "c1", "e1", TypePayslipPublished, "Payslip ready", "May 2024"))
	require.Len(t, store.created, 1)
	assert.Equal(t, "c1", store.owners[0])
	assert.Empty(t, mailer.sent)

	require.NoError(t, svc.Notify(context.Background(), "c1", "", TypePayslipPublished, "ignored", ""))
	assert.Len(t, store.created, 1)
}

func TestNotifyQueuesMail(t *testing.T) {
	store := &memStore{emails: map[string]string{"e1": "ann@acme.test"}}
	mailer := &recordingMailer{err: errors.New("smtp down")}
	q := &queue{}
	svc := New(store, mailer, staticSettings{
		settings.KeyEmailNotifications: settings.On,
		settings.KeyMailFromAddress:    "hr@acme.test",
	}, q)

	require.NoError(t, svc.Notify(context.Background(), "c1", "e1", TypeTripStatus, "Trip approved", ""))
	require.Len(t, q.jobs, 1)
	assert.Empty(t, mailer.sent, "mail must wait for the worker")

	details, err := q.jobs[0](context.Background())
	assert.Error(t, err)
	assert.Equal(t, map[string]string{"to": "ann@acme.test", "type": TypeTripStatus}, details)
	assert.Equal(t, []sentMail{{"hr@acme.test", "ann@acme.test", "Trip approved"}}, mailer.sent)
}

func TestNotifyFallsBackToDefaultSenderInline(t *testing.T) {
	store := &memStore{emails: map[string]string{"e1": "ann@acme.test"}}
	mailer := &recordingMailer{}
	svc := New(store, mailer, staticSettings{settings.KeyEmailNotifications: settings.On}, nil)

	require.NoError(t, svc.Notify(context.Background(), "c1", "e1", TypePlanExpired, "Plan expired", ""))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "no-reply@example.com", mailer.sent[0].from)

	require.NoError(t, svc.Notify(context.Background(), "c1", "ghost", TypePlanExpired, "Plan expired", ""))
	assert.Len(t, mailer.sent, 1, "users without an address get no mail")
}

func TestListBuildsMeta(t *testing.T) {
	store := &memStore{}
	svc := New(store, nil, nil, nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(context.Background(), "c1", "e1", TypeReviewPublished, "Review", ""))
	}
	page, err := svc.List(context.Background(), "e1", true, listing.Query{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Meta.Total)
}
