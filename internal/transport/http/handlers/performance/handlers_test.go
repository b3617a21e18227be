package performancehandler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/domain/performance"
	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/transport/http/handlers/handlertest"
)

type fakeStore struct {
	performance.StoreAPI
	reviews    map[string]performance.Review
	indicators map[string]bool
}

func newHandler() (*Handler, *fakeStore, *handlertest.Events) {
	store := &fakeStore{
		reviews: map[string]performance.Review{
			"draft": {ID: "draft", EmployeeID: "e1", Status: performance.ReviewDraft},
			"done":  {ID: "done", EmployeeID: "e1", Status: performance.ReviewCompleted},
			"other": {ID: "other", EmployeeID: "e2", Status: performance.ReviewCompleted},
		},
		indicators: map[string]bool{"i1": true, "i2": true},
	}
	events := &handlertest.Events{}
	return NewHandler(performance.NewService(store), events), store, events
}

func (f *fakeStore) IndicatorsOwned(_ context.Context, _ string, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if f.indicators[id] {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) StaffExists(_ context.Context, _, id string) (bool, error) {
	return id == "e1" || id == "e2", nil
}

func (f *fakeStore) CreateReview(_ context.Context, _ string, r performance.Review) (string, error) {
	r.ID = "new"
	f.reviews[r.ID] = r
	return r.ID, nil
}

func (f *fakeStore) GetReview(_ context.Context, _, id string) (performance.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return performance.Review{}, performance.ErrReviewNotFound
	}
	return r, nil
}

func (f *fakeStore) SummaryData(_ context.Context, scope tenancy.Scope) (int, int, []decimal.Decimal, error) {
	if scope.SelfOnly {
		return 1, 1, []decimal.Decimal{decimal.RequireFromString("4.5")}, nil
	}
	return 4, 2, []decimal.Decimal{decimal.RequireFromString("4.5"), decimal.RequireFromString("3.5")}, nil
}

func reviewBody(ratings ...map[string]any) map[string]any {
	return map[string]any{
		"employeeId": "e2", "reviewPeriod": "2024-Q2", "reviewDate": "2024-06-30",
		"status": "submitted", "ratings": ratings,
	}
}

func TestCreateReview(t *testing.T) {
	h, store, events := newHandler()
	inbox := &handlertest.Inbox{}
	h.Notify = inbox
	hr := handlertest.Router(handlertest.HR("h1", "c1"), h.RegisterRoutes)

	rec, env := handlertest.Do(t, hr, http.MethodPost, "/performance/reviews", reviewBody(
		map[string]any{"indicatorId": "i1", "rating": 4},
		map[string]any{"indicatorId": "i2", "rating": 5, "comment": " great "},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var review performance.Review
	handlertest.Data(t, env, &review)
	assert.True(t, review.OverallRating.Equal(decimal.RequireFromString("4.5")), review.OverallRating.String())
	assert.Equal(t, "h1", store.reviews["new"].ReviewerID)
	assert.Equal(t, "great", store.reviews["new"].Ratings[1].Comment)
	assert.Equal(t, []string{"review.create"}, events.Actions)
	require.Len(t, inbox.Sent, 1)
	assert.Equal(t, handlertest.Sent{
		OwnerID: "c1", UserID: "e2", Type: notifications.TypeReviewPublished,
		Title: "Your 2024-Q2 performance review is available",
	}, inbox.Sent[0])
}

func TestCreateReviewValidation(t *testing.T) {
	h, _, _ := newHandler()
	company := handlertest.Router(handlertest.Company("c1"), h.RegisterRoutes)

	rec, env := handlertest.Do(t, company, http.MethodPost, "/performance/reviews", reviewBody(map[string]any{"indicatorId": "i1", "rating": 7}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "rating")

	rec, env = handlertest.Do(t, company, http.MethodPost, "/performance/reviews", reviewBody(map[string]any{"indicatorId": "missing", "rating": 3}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "ratings")

	rec, _ = handlertest.Do(t, company, http.MethodPost, "/performance/reviews", reviewBody(
		map[string]any{"indicatorId": "i1", "rating": 3},
		map[string]any{"indicatorId": "i1", "rating": 4},
	))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, env = handlertest.Do(t, company, http.MethodPost, "/performance/reviews", reviewBody())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "ratings")
}

func TestEmployeeReviewVisibility(t *testing.T) {
	h, _, _ := newHandler()
	employee := handlertest.Router(handlertest.Employee("e1", "c1"), h.RegisterRoutes)

	rec, _ := handlertest.Do(t, employee, http.MethodGet, "/performance/reviews/done", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = handlertest.Do(t, employee, http.MethodGet, "/performance/reviews/draft", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = handlertest.Do(t, employee, http.MethodGet, "/performance/reviews/other", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = handlertest.Do(t, employee, http.MethodPost, "/performance/reviews", reviewBody(map[string]any{"indicatorId": "i1", "rating": 3}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := handlertest.Do(t, employee, http.MethodGet, "/performance/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary performance.Summary
	handlertest.Data(t, env, &summary)
	assert.Equal(t, 1, summary.ReviewsTotal)
	assert.Equal(t, 1, summary.RatingDistribution["5"])
}
