package performance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/domain/tenancy"
)

func TestOverallRatingIsMeanToTwoPlaces(t *testing.T) {
	tests := []struct {
		ratings []int
		want    string
	}{
		{[]int{4, 5, 3}, "4"},
		{[]int{5, 4, 4}, "4.33"},
		{[]int{1, 2}, "1.5"},
		{nil, "0"},
	}
	for _, tc := range tests {
		var rs []Rating
		for _, v := range tc.ratings {
			rs = append(rs, Rating{Rating: v})
		}
		assert.Equal(t, tc.want, OverallRating(rs).String(), "ratings %v", tc.ratings)
	}
}

func TestBuildSummaryWithRatings(t *testing.T) {
	ratings := []decimal.Decimal{
		decimal.RequireFromString("3.2"),
		decimal.RequireFromString("3.7"),
		decimal.RequireFromString("4.1"),
		decimal.RequireFromString("4.9"),
	}
	summary := buildSummary(8, 4, ratings)
	if summary.CompletionRate != 0.5 {
		t.Fatalf("expected completion rate 0.5, got %v", summary.CompletionRate)
	}
	if summary.RatingDistribution["3"] != 1 || summary.RatingDistribution["4"] != 2 || summary.RatingDistribution["5"] != 1 {
		t.Fatalf("unexpected distribution: %+v", summary.RatingDistribution)
	}
	if summary.AverageRating.String() != "3.98" {
		t.Fatalf("expected average 3.98, got %s", summary.AverageRating)
	}
}

func TestBuildSummaryHandlesNoReviews(t *testing.T) {
	summary := buildSummary(0, 0, nil)
	if summary.CompletionRate != 0 {
		t.Fatalf("expected zero completion rate, got %v", summary.CompletionRate)
	}
	if len(summary.RatingDistribution) != 0 {
		t.Fatalf("expected empty distribution, got %+v", summary.RatingDistribution)
	}
}

type fakeStore struct {
	StoreAPI
	reviews    map[string]Review
	indicators map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reviews: map[string]Review{
			"draft": {ID: "draft", EmployeeID: "alice", Status: ReviewDraft},
			"done":  {ID: "done", EmployeeID: "alice", Status: ReviewCompleted},
		},
		indicators: map[string]bool{"i1": true, "i2": true},
	}
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
	return id == "alice", nil
}

func (f *fakeStore) CreateReview(_ context.Context, _ string, r Review) (string, error) {
	r.ID = "new"
	f.reviews[r.ID] = r
	return r.ID, nil
}

func (f *fakeStore) GetReview(_ context.Context, _, id string) (Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return Review{}, ErrReviewNotFound
	}
	return r, nil
}

var (
	company = tenancy.Scope{OwnerID: "acme", ActorID: "acme"}
	alice   = tenancy.Scope{OwnerID: "acme", ActorID: "alice", SelfOnly: true}
	day     = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
)

func TestCreateReviewDerivesOverallRating(t *testing.T) {
	svc := NewService(newFakeStore())
	r, err := svc.CreateReview(context.Background(), company, Review{
		EmployeeID: "alice", Period: "2026-H1", Date: day, OverallRating: decimal.NewFromInt(5),
		Ratings: []Rating{{IndicatorID: "i1", Rating: 4}, {IndicatorID: "i2", Rating: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "3.5", r.OverallRating.String())
	assert.Equal(t, "acme", r.ReviewerID)
	assert.Equal(t, ReviewDraft, r.Status)
}

func TestCreateReviewValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()
	base := Review{EmployeeID: "alice", Period: "2026-H1", Date: day}

	r := base
	r.Ratings = []Rating{{IndicatorID: "i1", Rating: 6}}
	_, err := svc.CreateReview(ctx, company, r)
	assert.ErrorIs(t, err, ErrInvalidRating)

	r.Ratings = []Rating{{IndicatorID: "i1", Rating: 2}, {IndicatorID: "i1", Rating: 3}}
	_, err = svc.CreateReview(ctx, company, r)
	assert.ErrorIs(t, err, ErrInvalidReview)

	r.Ratings = []Rating{{IndicatorID: "i9", Rating: 2}}
	_, err = svc.CreateReview(ctx, company, r)
	assert.ErrorIs(t, err, ErrIndicatorNotFound)

	r.Ratings = nil
	_, err = svc.CreateReview(ctx, company, r)
	assert.ErrorIs(t, err, ErrInvalidReview)

	r = base
	r.EmployeeID = "bob"
	r.Ratings = []Rating{{IndicatorID: "i1", Rating: 2}}
	_, err = svc.CreateReview(ctx, company, r)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestGetReviewHidesDraftsFromEmployee(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	_, err := svc.GetReview(ctx, alice, "draft")
	assert.ErrorIs(t, err, ErrReviewNotFound)
	r, err := svc.GetReview(ctx, alice, "done")
	require.NoError(t, err)
	assert.Equal(t, ReviewCompleted, r.Status)

	_, err = svc.GetReview(ctx, company, "draft")
	assert.NoError(t, err)
}
