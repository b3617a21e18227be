package performance

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListIndicators(ctx context.Context, ownerID string, q listing.Query) (listing.Page[Indicator], error) {
	items, total, err := s.store.ListIndicators(ctx, ownerID, q)
	if err != nil {
		return listing.Page[Indicator]{}, err
	}
	return listing.Page[Indicator]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) GetIndicator(ctx context.Context, ownerID, id string) (Indicator, error) {
	return s.store.GetIndicator(ctx, ownerID, id)
}

func (s *Service) CreateIndicator(ctx context.Context, ownerID string, in Indicator) (Indicator, error) {
	if err := checkIndicator(&in); err != nil {
		return Indicator{}, err
	}
	id, err := s.store.CreateIndicator(ctx, ownerID, in)
	if err != nil {
		return Indicator{}, fmt.Errorf("create indicator: %w", err)
	}
	return s.store.GetIndicator(ctx, ownerID, id)
}

func (s *Service) UpdateIndicator(ctx context.Context, ownerID string, in Indicator) (Indicator, error) {
	if err := checkIndicator(&in); err != nil {
		return Indicator{}, err
	}
	if err := s.store.UpdateIndicator(ctx, ownerID, in); err != nil {
		return Indicator{}, err
	}
	return s.store.GetIndicator(ctx, ownerID, in.ID)
}

func (s *Service) DeleteIndicator(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteIndicator(ctx, ownerID, id)
}

func checkIndicator(in *Indicator) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Status == "" {
		in.Status = IndicatorActive
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidIndicator)
	}
	if in.Status != IndicatorActive && in.Status != IndicatorInactive {
		return fmt.Errorf("%w: status must be active or inactive", ErrInvalidIndicator)
	}
	return nil
}

func (s *Service) ListReviews(ctx context.Context, scope tenancy.Scope, q listing.Query) (listing.Page[Review], error) {
	items, total, err := s.store.ListReviews(ctx, scope, q)
	if err != nil {
		return listing.Page[Review]{}, err
	}
	return listing.Page[Review]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

// GetReview hides other employees' reviews and drafts from restricted
// callers.
func (s *Service) GetReview(ctx context.Context, scope tenancy.Scope, id string) (Review, error) {
	r, err := s.store.GetReview(ctx, scope.OwnerID, id)
	if err != nil {
		return Review{}, err
	}
	if !scope.CanSee(r.EmployeeID) || (scope.SelfOnly && r.Status == ReviewDraft) {
		return Review{}, ErrReviewNotFound
	}
	return r, nil
}

// CreateReview stores a review written by the scope's actor. The overall
// rating is always derived from the indicator ratings.
func (s *Service) CreateReview(ctx context.Context, scope tenancy.Scope, r Review) (Review, error) {
	if r.ReviewerID == "" {
		r.ReviewerID = scope.ActorID
	}
	if err := s.checkReview(ctx, scope.OwnerID, &r); err != nil {
		return Review{}, err
	}
	id, err := s.store.CreateReview(ctx, scope.OwnerID, r)
	if err != nil {
		return Review{}, fmt.Errorf("create review: %w", err)
	}
	return s.store.GetReview(ctx, scope.OwnerID, id)
}

func (s *Service) UpdateReview(ctx context.Context, scope tenancy.Scope, r Review) (Review, error) {
	current, err := s.store.GetReview(ctx, scope.OwnerID, r.ID)
	if err != nil {
		return Review{}, err
	}
	if r.ReviewerID == "" {
		r.ReviewerID = current.ReviewerID
	}
	if err := s.checkReview(ctx, scope.OwnerID, &r); err != nil {
		return Review{}, err
	}
	if err := s.store.UpdateReview(ctx, scope.OwnerID, r); err != nil {
		return Review{}, err
	}
	return s.store.GetReview(ctx, scope.OwnerID, r.ID)
}

func (s *Service) DeleteReview(ctx context.Context, scope tenancy.Scope, id string) error {
	return s.store.DeleteReview(ctx, scope.OwnerID, id)
}

func (s *Service) checkReview(ctx context.Context, ownerID string, r *Review) error {
	r.Period = strings.TrimSpace(r.Period)
	r.Comments = strings.TrimSpace(r.Comments)
	if r.Status == "" {
		r.Status = ReviewDraft
	}
	switch {
	case r.Period == "":
		return fmt.Errorf("%w: review period is required", ErrInvalidReview)
	case r.Date.IsZero():
		return fmt.Errorf("%w: review date is required", ErrInvalidReview)
	case !ValidReviewStatus(r.Status):
		return fmt.Errorf("%w: status must be draft, submitted or completed", ErrInvalidReview)
	case len(r.Ratings) == 0:
		return fmt.Errorf("%w: at least one rating is required", ErrInvalidReview)
	}

	seen := make(map[string]struct{}, len(r.Ratings))
	ids := make([]string, 0, len(r.Ratings))
	for i := range r.Ratings {
		rt := &r.Ratings[i]
		rt.Comment = strings.TrimSpace(rt.Comment)
		if rt.Rating < MinRating || rt.Rating > MaxRating {
			return ErrInvalidRating
		}
		if _, dup := seen[rt.IndicatorID]; dup {
			return fmt.Errorf("%w: indicator rated twice", ErrInvalidReview)
		}
		seen[rt.IndicatorID] = struct{}{}
		ids = append(ids, rt.IndicatorID)
	}
	owned, err := s.store.IndicatorsOwned(ctx, ownerID, ids)
	if err != nil {
		return err
	}
	if owned != len(ids) {
		return ErrIndicatorNotFound
	}

	ok, err := s.store.StaffExists(ctx, ownerID, r.EmployeeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmployeeNotFound
	}
	r.OverallRating = OverallRating(r.Ratings)
	return nil
}

// OverallRating is the mean of the ratings rounded to two places.
func OverallRating(ratings []Rating) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(ratings)))).Round(2)
}

func (s *Service) Summary(ctx context.Context, scope tenancy.Scope) (Summary, error) {
	total, completed, ratings, err := s.store.SummaryData(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	return buildSummary(total, completed, ratings), nil
}

// buildSummary buckets overall ratings to the nearest whole star.
func buildSummary(total, completed int, ratings []decimal.Decimal) Summary {
	summary := Summary{
		ReviewsTotal:       total,
		ReviewsCompleted:   completed,
		AverageRating:      decimal.Zero,
		RatingDistribution: map[string]int{},
	}
	sum := decimal.Zero
	for _, rating := range ratings {
		summary.RatingDistribution[rating.Round(0).String()]++
		sum = sum.Add(rating)
	}
	if len(ratings) > 0 {
		summary.AverageRating = sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(2)
	}
	if total > 0 {
		summary.CompletionRate = float64(completed) / float64(total)
	}
	return summary
}
