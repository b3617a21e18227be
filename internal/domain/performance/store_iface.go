package performance

import (
	"context"

	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
)

type StoreAPI interface {
	ListIndicators(ctx context.Context, ownerID string, q listing.Query) ([]Indicator, int, error)
	GetIndicator(ctx context.Context, ownerID, id string) (Indicator, error)
	CreateIndicator(ctx context.Context, ownerID string, in Indicator) (string, error)
	UpdateIndicator(ctx context.Context, ownerID string, in Indicator) error
	DeleteIndicator(ctx context.Context, ownerID, id string) error
	IndicatorsOwned(ctx context.Context, ownerID string, ids []string) (int, error)

	ListReviews(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Review, int, error)
	GetReview(ctx context.Context, ownerID, id string) (Review, error)
	CreateReview(ctx context.Context, ownerID string, r Review) (string, error)
	UpdateReview(ctx context.Context, ownerID string, r Review) error
	DeleteReview(ctx context.Context, ownerID, id string) error
	StaffExists(ctx context.Context, ownerID, employeeID string) (bool, error)
	SummaryData(ctx context.Context, scope tenancy.Scope) (total, completed int, ratings []decimal.Decimal, err error)
}

var _ StoreAPI = (*Store)(nil)
