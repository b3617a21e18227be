package users

import (
	"context"

	"hrsaas/internal/platform/listing"
)

type StoreAPI interface {
	ListCompanies(ctx context.Context, q listing.Query) ([]Company, int, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	DefaultPlanID(ctx context.Context) (string, error)
	PlanExists(ctx context.Context, id string) (bool, error)
	CreateUser(ctx context.Context, parentID string, a Account) (string, error)
	UpdateUser(ctx context.Context, parentID, userType string, a Account) (bool, error)
	SetStatus(ctx context.Context, parentID, userType, id, status string) (bool, error)
	DeleteUser(ctx context.Context, parentID, userType, id string) (bool, error)
	ListStaff(ctx context.Context, ownerID string, q listing.Query) ([]Staff, int, error)
	GetStaff(ctx context.Context, ownerID, id string) (Staff, error)
	CountStaff(ctx context.Context, ownerID, userType string) (int, error)
	Limits(ctx context.Context, companyID string) (PlanLimits, error)
}

var _ StoreAPI = (*Store)(nil)
