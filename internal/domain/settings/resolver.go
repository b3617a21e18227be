package settings

import (
	"context"
	"fmt"

	"hrsaas/internal/domain/auth"
)

type ResolverStore interface {
	Node(ctx context.Context, userID string) (Node, error)
	FirstSuperAdmin(ctx context.Context) (string, error)
	Values(ctx context.Context, userID string) (map[string]string, error)
}

// Resolver computes a user's effective settings from the tenant hierarchy.
// It holds no state besides the SaaS flag; every call reads fresh rows.
type Resolver struct {
	store ResolverStore
	saas  bool
}

func NewResolver(store ResolverStore, saas bool) *Resolver {
	return &Resolver{store: store, saas: saas}
}

func (r *Resolver) Resolve(ctx context.Context, userID string) (map[string]string, error) {
	node, err := r.store.Node(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch node.Type {
	case auth.UserTypeSuperAdmin:
		return r.store.Values(ctx, node.ID)
	case auth.UserTypeCompany:
		return r.resolveCompany(ctx, node)
	case auth.UserTypeHR, auth.UserTypeEmployee:
		if node.CreatedBy == "" {
			return r.store.Values(ctx, node.ID)
		}
		company, err := r.store.Node(ctx, node.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("resolve company of %s: %w", node.ID, err)
		}
		base, err := r.resolveCompany(ctx, company)
		if err != nil {
			return nil, err
		}
		own, err := r.store.Values(ctx, node.ID)
		if err != nil {
			return nil, err
		}
		return Overlay(base, own), nil
	default:
		return nil, fmt.Errorf("unknown user type %q", node.Type)
	}
}

func (r *Resolver) resolveCompany(ctx context.Context, company Node) (map[string]string, error) {
	own, err := r.store.Values(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	if !r.saas {
		return own, nil
	}

	superAdminID, err := r.superAdminFor(ctx, company)
	if err != nil {
		return nil, err
	}
	if superAdminID == "" {
		return own, nil
	}
	parent, err := r.store.Values(ctx, superAdminID)
	if err != nil {
		return nil, err
	}
	return MergeAllowed(parent, own, SuperAdminKeys), nil
}

func (r *Resolver) superAdminFor(ctx context.Context, company Node) (string, error) {
	if company.CreatedBy != "" {
		parent, err := r.store.Node(ctx, company.CreatedBy)
		if err == nil && parent.Type == auth.UserTypeSuperAdmin {
			return parent.ID, nil
		}
	}
	return r.store.FirstSuperAdmin(ctx)
}

// MergeAllowed copies the allowed keys of parent underneath own. A non-empty
// value in own wins; an empty one falls back to the parent's.
func MergeAllowed(parent, own map[string]string, allowed []string) map[string]string {
	out := make(map[string]string, len(own)+len(allowed))
	for _, key := range allowed {
		if value, ok := parent[key]; ok {
			out[key] = value
		}
	}
	for key, value := range own {
		if _, inherited := out[key]; inherited && value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func Overlay(base, top map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(top))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range top {
		out[key] = value
	}
	return out
}
