package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/settings"
	"hrsaas/internal/platform/config"
)

const defaultPlanName = "Free"

// Seed makes a fresh database usable: the platform owner (SaaS mode only),
// a default plan, default settings and optionally a demo company.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	planID, err := ensureDefaultPlan(ctx, pool)
	if err != nil {
		return err
	}

	if cfg.SaaSMode {
		adminID, created, err := ensureUser(ctx, pool, seedUser{
			Name:     "Super Admin",
			Email:    cfg.SuperAdminEmail,
			Password: cfg.SuperAdminPassword,
			Type:     auth.UserTypeSuperAdmin,
		})
		if err != nil {
			return err
		}
		if err := ensureSettings(ctx, pool, adminID, settings.Defaults); err != nil {
			return err
		}
		if created {
			slog.Info("seeded superadmin", "email", cfg.SuperAdminEmail)
		}
	}

	if !cfg.SeedDemoData {
		return nil
	}

	companyID, created, err := ensureUser(ctx, pool, seedUser{
		Name:     "Demo Company",
		Email:    cfg.CompanyEmail,
		Password: cfg.CompanyPassword,
		Type:     auth.UserTypeCompany,
		PlanID:   planID,
	})
	if err != nil {
		return err
	}
	companyDefaults := map[string]string{settings.KeyCompanyName: "Demo Company"}
	if !cfg.SaaSMode {
		for key, value := range settings.Defaults {
			companyDefaults[key] = value
		}
	}
	if err := ensureSettings(ctx, pool, companyID, companyDefaults); err != nil {
		return err
	}
	if created {
		slog.Info("seeded demo company", "email", cfg.CompanyEmail, "password", cfg.CompanyPassword)
	}
	return nil
}

type seedUser struct {
	Name     string
	Email    string
	Password string
	Type     string
	PlanID   string
}

func ensureDefaultPlan(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM plans WHERE is_default = true ORDER BY created_at LIMIT 1").Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = pool.QueryRow(ctx, `
    INSERT INTO plans (name, description, monthly_price, yearly_price, max_users, max_employees, trial_days, is_default)
    VALUES ($1, 'Starter plan assigned to new companies', 0, 0, 5, 10, 0, true)
    ON CONFLICT (name) DO UPDATE SET is_default = true
    RETURNING id
  `, defaultPlanName).Scan(&id)
	return id, err
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, u seedUser) (string, bool, error) {
	if strings.TrimSpace(u.Email) == "" || strings.TrimSpace(u.Password) == "" {
		return "", false, errors.New("seed user requires email and password")
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = lower($1)", u.Email).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return "", false, err
	}
	var planID any
	if u.PlanID != "" {
		planID = u.PlanID
	}
	err = pool.QueryRow(ctx, `
    INSERT INTO users (name, email, password_hash, type, status, plan_id)
    VALUES ($1,$2,$3,$4,'active',$5)
    RETURNING id
  `, u.Name, strings.ToLower(u.Email), hash, u.Type, planID).Scan(&id)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func ensureSettings(ctx context.Context, pool *pgxpool.Pool, userID string, values map[string]string) error {
	for key, value := range values {
		if _, err := pool.Exec(ctx, `
    INSERT INTO settings (user_id, key, value) VALUES ($1,$2,$3)
    ON CONFLICT (user_id, key) DO NOTHING
  `, userID, key, value); err != nil {
			return err
		}
	}
	return nil
}
