package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hrsaas/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `id, name, email, type, COALESCE(created_by::text, ''), status,
  COALESCE(plan_id::text, ''), plan_expire_date, mfa_enabled, mfa_secret_enc, last_login,
  password_hash, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Type, &u.CreatedBy, &u.Status,
		&u.PlanID, &u.PlanExpireDate, &u.MFAEnabled, &u.MFASecretEnc, &u.LastLogin,
		&u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email))
}

func (s *Store) FindByID(ctx context.Context, id string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2", hash, userID)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2", secretEnc, userID)
	return err
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}

// IsActive reports whether the user and, for staff, their company are active.
func (s *Store) IsActive(ctx context.Context, userID string) (bool, error) {
	var active bool
	err := s.DB.QueryRow(ctx, `
    SELECT u.status = 'active' AND COALESCE(p.status, 'active') = 'active'
    FROM users u
    LEFT JOIN users p ON p.id = u.created_by
    WHERE u.id = $1
  `, userID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return active, err
}
