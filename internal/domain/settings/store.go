package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hrsaas/internal/platform/querier"
)

// Node is the slice of a user row the resolver needs to walk the hierarchy.
type Node struct {
	ID        string
	Type      string
	CreatedBy string
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Node(ctx context.Context, userID string) (Node, error) {
	var n Node
	err := s.DB.QueryRow(ctx, "SELECT id, type, COALESCE(created_by::text, '') FROM users WHERE id = $1", userID).Scan(&n.ID, &n.Type, &n.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Node{}, ErrUserNotFound
	}
	return n, err
}

func (s *Store) FirstSuperAdmin(ctx context.Context) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE type = 'superadmin' ORDER BY created_at LIMIT 1").Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *Store) Values(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT key, value FROM settings WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, userID string, values map[string]string) error {
	for key, value := range values {
		if _, err := s.DB.Exec(ctx, `
    INSERT INTO settings (user_id, key, value)
    VALUES ($1,$2,$3)
    ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
  `, userID, key, value); err != nil {
			return err
		}
	}
	return nil
}
