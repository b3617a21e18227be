package payment

import (
	"context"

	"hrsaas/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Values(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT key, value FROM payment_settings WHERE user_id = $1", userID)
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
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		for key, value := range values {
			if _, err := q.Exec(ctx, `
        INSERT INTO payment_settings (user_id, key, value)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
      `, userID, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}
