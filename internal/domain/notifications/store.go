package notifications

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

func (s *Store) Create(ctx context.Context, ownerID, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (owner_id, user_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, ownerID, userID, ntype, title, body)
	return err
}

func (s *Store) UserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE id::text = $1 AND status = 'active'", userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return email, err
}

var sorts = map[string]string{
	"createdAt": "created_at",
	"type":      "type",
}

func (s *Store) List(ctx context.Context, userID string, unreadOnly bool, q listing.Query) ([]Notification, int, error) {
	where := listing.NewWhere("user_id::text = ?", userID)
	where.Search(q.Search, "title", "body")
	if unreadOnly {
		where.Add("read_at IS NULL")
	}
	if t := q.Filter("type"); t != "" {
		where.Add("type = ?", t)
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications"+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, sorts, "created_at")
	rows, err := s.DB.Query(ctx, "SELECT id, type, title, body, read_at, created_at FROM notifications"+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (s *Store) Unread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications WHERE user_id::text = $1 AND read_at IS NULL", userID).Scan(&count)
	return count, err
}

func (s *Store) MarkRead(ctx context.Context, userID, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE user_id::text = $1 AND id::text = $2
  `, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE notifications SET read_at = now() WHERE user_id::text = $1 AND read_at IS NULL", userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
