package notifications

import (
	"context"
	"errors"
	"time"

	"hrsaas/internal/platform/listing"
)

var ErrNotFound = errors.New("notification not found")

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

type StoreAPI interface {
	Create(ctx context.Context, ownerID, userID, ntype, title, body string) error
	UserEmail(ctx context.Context, userID string) (string, error)
	List(ctx context.Context, userID string, unreadOnly bool, q listing.Query) ([]Notification, int, error)
	Unread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
