package notifications

import (
	"context"
	"log/slog"
	"strings"

	"hrsaas/internal/domain/settings"
	"hrsaas/internal/platform/listing"
)

const jobEmail = "notification_email"

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type SettingsSource interface {
	Resolve(ctx context.Context, userID string) (map[string]string, error)
}

// Dispatcher runs mail delivery off the request path.
type Dispatcher interface {
	Enqueue(jobType, ownerID string, run func(context.Context) (any, error))
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	Settings    SettingsSource
	Dispatch    Dispatcher
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, settings SettingsSource, dispatch Dispatcher) *Service {
	return &Service{store: store, Mailer: mailer, Settings: settings, Dispatch: dispatch, DefaultFrom: "no-reply@example.com"}
}

type Summary struct {
	Unread int `json:"unread"`
}

// Notify stores an in-app notification for userID and, when the owning
// company has email notifications on, mails a copy. Mail problems are
// logged and never fail the call.
func (s *Service) Notify(ctx context.Context, ownerID, userID, ntype, title, body string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	if err := s.store.Create(ctx, ownerID, userID, ntype, title, body); err != nil {
		return err
	}
	if s.Mailer == nil || s.Settings == nil {
		return nil
	}

	values, err := s.Settings.Resolve(ctx, ownerID)
	if err != nil {
		slog.Warn("notification settings lookup failed", "ownerId", ownerID, "err", err)
		return nil
	}
	if values[settings.KeyEmailNotifications] != settings.On {
		return nil
	}
	from := values[settings.KeyMailFromAddress]
	if from == "" {
		from = s.DefaultFrom
	}

	email, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "userId", userID, "err", err)
		return nil
	}
	if email == "" {
		return nil
	}

	send := func(ctx context.Context) (any, error) {
		return map[string]string{"to": email, "type": ntype}, s.Mailer.Send(ctx, from, email, title, body)
	}
	if s.Dispatch != nil {
		s.Dispatch.Enqueue(jobEmail, ownerID, send)
		return nil
	}
	if _, err := send(ctx); err != nil {
		slog.Warn("notification email send failed", "userId", userID, "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, q listing.Query) (listing.Page[Notification], error) {
	items, total, err := s.store.List(ctx, userID, unreadOnly, q)
	if err != nil {
		return listing.Page[Notification]{}, err
	}
	return listing.Page[Notification]{Items: items, Meta: listing.NewMeta(q, total)}, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	unread, err := s.store.Unread(ctx, userID)
	return Summary{Unread: unread}, err
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}
