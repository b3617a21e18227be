package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
	"hrsaas/internal/requestctx"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionStatus = "status"
)

type Event struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"ownerId"`
	ActorID    string          `json:"actorId"`
	ActorName  string          `json:"actorName"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Recorder is the write side used by handlers after a mutation.
type Recorder interface {
	Record(ctx context.Context, ownerID, actorID, action, entityType, entityID string, before, after any) error
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

var _ Recorder = (*Service)(nil)

// Record stores one mutation. Request id and client IP come from ctx.
func (s *Service) Record(ctx context.Context, ownerID, actorID, action, entityType, entityID string, before, after any) error {
	beforeJSON, err := marshalState(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalState(after)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (owner_id, actor_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, ownerID, actorID, action, entityType, entityID, beforeJSON, afterJSON,
		requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx))
	return err
}

func marshalState(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

var sorts = map[string]string{
	"createdAt":  "e.created_at",
	"action":     "e.action",
	"entityType": "e.entity_type",
}

// List pages events newest first. An empty ownerID lists every tenant.
// Supported filters: action, entity_type, actor_id.
func (s *Service) List(ctx context.Context, ownerID string, q listing.Query, includeDetails bool) (listing.Page[Event], error) {
	where := &listing.Where{}
	if ownerID != "" {
		where.Add("e.owner_id::text = ?", ownerID)
	}
	if v := q.Filter("action"); v != "" {
		where.Add("e.action = ?", v)
	}
	if v := q.Filter("entity_type"); v != "" {
		where.Add("e.entity_type = ?", v)
	}
	if v := q.Filter("actor_id"); v != "" {
		where.Add("e.actor_id::text = ?", v)
	}
	where.Search(q.Search, "e.entity_type", "e.entity_id", "e.action", "u.name")

	from := " FROM audit_events e LEFT JOIN users u ON u.id = e.actor_id"
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+from+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return listing.Page[Event]{}, err
	}

	cols := "e.id, e.owner_id, e.actor_id, COALESCE(u.name, ''), e.action, e.entity_type, e.entity_id, e.request_id, e.ip, e.created_at"
	if includeDetails {
		cols += ", e.before_json, e.after_json"
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, sorts, "e.created_at")
	rows, err := s.DB.Query(ctx, "SELECT "+cols+from+where.SQL()+page, args...)
	if err != nil {
		return listing.Page[Event]{}, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		evt, err := scanEvent(rows, includeDetails)
		if err != nil {
			return listing.Page[Event]{}, err
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Event]{}, err
	}
	return listing.Page[Event]{Items: out, Meta: listing.NewMeta(q, total)}, nil
}

func scanEvent(row pgx.Row, details bool) (Event, error) {
	var evt Event
	dest := []any{&evt.ID, &evt.OwnerID, &evt.ActorID, &evt.ActorName, &evt.Action, &evt.EntityType,
		&evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
	if details {
		dest = append(dest, &evt.Before, &evt.After)
	}
	err := row.Scan(dest...)
	return evt, err
}
