package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/platform/querier"
	"hrsaas/internal/requestctx"
)

type recordingDB struct {
	querier.Querier
	sql  string
	args []any
}

func (r *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestRecordStampsRequestMetadata(t *testing.T) {
	db := &recordingDB{}
	svc := New(db)
	ctx := requestctx.WithClientIP(requestctx.WithRequestID(context.Background(), "req-1"), "10.0.0.9")

	err := svc.Record(ctx, "owner", "actor", ActionUpdate, "complaint", "c1",
		map[string]string{"status": "submitted"}, map[string]string{"status": "resolved"})
	require.NoError(t, err)

	assert.Contains(t, db.sql, "INSERT INTO audit_events")
	require.Len(t, db.args, 9)
	assert.Equal(t, "owner", db.args[0])
	assert.Equal(t, "actor", db.args[1])
	assert.Equal(t, "req-1", db.args[7])
	assert.Equal(t, "10.0.0.9", db.args[8])

	var after map[string]string
	require.NoError(t, json.Unmarshal(db.args[6].([]byte), &after))
	assert.Equal(t, "resolved", after["status"])
}

func TestRecordOmitsNilState(t *testing.T) {
	db := &recordingDB{}
	require.NoError(t, New(db).Record(context.Background(), "o", "a", ActionDelete, "trip", "t1", nil, nil))
	assert.Nil(t, db.args[5])
	assert.Nil(t, db.args[6])
	assert.Equal(t, "", db.args[7])
}
