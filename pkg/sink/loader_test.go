package sink_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	_ "github.com/loadbridge/loadbridge/pkg/adapters/target/postgres"
	"github.com/loadbridge/loadbridge/pkg/apperrors"
	"github.com/loadbridge/loadbridge/pkg/sink"
	"github.com/loadbridge/loadbridge/pkg/stream"
	"github.com/loadbridge/loadbridge/pkg/testhelpers"
)

func openTestTarget(t *testing.T) target.Conn {
	t.Helper()

	db := testhelpers.GetTargetDB(t)
	conn, err := target.Open(context.Background(), "postgres", db.ConfigMap(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func testBatch(t *testing.T, streamName, schemaJSON string, keys []string, records []map[string]any) *stream.Batch {
	t.Helper()

	var schema stream.Schema
	require.NoError(t, json.Unmarshal([]byte(schemaJSON), &schema))
	return &stream.Batch{
		Stream:        streamName,
		Schema:        schema,
		KeyProperties: keys,
		Records:       stream.NewSliceRecords(records),
	}
}

const ordersSchema = `{
	"properties": {
		"id": {"type": "integer"},
		"customer": {"type": "string", "maxLength": 100},
		"total": {"type": "number"}
	}
}`

func TestLoader_MergeUpsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	conn := openTestTarget(t)
	loader := sink.NewLoader(conn, sink.Options{
		Policy: sink.Policy{AllowColumnAdd: true, AllowColumnAlter: true},
	}, zaptest.NewLogger(t))
	ctx := context.Background()

	batch := testBatch(t, "loader_orders", ordersSchema, []string{"id"}, []map[string]any{
		{"id": float64(1), "customer": "Ada", "total": 10.0},
		{"id": float64(2), "customer": "Grace", "total": 20.0},
		{"id": float64(1), "customer": "Ada", "total": 12.0},
	})
	require.NoError(t, loader.Load(ctx, batch))

	// Intra-batch duplicates collapse, last writer wins.
	assert.Equal(t, 2, countRows(t, conn, "loader_orders"))
	assert.Equal(t, "12.0000000000", scalar(t, conn,
		"SELECT total::text FROM loader_orders WHERE id = 1"))

	// A replayed batch upserts instead of duplicating.
	replay := testBatch(t, "loader_orders", ordersSchema, []string{"id"}, []map[string]any{
		{"id": float64(2), "customer": "Grace", "total": 25.0},
		{"id": float64(3), "customer": "Alan", "total": 30.0},
	})
	require.NoError(t, loader.Load(ctx, replay))

	assert.Equal(t, 3, countRows(t, conn, "loader_orders"))
	assert.Equal(t, "25.0000000000", scalar(t, conn,
		"SELECT total::text FROM loader_orders WHERE id = 2"))

	// The staging table is gone after the merge.
	exists, err := conn.TableExists(ctx, target.TableName{Table: "loader_orders_temp"})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoader_KeylessAppend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	conn := openTestTarget(t)
	loader := sink.NewLoader(conn, sink.Options{
		Policy: sink.Policy{AllowColumnAdd: true, AllowColumnAlter: true},
	}, zaptest.NewLogger(t))
	ctx := context.Background()

	schemaJSON := `{"properties": {"event": {"type": "string", "maxLength": 50}}}`
	batch := testBatch(t, "loader_events", schemaJSON, nil, []map[string]any{
		{"event": "start"},
		{"event": "start"},
	})
	require.NoError(t, loader.Load(ctx, batch))

	// Keyless streams append, duplicates included.
	replay := testBatch(t, "loader_events", schemaJSON, nil, []map[string]any{
		{"event": "start"},
	})
	require.NoError(t, loader.Load(ctx, replay))

	assert.Equal(t, 3, countRows(t, conn, "loader_events"))
}

func TestLoader_SchemaEvolution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	conn := openTestTarget(t)
	loader := sink.NewLoader(conn, sink.Options{
		Policy: sink.Policy{AllowColumnAdd: true, AllowColumnAlter: true},
	}, zaptest.NewLogger(t))
	ctx := context.Background()

	v1 := testBatch(t, "loader_customers",
		`{"properties": {"id": {"type": "integer"}, "name": {"type": "string", "maxLength": 30}}}`,
		[]string{"id"},
		[]map[string]any{{"id": float64(1), "name": "Ada"}})
	require.NoError(t, loader.Load(ctx, v1))

	// The next batch widens name and introduces email.
	v2 := testBatch(t, "loader_customers",
		`{"properties": {"id": {"type": "integer"}, "name": {"type": "string", "maxLength": 100}, "email": {"type": "string", "maxLength": 255}}}`,
		[]string{"id"},
		[]map[string]any{{"id": float64(2), "name": "Grace", "email": "grace@example.com"}})
	require.NoError(t, loader.Load(ctx, v2))

	columns, err := conn.Columns(ctx, target.TableName{Table: "loader_customers"})
	require.NoError(t, err)

	byName := map[string]string{}
	for _, col := range columns {
		byName[col.Name] = col.Type.String()
	}
	assert.Equal(t, "bounded-text(100)", byName["name"])
	assert.Equal(t, "bounded-text(255)", byName["email"])

	// Earlier rows survive evolution with the new column null.
	assert.Equal(t, 2, countRows(t, conn, "loader_customers"))
	assert.Equal(t, "", scalar(t, conn,
		"SELECT COALESCE(email, '') FROM loader_customers WHERE id = 1"))
}

// The evolution policy handed to NewLoader must reach the reconciler.
func TestLoader_PolicyDeniesColumnAdd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	conn := openTestTarget(t)
	ctx := context.Background()

	permissive := sink.NewLoader(conn, sink.Options{
		Policy: sink.Policy{AllowColumnAdd: true, AllowColumnAlter: true},
	}, zaptest.NewLogger(t))
	v1 := testBatch(t, "loader_locked",
		`{"properties": {"id": {"type": "integer"}}}`,
		[]string{"id"},
		[]map[string]any{{"id": float64(1)}})
	require.NoError(t, permissive.Load(ctx, v1))

	locked := sink.NewLoader(conn, sink.Options{
		Policy: sink.Policy{AllowColumnAdd: false, AllowColumnAlter: true},
	}, zaptest.NewLogger(t))
	v2 := testBatch(t, "loader_locked",
		`{"properties": {"id": {"type": "integer"}, "extra": {"type": "string"}}}`,
		[]string{"id"},
		[]map[string]any{{"id": float64(2), "extra": "nope"}})

	err := locked.Load(ctx, v2)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrColumnAddNotAllowed)
	assert.Equal(t, 1, countRows(t, conn, "loader_locked"))
}

func countRows(t *testing.T, conn target.Conn, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.DB().QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n))
	return n
}

func scalar(t *testing.T, conn target.Conn, query string) string {
	t.Helper()
	var s string
	require.NoError(t, conn.DB().QueryRow(query).Scan(&s))
	return s
}
