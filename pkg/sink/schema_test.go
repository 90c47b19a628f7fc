package sink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loadbridge/loadbridge/pkg/apperrors"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
	"github.com/loadbridge/loadbridge/pkg/stream"
)

func parseSchema(t *testing.T, raw string) stream.Schema {
	t.Helper()
	var s stream.Schema
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return s
}

func TestBuildTableSchema(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"OrderID": {"type": "integer"},
			"CustomerName": {"type": "string", "maxLength": 100},
			"OrderDate": {"type": "string", "format": "date-time"},
			"Total": {"type": "number"}
		}
	}`)

	desired, err := BuildTableSchema(schema, []string{"OrderID"}, false)
	require.NoError(t, err)

	assert.Equal(t, []sqltype.Column{
		{Name: "order_id", Type: sqltype.Integer()},
		{Name: "customer_name", Type: sqltype.BoundedText(100)},
		{Name: "order_date", Type: sqltype.Timestamp()},
		{Name: "total", Type: sqltype.Decimal(sqltype.DefaultDecimalPrecision, sqltype.DefaultDecimalScale)},
	}, desired.Columns)
	assert.Equal(t, []string{"order_id"}, desired.PrimaryKeys)
}

func TestBuildTableSchema_Collision(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"CustomerID": {"type": "integer"},
			"customer_id": {"type": "string"}
		}
	}`)

	_, err := BuildTableSchema(schema, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrColumnCollision)
	assert.Contains(t, err.Error(), "customer_id")
}

func TestBuildTableSchema_KeyNotInSchema(t *testing.T) {
	schema := parseSchema(t, `{"properties": {"name": {"type": "string"}}}`)

	_, err := BuildTableSchema(schema, []string{"id"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"id"`)
}

func TestBuildTableSchema_Empty(t *testing.T) {
	desired, err := BuildTableSchema(stream.Schema{}, nil, false)
	require.NoError(t, err)
	assert.Empty(t, desired.Columns)
	assert.Empty(t, desired.PrimaryKeys)
}
