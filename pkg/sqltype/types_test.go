package sqltype

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loadbridge/loadbridge/pkg/stream"
)

func property(t *testing.T, raw string) stream.Property {
	t.Helper()
	var p stream.Property
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestMap(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		expected ColumnType
	}{
		{
			name:     "string with date-time format",
			fragment: `{"type": "string", "format": "date-time"}`,
			expected: Timestamp(),
		},
		{
			name:     "string with time format",
			fragment: `{"type": "string", "format": "time"}`,
			expected: Timestamp(),
		},
		{
			name:     "string with date format",
			fragment: `{"type": "string", "format": "date"}`,
			expected: Date(),
		},
		{
			name:     "string without maximum",
			fragment: `{"type": "string"}`,
			expected: UnboundedText(),
		},
		{
			name:     "string with small maximum",
			fragment: `{"type": "string", "maxLength": 120}`,
			expected: BoundedText(120),
		},
		{
			name:     "string with oversized maximum",
			fragment: `{"type": "string", "maxLength": 64000}`,
			expected: UnboundedText(),
		},
		{
			name:     "nullable string keeps the string rule",
			fragment: `{"type": ["string", "null"], "maxLength": 50}`,
			expected: BoundedText(50),
		},
		{
			name:     "integer",
			fragment: `{"type": "integer"}`,
			expected: Integer(),
		},
		{
			name:     "number defaults to decimal",
			fragment: `{"type": "number"}`,
			expected: Decimal(DefaultDecimalPrecision, DefaultDecimalScale),
		},
		{
			name:     "boolean becomes a one-character flag",
			fragment: `{"type": "boolean"}`,
			expected: FixedChar(1),
		},
		{
			name:     "object serializes to unbounded text",
			fragment: `{"type": "object"}`,
			expected: UnboundedText(),
		},
		{
			name:     "array serializes to unbounded text",
			fragment: `{"type": "array"}`,
			expected: UnboundedText(),
		},
		{
			name:     "untyped fragment falls back to max bounded text",
			fragment: `{}`,
			expected: BoundedText(MaxBoundedLength),
		},
		{
			name:     "anyOf date-time branch wins over plain string",
			fragment: `{"anyOf": [{"type": "string", "format": "date-time"}, {"type": "null"}]}`,
			expected: Timestamp(),
		},
		{
			name:     "string rule outranks integer in a union",
			fragment: `{"type": ["integer", "string"]}`,
			expected: UnboundedText(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Map(property(t, tt.fragment), false))
		})
	}
}

func TestMap_PreferFloat(t *testing.T) {
	p := property(t, `{"type": "number"}`)
	assert.Equal(t, Float(), Map(p, true))
	assert.Equal(t, Decimal(DefaultDecimalPrecision, DefaultDecimalScale), Map(p, false))

	// The preference only affects numbers.
	assert.Equal(t, Integer(), Map(property(t, `{"type": "integer"}`), true))
}

func TestColumnType_String(t *testing.T) {
	assert.Equal(t, "bounded-text(255)", BoundedText(255).String())
	assert.Equal(t, "decimal(38,10)", Decimal(38, 10).String())
	assert.Equal(t, "timestamp", Timestamp().String())
}

func TestTableSchema_Column(t *testing.T) {
	schema := &TableSchema{
		Columns: []Column{
			{Name: "id", Type: Integer()},
			{Name: "name", Type: BoundedText(100)},
		},
		PrimaryKeys: []string{"id"},
	}

	typ, ok := schema.Column("name")
	require.True(t, ok)
	assert.Equal(t, BoundedText(100), typ)

	_, ok = schema.Column("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"id", "name"}, schema.ColumnNames())
}
