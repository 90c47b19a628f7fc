package sink

import (
	"encoding/json"
	"math"
	"time"

	"github.com/loadbridge/loadbridge/pkg/conform"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// coerceValue shapes a raw record value for a column's abstract type so the
// driver can bind it. Nil stays nil. Values that do not fit the expected
// shape pass through unchanged and the database gets the final say.
func coerceValue(t sqltype.ColumnType, value any) any {
	if value == nil {
		return nil
	}

	switch t.Family {
	case sqltype.FamilyTimestamp:
		if s, ok := value.(string); ok {
			for _, layout := range timestampLayouts {
				if ts, err := time.Parse(layout, s); err == nil {
					return ts
				}
			}
		}
	case sqltype.FamilyDate:
		if s, ok := value.(string); ok {
			if d, err := time.Parse("2006-01-02", s); err == nil {
				return d
			}
			for _, layout := range timestampLayouts {
				if ts, err := time.Parse(layout, s); err == nil {
					return ts
				}
			}
		}
	case sqltype.FamilyFixedChar:
		// Booleans land in one-character flag columns.
		if b, ok := value.(bool); ok {
			if b {
				return "T"
			}
			return "F"
		}
	case sqltype.FamilyInteger:
		if f, ok := value.(float64); ok && f == math.Trunc(f) {
			return int64(f)
		}
	case sqltype.FamilyUnboundedText, sqltype.FamilyBoundedText:
		switch value.(type) {
		case map[string]any, []any:
			if encoded, err := json.Marshal(value); err == nil {
				return string(encoded)
			}
		}
	}

	return value
}

// rowValues extracts one bind-ready value per schema column from a raw
// record. Record fields are matched by conformed name; fields absent from
// the record bind as nil.
func rowValues(desired *sqltype.TableSchema, record map[string]any) []any {
	conformed := make(map[string]any, len(record))
	for field, value := range record {
		conformed[conform.Name(field)] = value
	}

	values := make([]any, len(desired.Columns))
	for i, col := range desired.Columns {
		values[i] = coerceValue(col.Type, conformed[col.Name])
	}
	return values
}
