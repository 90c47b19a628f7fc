package target

import (
	"fmt"
	"strings"
)

// TableName is a parsed, unquoted table reference. Catalog and Schema may be
// empty when the target resolves them from the session.
type TableName struct {
	Catalog string
	Schema  string
	Table   string
}

// String renders the dotted, unquoted form.
func (t TableName) String() string {
	parts := make([]string, 0, 3)
	if t.Catalog != "" {
		parts = append(parts, t.Catalog)
	}
	if t.Schema != "" {
		parts = append(parts, t.Schema)
	}
	parts = append(parts, t.Table)
	return strings.Join(parts, ".")
}

// WithSuffix appends a suffix to the unqualified table part only, leaving
// any catalog or schema qualification untouched. Used to derive staging
// table names.
func (t TableName) WithSuffix(suffix string) TableName {
	t.Table += suffix
	return t
}

// ParseTableName splits a dotted table reference into up to three parts,
// stripping the given quote runes from each part. Dialects wrap this with
// their own quote characters.
func ParseTableName(full string, quotes string) (TableName, error) {
	cleaned := full
	for _, q := range quotes {
		cleaned = strings.ReplaceAll(cleaned, string(q), "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return TableName{}, fmt.Errorf("empty table name")
	}

	parts := strings.Split(cleaned, ".")
	switch len(parts) {
	case 1:
		return TableName{Table: parts[0]}, nil
	case 2:
		return TableName{Schema: parts[0], Table: parts[1]}, nil
	case 3:
		return TableName{Catalog: parts[0], Schema: parts[1], Table: parts[2]}, nil
	default:
		return TableName{}, fmt.Errorf("table name %q has too many parts", full)
	}
}
