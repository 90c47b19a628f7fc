package postgres

import (
	"fmt"
	"strings"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

// Dialect renders load operations as PostgreSQL SQL. The upsert uses
// INSERT ... ON CONFLICT against the table's primary-key constraint rather
// than MERGE, so it works on every supported server version.
type Dialect struct{}

// Name returns the registry key.
func (Dialect) Name() string {
	return "postgres"
}

// ParseTableName splits a possibly schema-qualified, possibly double-quoted
// table reference.
func (Dialect) ParseTableName(full string) (target.TableName, error) {
	return target.ParseTableName(full, `"`)
}

// QuoteIdentifier returns the identifier unquoted. Conformed identifiers are
// already lowercase and safe, which is exactly how unquoted identifiers fold.
func (Dialect) QuoteIdentifier(name string) string {
	return name
}

// CompileType renders a descriptor in PostgreSQL's type syntax.
func (Dialect) CompileType(t sqltype.ColumnType) string {
	switch t.Family {
	case sqltype.FamilyUnboundedText:
		return "TEXT"
	case sqltype.FamilyBoundedText:
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	case sqltype.FamilyFixedChar:
		return fmt.Sprintf("CHAR(%d)", t.Length)
	case sqltype.FamilyTimestamp:
		return "TIMESTAMP"
	case sqltype.FamilyDate:
		return "DATE"
	case sqltype.FamilyInteger:
		return "BIGINT"
	case sqltype.FamilyDecimal:
		return fmt.Sprintf("NUMERIC(%d, %d)", t.Precision, t.Scale)
	case sqltype.FamilyFloat:
		return "DOUBLE PRECISION"
	default:
		return fmt.Sprintf("VARCHAR(%d)", sqltype.MaxBoundedLength)
	}
}

// CreateTableSQL creates the table with columns in schema order and, when
// keys are declared, a primary-key constraint named <table>_PK.
func (d Dialect) CreateTableSQL(tbl target.TableName, schema *sqltype.TableSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", tbl)
	for i, col := range schema.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "    %s %s", col.Name, d.CompileType(col.Type))
	}
	if len(schema.PrimaryKeys) > 0 {
		fmt.Fprintf(&b, ",\n    CONSTRAINT %s_PK PRIMARY KEY (%s)",
			tbl.Table, strings.Join(schema.PrimaryKeys, ", "))
	}
	b.WriteString("\n)")
	return b.String()
}

// AddColumnSQL appends one column to an existing table.
func (d Dialect) AddColumnSQL(tbl target.TableName, col sqltype.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", tbl, col.Name, d.CompileType(col.Type))
}

// AlterColumnTypeSQL widens one column to the given type. Every widening the
// merger produces has an implicit cast, so no USING clause is needed.
func (d Dialect) AlterColumnTypeSQL(tbl target.TableName, col sqltype.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", tbl, col.Name, d.CompileType(col.Type))
}

// CreateStagingSQL materializes an empty clone of the source table's column
// set. CREATE TABLE AS carries no constraints.
func (Dialect) CreateStagingSQL(staging, from target.TableName) string {
	return fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s WHERE 1=0", staging, from)
}

// DropTableSQL drops the table.
func (Dialect) DropTableSQL(tbl target.TableName) string {
	return fmt.Sprintf("DROP TABLE %s", tbl)
}

// InsertSQL builds a single-row insert with PostgreSQL placeholders.
func (Dialect) InsertSQL(tbl target.TableName, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tbl, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// MergeSQL upserts staging rows into the target through the primary-key
// constraint: matching rows update every non-key column, the rest insert.
func (Dialect) MergeSQL(tbl, staging target.TableName, columns, keys []string) string {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}

	var updates []string
	for _, c := range columns {
		if !keySet[c] {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}

	colList := strings.Join(columns, ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s)\nSELECT %s FROM %s\nON CONFLICT (%s) ",
		tbl, colList, colList, staging, strings.Join(keys, ", "))
	if len(updates) > 0 {
		fmt.Fprintf(&b, "DO UPDATE SET %s", strings.Join(updates, ", "))
	} else {
		b.WriteString("DO NOTHING")
	}
	return b.String()
}

// Ensure Dialect implements target.Dialect at compile time.
var _ target.Dialect = Dialect{}
