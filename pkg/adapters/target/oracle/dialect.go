package oracle

import (
	"fmt"
	"strings"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

// Dialect renders load operations as Oracle SQL.
type Dialect struct{}

// Name returns the registry key.
func (Dialect) Name() string {
	return "oracle"
}

// ParseTableName splits a possibly schema-qualified, possibly double-quoted
// table reference.
func (Dialect) ParseTableName(full string) (target.TableName, error) {
	return target.ParseTableName(full, `"`)
}

// QuoteIdentifier returns the identifier unquoted. Conformed identifiers are
// already safe, and quoting would make them case-sensitive in the data
// dictionary while unquoted DDL folds to uppercase.
func (Dialect) QuoteIdentifier(name string) string {
	return name
}

// CompileType renders a descriptor in Oracle's type syntax.
func (Dialect) CompileType(t sqltype.ColumnType) string {
	switch t.Family {
	case sqltype.FamilyUnboundedText:
		return "CLOB"
	case sqltype.FamilyBoundedText:
		return fmt.Sprintf("VARCHAR2(%d)", t.Length)
	case sqltype.FamilyFixedChar:
		return fmt.Sprintf("CHAR(%d)", t.Length)
	case sqltype.FamilyTimestamp:
		return "TIMESTAMP"
	case sqltype.FamilyDate:
		return "DATE"
	case sqltype.FamilyInteger:
		return "INTEGER"
	case sqltype.FamilyDecimal:
		return fmt.Sprintf("NUMBER(%d, %d)", t.Precision, t.Scale)
	case sqltype.FamilyFloat:
		return "FLOAT"
	default:
		return fmt.Sprintf("VARCHAR2(%d)", sqltype.MaxBoundedLength)
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
	return fmt.Sprintf("ALTER TABLE %s ADD %s %s", tbl, col.Name, d.CompileType(col.Type))
}

// AlterColumnTypeSQL widens one column to the given type.
func (d Dialect) AlterColumnTypeSQL(tbl target.TableName, col sqltype.Column) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY (%s %s)", tbl, col.Name, d.CompileType(col.Type))
}

// CreateStagingSQL materializes an empty clone of the source table's column
// set. CREATE TABLE AS SELECT carries no primary-key or index constraints.
func (Dialect) CreateStagingSQL(staging, from target.TableName) string {
	return fmt.Sprintf("CREATE TABLE %s AS (SELECT * FROM %s WHERE 1=0)", staging, from)
}

// DropTableSQL drops the table.
func (Dialect) DropTableSQL(tbl target.TableName) string {
	return fmt.Sprintf("DROP TABLE %s", tbl)
}

// InsertSQL builds a single-row insert with Oracle ordinal placeholders.
func (Dialect) InsertSQL(tbl target.TableName, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf(":%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tbl, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// MergeSQL joins staging to target on every key column, updates all non-key
// columns on match and inserts all columns otherwise.
func (Dialect) MergeSQL(tbl, staging target.TableName, columns, keys []string) string {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}

	joins := make([]string, len(keys))
	for i, k := range keys {
		joins[i] = fmt.Sprintf("temp.%s = target.%s", k, k)
	}

	var updates []string
	for _, c := range columns {
		if !keySet[c] {
			updates = append(updates, fmt.Sprintf("target.%s = temp.%s", c, c))
		}
	}

	sources := make([]string, len(columns))
	for i, c := range columns {
		sources[i] = "temp." + c
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s target\nUSING %s temp\nON (%s)\n",
		tbl, staging, strings.Join(joins, " AND "))
	if len(updates) > 0 {
		fmt.Fprintf(&b, "WHEN MATCHED THEN\n    UPDATE SET %s\n", strings.Join(updates, ", "))
	}
	fmt.Fprintf(&b, "WHEN NOT MATCHED THEN\n    INSERT (%s)\n    VALUES (%s)",
		strings.Join(columns, ", "), strings.Join(sources, ", "))
	return b.String()
}

// Ensure Dialect implements target.Dialect at compile time.
var _ target.Dialect = Dialect{}
