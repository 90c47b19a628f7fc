package mssql

import (
	"fmt"
	"strings"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

// Dialect renders load operations as SQL Server SQL.
type Dialect struct{}

// Name returns the registry key.
func (Dialect) Name() string {
	return "mssql"
}

// ParseTableName splits a possibly schema-qualified, possibly bracketed
// table reference.
func (Dialect) ParseTableName(full string) (target.TableName, error) {
	return target.ParseTableName(full, `[]"`)
}

// QuoteIdentifier quotes an identifier the QUOTENAME way: square brackets
// with ] escaped as ]].
func (Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}

// qualify renders a bracketed, qualified table reference.
func (d Dialect) qualify(tbl target.TableName) string {
	parts := make([]string, 0, 3)
	if tbl.Catalog != "" {
		parts = append(parts, d.QuoteIdentifier(tbl.Catalog))
	}
	if tbl.Schema != "" {
		parts = append(parts, d.QuoteIdentifier(tbl.Schema))
	}
	parts = append(parts, d.QuoteIdentifier(tbl.Table))
	return strings.Join(parts, ".")
}

// CompileType renders a descriptor in SQL Server's type syntax.
func (Dialect) CompileType(t sqltype.ColumnType) string {
	switch t.Family {
	case sqltype.FamilyUnboundedText:
		return "NVARCHAR(MAX)"
	case sqltype.FamilyBoundedText:
		return fmt.Sprintf("NVARCHAR(%d)", t.Length)
	case sqltype.FamilyFixedChar:
		return fmt.Sprintf("CHAR(%d)", t.Length)
	case sqltype.FamilyTimestamp:
		return "DATETIME2"
	case sqltype.FamilyDate:
		return "DATE"
	case sqltype.FamilyInteger:
		return "BIGINT"
	case sqltype.FamilyDecimal:
		return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale)
	case sqltype.FamilyFloat:
		return "FLOAT"
	default:
		return fmt.Sprintf("NVARCHAR(%d)", sqltype.MaxBoundedLength)
	}
}

// CreateTableSQL creates the table with columns in schema order and, when
// keys are declared, a primary-key constraint named <table>_PK.
func (d Dialect) CreateTableSQL(tbl target.TableName, schema *sqltype.TableSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", d.qualify(tbl))
	for i, col := range schema.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "    %s %s", d.QuoteIdentifier(col.Name), d.CompileType(col.Type))
	}
	if len(schema.PrimaryKeys) > 0 {
		keys := make([]string, len(schema.PrimaryKeys))
		for i, k := range schema.PrimaryKeys {
			keys[i] = d.QuoteIdentifier(k)
		}
		fmt.Fprintf(&b, ",\n    CONSTRAINT %s PRIMARY KEY (%s)",
			d.QuoteIdentifier(tbl.Table+"_PK"), strings.Join(keys, ", "))
	}
	b.WriteString("\n)")
	return b.String()
}

// AddColumnSQL appends one column to an existing table.
func (d Dialect) AddColumnSQL(tbl target.TableName, col sqltype.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s %s",
		d.qualify(tbl), d.QuoteIdentifier(col.Name), d.CompileType(col.Type))
}

// AlterColumnTypeSQL widens one column to the given type.
func (d Dialect) AlterColumnTypeSQL(tbl target.TableName, col sqltype.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s",
		d.qualify(tbl), d.QuoteIdentifier(col.Name), d.CompileType(col.Type))
}

// CreateStagingSQL materializes an empty clone of the source table's column
// set. SELECT INTO carries no constraints.
func (d Dialect) CreateStagingSQL(staging, from target.TableName) string {
	return fmt.Sprintf("SELECT * INTO %s FROM %s WHERE 1=0",
		d.qualify(staging), d.qualify(from))
}

// DropTableSQL drops the table.
func (d Dialect) DropTableSQL(tbl target.TableName) string {
	return fmt.Sprintf("DROP TABLE %s", d.qualify(tbl))
}

// InsertSQL builds a single-row insert with SQL Server placeholders.
func (d Dialect) InsertSQL(tbl target.TableName, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.qualify(tbl), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// MergeSQL joins staging to target on every key column, updates all non-key
// columns on match and inserts all columns otherwise. HOLDLOCK keeps the
// match-then-act sequence atomic against concurrent writers.
func (d Dialect) MergeSQL(tbl, staging target.TableName, columns, keys []string) string {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}

	joins := make([]string, len(keys))
	for i, k := range keys {
		joins[i] = fmt.Sprintf("temp.%s = target.%s", d.QuoteIdentifier(k), d.QuoteIdentifier(k))
	}

	var updates []string
	quoted := make([]string, len(columns))
	sources := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
		sources[i] = "temp." + d.QuoteIdentifier(c)
		if !keySet[c] {
			updates = append(updates, fmt.Sprintf("target.%s = temp.%s",
				d.QuoteIdentifier(c), d.QuoteIdentifier(c)))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s WITH (HOLDLOCK) AS target\nUSING %s AS temp\nON (%s)\n",
		d.qualify(tbl), d.qualify(staging), strings.Join(joins, " AND "))
	if len(updates) > 0 {
		fmt.Fprintf(&b, "WHEN MATCHED THEN\n    UPDATE SET %s\n", strings.Join(updates, ", "))
	}
	fmt.Fprintf(&b, "WHEN NOT MATCHED THEN\n    INSERT (%s)\n    VALUES (%s);",
		strings.Join(quoted, ", "), strings.Join(sources, ", "))
	return b.String()
}

// Ensure Dialect implements target.Dialect at compile time.
var _ target.Dialect = Dialect{}
