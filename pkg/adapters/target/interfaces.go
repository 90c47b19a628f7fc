package target

import (
	"context"
	"database/sql"

	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

// Dialect compiles abstract column descriptors and load operations into one
// target system's SQL text. Implementations are stateless.
type Dialect interface {
	// Name returns the registry key, e.g. "oracle".
	Name() string

	// ParseTableName splits a possibly qualified, possibly quoted table name
	// into its parts.
	ParseTableName(full string) (TableName, error)

	// QuoteIdentifier safely quotes a table or column identifier.
	QuoteIdentifier(name string) string

	// CompileType renders a descriptor in the dialect's literal type syntax.
	CompileType(t sqltype.ColumnType) string

	// CreateTableSQL creates the table with the schema's columns in order
	// and, when primary keys are declared, a constraint named <table>_PK.
	CreateTableSQL(tbl TableName, schema *sqltype.TableSchema) string

	// AddColumnSQL appends one column to an existing table.
	AddColumnSQL(tbl TableName, col sqltype.Column) string

	// AlterColumnTypeSQL widens one column to the given type.
	AlterColumnTypeSQL(tbl TableName, col sqltype.Column) string

	// CreateStagingSQL materializes an empty, constraint-free clone of the
	// source table's column set under the staging name.
	CreateStagingSQL(staging, from TableName) string

	// DropTableSQL drops the table.
	DropTableSQL(tbl TableName) string

	// InsertSQL builds a single-row insert with the dialect's bind
	// placeholders, one per column.
	InsertSQL(tbl TableName, columns []string) string

	// MergeSQL builds one statement that joins staging to target on every
	// key column, updates all non-key columns on match and inserts all
	// columns otherwise. When every column is a key the update branch is
	// omitted.
	MergeSQL(tbl, staging TableName, columns, keys []string) string
}

// Conn is an open connection to one target database. Each implementation
// owns its *sql.DB and must be closed when done.
type Conn interface {
	// Dialect returns the SQL dialect for this target.
	Dialect() Dialect

	// DB exposes the underlying handle for statement execution and
	// transactions.
	DB() *sql.DB

	// TableExists reports whether the table is present.
	TableExists(ctx context.Context, tbl TableName) (bool, error)

	// Columns introspects the live table's columns, in ordinal order, mapped
	// back into abstract descriptors.
	Columns(ctx context.Context, tbl TableName) ([]sqltype.Column, error)

	// TestConnection verifies the target is reachable with valid
	// credentials.
	TestConnection(ctx context.Context) error

	// Close releases the connection.
	Close() error
}
