package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

func TestDialect_CompileType(t *testing.T) {
	tests := []struct {
		typ      sqltype.ColumnType
		expected string
	}{
		{sqltype.UnboundedText(), "TEXT"},
		{sqltype.BoundedText(255), "VARCHAR(255)"},
		{sqltype.FixedChar(1), "CHAR(1)"},
		{sqltype.Timestamp(), "TIMESTAMP"},
		{sqltype.Date(), "DATE"},
		{sqltype.Integer(), "BIGINT"},
		{sqltype.Decimal(38, 10), "NUMERIC(38, 10)"},
		{sqltype.Float(), "DOUBLE PRECISION"},
	}

	var d Dialect
	for _, tt := range tests {
		assert.Equal(t, tt.expected, d.CompileType(tt.typ))
	}
}

func TestDialect_CreateTableSQL(t *testing.T) {
	var d Dialect
	schema := &sqltype.TableSchema{
		Columns: []sqltype.Column{
			{Name: "id", Type: sqltype.Integer()},
			{Name: "name", Type: sqltype.BoundedText(100)},
		},
		PrimaryKeys: []string{"id"},
	}

	sql := d.CreateTableSQL(target.TableName{Table: "orders"}, schema)
	assert.Contains(t, sql, "CREATE TABLE orders")
	assert.Contains(t, sql, "id BIGINT")
	assert.Contains(t, sql, "name VARCHAR(100)")
	assert.Contains(t, sql, "CONSTRAINT orders_PK PRIMARY KEY (id)")
}

func TestDialect_InsertSQL(t *testing.T) {
	var d Dialect
	sql := d.InsertSQL(target.TableName{Table: "orders"}, []string{"id", "name"})
	assert.Equal(t, "INSERT INTO orders (id, name) VALUES ($1, $2)", sql)
}

func TestDialect_MergeSQL(t *testing.T) {
	var d Dialect
	tbl := target.TableName{Table: "orders"}

	sql := d.MergeSQL(tbl, tbl.WithSuffix("_temp"),
		[]string{"id", "name", "total"}, []string{"id"})

	assert.Equal(t,
		"INSERT INTO orders (id, name, total)\n"+
			"SELECT id, name, total FROM orders_temp\n"+
			"ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, total = EXCLUDED.total",
		sql)
}

// With only key columns a conflicting row carries no new data.
func TestDialect_MergeSQL_AllColumnsAreKeys(t *testing.T) {
	var d Dialect
	tbl := target.TableName{Table: "links"}

	sql := d.MergeSQL(tbl, tbl.WithSuffix("_temp"),
		[]string{"src", "dst"}, []string{"src", "dst"})

	assert.Contains(t, sql, "ON CONFLICT (src, dst) DO NOTHING")
}

func TestDialect_DDL(t *testing.T) {
	var d Dialect
	tbl := target.TableName{Table: "orders"}

	assert.Equal(t, "ALTER TABLE orders ADD COLUMN email VARCHAR(255)",
		d.AddColumnSQL(tbl, sqltype.Column{Name: "email", Type: sqltype.BoundedText(255)}))

	assert.Equal(t, "ALTER TABLE orders ALTER COLUMN name TYPE TEXT",
		d.AlterColumnTypeSQL(tbl, sqltype.Column{Name: "name", Type: sqltype.UnboundedText()}))

	assert.Equal(t, "CREATE TABLE orders_temp AS SELECT * FROM orders WHERE 1=0",
		d.CreateStagingSQL(tbl.WithSuffix("_temp"), tbl))
}
