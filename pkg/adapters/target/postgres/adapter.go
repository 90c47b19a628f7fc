package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/retry"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

// Adapter provides PostgreSQL connectivity for the load engine.
type Adapter struct {
	config  *Config
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewAdapter opens a PostgreSQL connection with the given config.
// If logger is nil, a no-op logger is used.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	if err := retry.DoIfRetryable(ctx, nil, func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("connection test failed: %w", err)
	}

	return &Adapter{
		config: cfg,
		db:     db,
		logger: logger,
	}, nil
}

// Dialect returns the PostgreSQL SQL dialect.
func (a *Adapter) Dialect() target.Dialect {
	return a.dialect
}

// DB returns the underlying handle for statement execution.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// TableExists reports whether the table is present.
func (a *Adapter) TableExists(ctx context.Context, tbl target.TableName) (bool, error) {
	query := `
	SELECT EXISTS (
	    SELECT 1
	    FROM information_schema.tables
	    WHERE table_name = $1
	      AND table_schema = COALESCE(NULLIF($2, ''), current_schema())
	)
	`

	var exists bool
	if err := a.db.QueryRowContext(ctx, query, tbl.Table, tbl.Schema).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %s: %w", tbl, err)
	}
	return exists, nil
}

// Columns introspects the live table's columns in ordinal order.
func (a *Adapter) Columns(ctx context.Context, tbl target.TableName) ([]sqltype.Column, error) {
	query := `
	SELECT column_name, data_type, character_maximum_length, numeric_precision, numeric_scale
	FROM information_schema.columns
	WHERE table_name = $1
	  AND table_schema = COALESCE(NULLIF($2, ''), current_schema())
	ORDER BY ordinal_position
	`

	rows, err := a.db.QueryContext(ctx, query, tbl.Table, tbl.Schema)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", tbl, err)
	}
	defer rows.Close()

	var columns []sqltype.Column
	for rows.Next() {
		var (
			name      string
			dataType  string
			charLen   sql.NullInt64
			precision sql.NullInt64
			scale     sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &charLen, &precision, &scale); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, sqltype.Column{
			Name: name,
			Type: mapPostgresType(dataType, charLen, precision, scale),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// mapPostgresType maps an information_schema type to an abstract descriptor.
// Types the engine never declares come back as unbounded text so a later
// merge can only widen, never narrow.
func mapPostgresType(dataType string, charLen, precision, scale sql.NullInt64) sqltype.ColumnType {
	switch strings.ToLower(dataType) {
	case "text":
		return sqltype.UnboundedText()
	case "character varying", "varchar":
		if !charLen.Valid {
			return sqltype.UnboundedText()
		}
		return sqltype.BoundedText(int(charLen.Int64))
	case "character", "char", "bpchar":
		length := 1
		if charLen.Valid {
			length = int(charLen.Int64)
		}
		return sqltype.FixedChar(length)
	case "timestamp without time zone", "timestamp with time zone", "timestamp":
		return sqltype.Timestamp()
	case "date":
		return sqltype.Date()
	case "smallint", "integer", "bigint":
		return sqltype.Integer()
	case "numeric", "decimal":
		prec := int64(sqltype.DefaultDecimalPrecision)
		sc := int64(sqltype.DefaultDecimalScale)
		if precision.Valid {
			prec = precision.Int64
		}
		if scale.Valid {
			sc = scale.Int64
		}
		return sqltype.Decimal(int(prec), int(sc))
	case "real", "double precision":
		return sqltype.Float()
	default:
		return sqltype.UnboundedText()
	}
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ensure Adapter implements target.Conn at compile time.
var _ target.Conn = (*Adapter)(nil)
