package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/retry"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

// Adapter provides SQL Server connectivity for the load engine.
type Adapter struct {
	config  *Config
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewAdapter opens a SQL Server connection with the given config.
// If logger is nil, a no-op logger is used.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", connectionString(cfg))
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

func connectionString(cfg *Config) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		query.Encode(),
	)
}

// Dialect returns the SQL Server SQL dialect.
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
	SET NOCOUNT ON;
	SELECT CASE WHEN OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table)) IS NULL
	       THEN 0 ELSE 1 END
	`

	var exists int
	err := a.db.QueryRowContext(ctx, query,
		sql.Named("schema", schemaOrDefault(tbl)),
		sql.Named("table", tbl.Table),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", tbl, err)
	}
	return exists == 1, nil
}

// Columns introspects the live table's columns in ordinal order.
func (a *Adapter) Columns(ctx context.Context, tbl target.TableName) ([]sqltype.Column, error) {
	query := `
	SET NOCOUNT ON;
	SELECT
	    c.name AS column_name,
	    tp.name AS data_type,
	    c.max_length,
	    c.precision,
	    c.scale
	FROM sys.columns c
	INNER JOIN sys.types tp ON c.user_type_id = tp.user_type_id
	WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY c.column_id
	`

	rows, err := a.db.QueryContext(ctx, query,
		sql.Named("schema", schemaOrDefault(tbl)),
		sql.Named("table", tbl.Table),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", tbl, err)
	}
	defer rows.Close()

	var columns []sqltype.Column
	for rows.Next() {
		var (
			name      string
			dataType  string
			maxLength int
			precision int
			scale     int
		)
		if err := rows.Scan(&name, &dataType, &maxLength, &precision, &scale); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, sqltype.Column{
			Name: name,
			Type: mapSQLServerType(dataType, maxLength, precision, scale),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// mapSQLServerType maps a sys.types name to an abstract descriptor.
// max_length is in bytes: -1 means MAX, and the national character types use
// two bytes per character. Types the engine never declares come back as
// unbounded text so a later merge can only widen, never narrow.
func mapSQLServerType(dataType string, maxLength, precision, scale int) sqltype.ColumnType {
	switch strings.ToLower(dataType) {
	case "text", "ntext", "xml":
		return sqltype.UnboundedText()
	case "nvarchar":
		if maxLength == -1 {
			return sqltype.UnboundedText()
		}
		return sqltype.BoundedText(maxLength / 2)
	case "varchar":
		if maxLength == -1 {
			return sqltype.UnboundedText()
		}
		return sqltype.BoundedText(maxLength)
	case "nchar":
		return sqltype.FixedChar(maxLength / 2)
	case "char":
		return sqltype.FixedChar(maxLength)
	case "datetime", "datetime2", "smalldatetime", "datetimeoffset":
		return sqltype.Timestamp()
	case "date":
		return sqltype.Date()
	case "tinyint", "smallint", "int", "bigint":
		return sqltype.Integer()
	case "decimal", "numeric", "money", "smallmoney":
		return sqltype.Decimal(precision, scale)
	case "float", "real":
		return sqltype.Float()
	default:
		return sqltype.UnboundedText()
	}
}

func schemaOrDefault(tbl target.TableName) string {
	if tbl.Schema == "" {
		// Default schema is "dbo" in SQL Server.
		return "dbo"
	}
	return tbl.Schema
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
