package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	_ "github.com/sijms/go-ora/v2" // Oracle driver

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/retry"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

// Adapter provides Oracle connectivity for the load engine.
type Adapter struct {
	config  *Config
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewAdapter opens an Oracle connection with the given config.
// If logger is nil, a no-op logger is used.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	initClientEnvironment(cfg)

	connStr, err := cfg.ConnectionString()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	if err := retry.DoIfRetryable(ctx, nil, func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("connection test failed: %w", err)
	}

	a := &Adapter{
		config: cfg,
		db:     db,
		logger: logger,
	}

	if err := a.prepareSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return a, nil
}

// initClientEnvironment performs the one-time client environment setup.
// Idempotent; setting TNS_ADMIN twice to the same value is harmless.
func initClientEnvironment(cfg *Config) {
	if cfg.TNSAdmin != "" {
		os.Setenv("TNS_ADMIN", cfg.TNSAdmin)
	}
}

// prepareSchema switches the session to the configured target schema.
// Proxy-user authentication already lands in the target schema, so no
// ALTER SESSION is needed in that case.
func (a *Adapter) prepareSchema(ctx context.Context) error {
	schema := a.config.TargetSchema
	if schema == "" {
		return nil
	}
	if a.config.ProxyUser != "" {
		return nil
	}

	if _, err := a.db.ExecContext(ctx,
		fmt.Sprintf("ALTER SESSION SET CURRENT_SCHEMA = %s", schema)); err != nil {
		return fmt.Errorf("set current schema %q: %w", schema, err)
	}

	a.logger.Debug("Session schema set", zap.String("schema", schema))
	return nil
}

// Dialect returns the Oracle SQL dialect.
func (a *Adapter) Dialect() target.Dialect {
	return a.dialect
}

// DB returns the underlying handle for statement execution.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// TableExists reports whether the table is visible to the session.
func (a *Adapter) TableExists(ctx context.Context, tbl target.TableName) (bool, error) {
	query := `
	SELECT COUNT(*)
	FROM all_tables
	WHERE table_name = :1
	  AND owner = NVL(:2, SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA'))
	`

	var count int
	err := a.db.QueryRowContext(ctx, query,
		strings.ToUpper(tbl.Table),
		upperOrNil(tbl.Schema),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", tbl, err)
	}
	return count > 0, nil
}

// Columns introspects the live table's columns in ordinal order. Unquoted
// identifiers fold to uppercase in the data dictionary; names are folded
// back to the conformed lowercase form.
func (a *Adapter) Columns(ctx context.Context, tbl target.TableName) ([]sqltype.Column, error) {
	query := `
	SELECT column_name, data_type, char_length, data_precision, data_scale
	FROM all_tab_columns
	WHERE table_name = :1
	  AND owner = NVL(:2, SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA'))
	ORDER BY column_id
	`

	rows, err := a.db.QueryContext(ctx, query,
		strings.ToUpper(tbl.Table),
		upperOrNil(tbl.Schema),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", tbl, err)
	}
	defer rows.Close()

	var columns []sqltype.Column
	for rows.Next() {
		var (
			name       string
			dataType   string
			charLength sql.NullInt64
			precision  sql.NullInt64
			scale      sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &charLength, &precision, &scale); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, sqltype.Column{
			Name: strings.ToLower(name),
			Type: mapOracleType(dataType, charLength, precision, scale),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// mapOracleType maps a data dictionary type to an abstract descriptor.
// Types the engine never declares come back as unbounded text so a later
// merge can only widen, never narrow.
func mapOracleType(dataType string, charLength, precision, scale sql.NullInt64) sqltype.ColumnType {
	dataType = strings.ToUpper(dataType)

	switch {
	case dataType == "CLOB" || dataType == "NCLOB" || dataType == "LONG":
		return sqltype.UnboundedText()
	case dataType == "VARCHAR2" || dataType == "NVARCHAR2" || dataType == "VARCHAR":
		return sqltype.BoundedText(int(charLength.Int64))
	case dataType == "CHAR" || dataType == "NCHAR":
		return sqltype.FixedChar(int(charLength.Int64))
	case strings.HasPrefix(dataType, "TIMESTAMP"):
		return sqltype.Timestamp()
	case dataType == "DATE":
		return sqltype.Date()
	case dataType == "NUMBER":
		if scale.Valid && scale.Int64 > 0 {
			prec := int64(sqltype.DefaultDecimalPrecision)
			if precision.Valid {
				prec = precision.Int64
			}
			return sqltype.Decimal(int(prec), int(scale.Int64))
		}
		return sqltype.Integer()
	case dataType == "FLOAT" || dataType == "BINARY_FLOAT" || dataType == "BINARY_DOUBLE":
		return sqltype.Float()
	default:
		return sqltype.UnboundedText()
	}
}

func upperOrNil(s string) any {
	if s == "" {
		return nil
	}
	return strings.ToUpper(s)
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1 FROM dual").Scan(&result); err != nil {
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
