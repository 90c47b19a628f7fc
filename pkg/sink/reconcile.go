package sink

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/apperrors"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
)

// Policy controls how far reconciliation may evolve a live table.
type Policy struct {
	AllowColumnAdd   bool
	AllowColumnAlter bool
	FreezeSchema     bool
}

// ActionKind identifies a reconciliation step.
type ActionKind int

const (
	ActionCreateTable ActionKind = iota
	ActionAddColumn
	ActionAlterColumn
)

// Action is one DDL step the reconciler decided on. CreateTable carries the
// full schema; AddColumn and AlterColumn carry the single affected column.
type Action struct {
	Kind   ActionKind
	Schema *sqltype.TableSchema
	Column sqltype.Column
}

// Plan computes the ordered actions that make the live table accept every
// column of the desired schema. The live table only ever grows: missing
// columns are added and narrower columns are widened to the merged type, but
// nothing is dropped or narrowed. Columns present in the table but absent
// from the desired schema are left alone.
func Plan(exists bool, actual []sqltype.Column, desired *sqltype.TableSchema, policy Policy) ([]Action, error) {
	if !exists {
		return []Action{{Kind: ActionCreateTable, Schema: desired}}, nil
	}

	actualTypes := make(map[string]sqltype.ColumnType, len(actual))
	for _, col := range actual {
		actualTypes[col.Name] = col.Type
	}

	var actions []Action
	for i := range desired.Columns {
		col := desired.Columns[i]
		actualType, present := actualTypes[col.Name]
		if !present {
			if !policy.AllowColumnAdd {
				return nil, fmt.Errorf("%w: column %q", apperrors.ErrColumnAddNotAllowed, col.Name)
			}
			name := col.Name
			if strings.HasPrefix(name, "_") {
				// Leading underscores are reserved for system columns. The
				// desired schema follows the rename so later inserts and
				// merges address the live column.
				name = "x" + name
				desired.Columns[i].Name = name
			}
			actions = append(actions, Action{
				Kind:   ActionAddColumn,
				Column: sqltype.Column{Name: name, Type: col.Type},
			})
			continue
		}

		if actualType == col.Type || policy.FreezeSchema {
			continue
		}

		merged, err := sqltype.Merge([]sqltype.ColumnType{actualType, col.Type})
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		if merged == actualType {
			// Live column already holds everything the new type can.
			continue
		}
		if !policy.AllowColumnAlter {
			return nil, fmt.Errorf("%w: cannot convert column %q from %s to %s",
				apperrors.ErrColumnAlterNotAllowed, col.Name, actualType, merged)
		}
		actions = append(actions, Action{
			Kind:   ActionAlterColumn,
			Column: sqltype.Column{Name: col.Name, Type: merged},
		})
	}

	return actions, nil
}

// reconcile brings the live table in line with the desired schema, creating
// it if absent.
func (l *Loader) reconcile(ctx context.Context, log *zap.Logger, tbl target.TableName, desired *sqltype.TableSchema) error {
	exists, err := l.conn.TableExists(ctx, tbl)
	if err != nil {
		return fmt.Errorf("check table %s: %w", tbl, err)
	}

	var actual []sqltype.Column
	if exists {
		actual, err = l.conn.Columns(ctx, tbl)
		if err != nil {
			return fmt.Errorf("introspect table %s: %w", tbl, err)
		}
	}

	actions, err := Plan(exists, actual, desired, l.opts.Policy)
	if err != nil {
		return err
	}

	dialect := l.conn.Dialect()
	for _, action := range actions {
		switch action.Kind {
		case ActionCreateTable:
			log.Info("Creating table",
				zap.String("table", tbl.String()),
				zap.Int("columns", len(desired.Columns)))
			if _, err := l.conn.DB().ExecContext(ctx, dialect.CreateTableSQL(tbl, desired)); err != nil {
				return fmt.Errorf("%w: %s: %w", apperrors.ErrTableCreateFailed, tbl, err)
			}
		case ActionAddColumn:
			log.Info("Adding column",
				zap.String("table", tbl.String()),
				zap.String("column", action.Column.Name),
				zap.String("type", action.Column.Type.String()))
			if _, err := l.conn.DB().ExecContext(ctx, dialect.AddColumnSQL(tbl, action.Column)); err != nil {
				return fmt.Errorf("%w: add column %q %s: %w",
					apperrors.ErrSchemaReconcileFailed, action.Column.Name, action.Column.Type, err)
			}
		case ActionAlterColumn:
			log.Info("Widening column",
				zap.String("table", tbl.String()),
				zap.String("column", action.Column.Name),
				zap.String("type", action.Column.Type.String()))
			if _, err := l.conn.DB().ExecContext(ctx, dialect.AlterColumnTypeSQL(tbl, action.Column)); err != nil {
				return fmt.Errorf("%w: alter column %q to %s: %w",
					apperrors.ErrSchemaReconcileFailed, action.Column.Name, action.Column.Type, err)
			}
		}
	}

	return nil
}
