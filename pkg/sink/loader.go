package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	"github.com/loadbridge/loadbridge/pkg/apperrors"
	"github.com/loadbridge/loadbridge/pkg/conform"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
	"github.com/loadbridge/loadbridge/pkg/stream"
)

// stagingSuffix marks the per-batch staging table next to its target.
const stagingSuffix = "_temp"

// Options tune how a Loader writes batches.
type Options struct {
	// TargetSchema overrides the schema part of every table name when set.
	TargetSchema string
	// PreferFloat maps JSON numbers to an approximate float type instead of
	// an exact decimal.
	PreferFloat bool
	// Policy bounds schema evolution on live tables.
	Policy Policy
}

// Loader writes record batches into a relational target, evolving each
// table's schema as the incoming stream's schema grows. Streams with key
// properties are merged through a staging table so replays upsert instead of
// duplicating rows; keyless streams are appended directly.
type Loader struct {
	conn   target.Conn
	opts   Options
	logger *zap.Logger
}

// NewLoader builds a Loader over an open target connection.
// If logger is nil, a no-op logger is used.
func NewLoader(conn target.Conn, opts Options, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{conn: conn, opts: opts, logger: logger}
}

// Load writes one batch. The target table is created or reconciled first,
// then the records land by merge-upsert (keyed streams) or plain insert
// (keyless streams).
func (l *Loader) Load(ctx context.Context, batch *stream.Batch) error {
	log := l.logger.With(
		zap.String("stream", batch.Stream),
		zap.String("batch_id", uuid.NewString()),
	)

	desired, err := BuildTableSchema(batch.Schema, batch.KeyProperties, l.opts.PreferFloat)
	if err != nil {
		return fmt.Errorf("stream %q: %w", batch.Stream, err)
	}

	tbl, err := l.tableName(batch.Stream)
	if err != nil {
		return fmt.Errorf("stream %q: %w", batch.Stream, err)
	}

	log.Info("Preparing target table", zap.String("table", tbl.String()))
	if err := l.reconcile(ctx, log, tbl, desired); err != nil {
		return fmt.Errorf("stream %q: %w", batch.Stream, err)
	}

	if len(desired.PrimaryKeys) == 0 {
		inserted, err := l.appendRecords(ctx, tbl, desired, batch.Records)
		if err != nil {
			return fmt.Errorf("stream %q: %w: %w", batch.Stream, apperrors.ErrInsertFailed, err)
		}
		log.Info("Batch appended", zap.String("table", tbl.String()), zap.Int("records", inserted))
		return nil
	}

	if err := l.mergeUpsert(ctx, log, tbl, desired, batch.Records); err != nil {
		return fmt.Errorf("stream %q: %w", batch.Stream, err)
	}
	return nil
}

// tableName resolves a stream name to its target table. The table part is
// conformed like any other identifier; an explicit target schema wins over
// one embedded in the stream name.
func (l *Loader) tableName(streamName string) (target.TableName, error) {
	tbl, err := l.conn.Dialect().ParseTableName(streamName)
	if err != nil {
		return target.TableName{}, err
	}
	tbl.Table = conform.Name(tbl.Table)
	if l.opts.TargetSchema != "" {
		tbl.Schema = l.opts.TargetSchema
	}
	return tbl, nil
}

// mergeUpsert lands a keyed batch: stage, merge, drop. The staging table is
// a constraint-free clone of the target, so rows the merge would reject on
// key conflicts can still be staged. Merge failure keeps the target
// untouched; a drop failure after a committed merge only loses the staging
// table, so it is logged and swallowed.
func (l *Loader) mergeUpsert(ctx context.Context, log *zap.Logger, tbl target.TableName, desired *sqltype.TableSchema, records stream.Records) error {
	dialect := l.conn.Dialect()
	db := l.conn.DB()
	staging := tbl.WithSuffix(stagingSuffix)

	// A staging table left behind by a crashed run blocks recreation.
	if err := l.dropTable(ctx, staging); err != nil {
		log.Debug("No leftover staging table to drop", zap.String("staging", staging.String()))
	}

	log.Info("Creating staging table", zap.String("staging", staging.String()))
	if _, err := db.ExecContext(ctx, dialect.CreateStagingSQL(staging, tbl)); err != nil {
		return fmt.Errorf("%w: %s: %w", apperrors.ErrStagingCreateFailed, staging, err)
	}
	defer func() {
		if err := l.dropTable(ctx, staging); err != nil {
			log.Warn("Failed to drop staging table",
				zap.String("staging", staging.String()), zap.Error(err))
		}
	}()

	rows, err := collapseByKey(ctx, desired, records)
	if err != nil {
		return err
	}

	if err := l.insertRows(ctx, staging, desired, rows); err != nil {
		return fmt.Errorf("%w: populate %s: %w", apperrors.ErrInsertFailed, staging, err)
	}

	log.Info("Merging staging table",
		zap.String("table", tbl.String()),
		zap.String("staging", staging.String()),
		zap.Int("records", len(rows)))
	mergeSQL := dialect.MergeSQL(tbl, staging, desired.ColumnNames(), desired.PrimaryKeys)
	if _, err := db.ExecContext(ctx, mergeSQL); err != nil {
		return fmt.Errorf("%w: merge into %s: %w", apperrors.ErrMergeFailed, tbl, err)
	}

	return nil
}

// collapseByKey materializes a keyed batch with the last record per key
// winning. A single merge statement cannot update the same target row twice,
// so intra-batch duplicates must be resolved before staging.
func collapseByKey(ctx context.Context, desired *sqltype.TableSchema, records stream.Records) ([][]any, error) {
	keyPositions := make([]int, 0, len(desired.PrimaryKeys))
	for i, col := range desired.Columns {
		for _, key := range desired.PrimaryKeys {
			if col.Name == key {
				keyPositions = append(keyPositions, i)
			}
		}
	}

	index := make(map[string]int)
	var rows [][]any
	for {
		record, err := records.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read records: %w", err)
		}

		values := rowValues(desired, record)
		var key strings.Builder
		for _, pos := range keyPositions {
			fmt.Fprintf(&key, "%v\x00", values[pos])
		}
		if at, seen := index[key.String()]; seen {
			rows[at] = values
		} else {
			index[key.String()] = len(rows)
			rows = append(rows, values)
		}
	}
	return rows, nil
}

// insertRows writes pre-built rows into a table inside one transaction.
func (l *Loader) insertRows(ctx context.Context, tbl target.TableName, desired *sqltype.TableSchema, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := l.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, l.conn.Dialect().InsertSQL(tbl, desired.ColumnNames()))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}

	return tx.Commit()
}

// appendRecords streams a keyless batch straight into the target table,
// all-or-nothing at the transaction boundary.
func (l *Loader) appendRecords(ctx context.Context, tbl target.TableName, desired *sqltype.TableSchema, records stream.Records) (int, error) {
	tx, err := l.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, l.conn.Dialect().InsertSQL(tbl, desired.ColumnNames()))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for {
		record, err := records.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read records: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, rowValues(desired, record)...); err != nil {
			return 0, fmt.Errorf("insert row: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (l *Loader) dropTable(ctx context.Context, tbl target.TableName) error {
	_, err := l.conn.DB().ExecContext(ctx, l.conn.Dialect().DropTableSQL(tbl))
	return err
}
