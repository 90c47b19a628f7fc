package stream

import (
	"context"
	"io"
)

// Records is a forward-only, consume-once sequence of raw records keyed by
// the original (pre-conform) property names. Next returns io.EOF once the
// sequence is exhausted. Implementations may block on upstream I/O; callers
// must not assume the sequence can be iterated twice.
type Records interface {
	Next(ctx context.Context) (map[string]any, error)
}

// Batch is one unit of work for one stream: its schema, primary-key property
// names, and the records to load.
type Batch struct {
	Stream        string
	Schema        Schema
	KeyProperties []string
	Records       Records
}

type sliceRecords struct {
	rows []map[string]any
	pos  int
}

// NewSliceRecords wraps an in-memory record slice in the Records contract.
func NewSliceRecords(rows []map[string]any) Records {
	return &sliceRecords{rows: rows}
}

func (s *sliceRecords) Next(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}
