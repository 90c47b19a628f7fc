package singer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/loadbridge/loadbridge/pkg/stream"
)

// maxLineBytes bounds a single protocol line. Wide records with embedded
// documents routinely exceed bufio's default token size.
const maxLineBytes = 32 * 1024 * 1024

// BatchHandler receives each completed batch. A handler error aborts the run
// before any later state message is emitted.
type BatchHandler func(ctx context.Context, batch *stream.Batch) error

// Reader consumes line-delimited Singer messages, buffers records per stream
// and hands off batches. State messages pass through to the output only
// after every buffered record before them has been handled, so the emitted
// state never claims unwritten data.
type Reader struct {
	in       io.Reader
	out      io.Writer
	maxBatch int
	handler  BatchHandler
	logger   *zap.Logger

	buffers map[string]*streamBuffer
}

type streamBuffer struct {
	schema        stream.Schema
	keyProperties []string
	records       []map[string]any
}

// NewReader builds a Reader that flushes a stream's buffer once it holds
// maxBatch records. If logger is nil, a no-op logger is used.
func NewReader(in io.Reader, out io.Writer, maxBatch int, handler BatchHandler, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		in:       in,
		out:      out,
		maxBatch: maxBatch,
		handler:  handler,
		logger:   logger,
		buffers:  make(map[string]*streamBuffer),
	}
}

// Run processes the input until EOF. Any malformed line or handler failure
// aborts the run; a partially processed input is safe to replay because
// keyed streams upsert.
func (r *Reader) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return fmt.Errorf("line %d: malformed message: %w", lineNo, err)
		}

		if err := r.dispatch(ctx, lineNo, &msg); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	return r.flushAll(ctx)
}

func (r *Reader) dispatch(ctx context.Context, lineNo int, msg *Message) error {
	switch msg.Type {
	case TypeSchema:
		return r.handleSchema(ctx, lineNo, msg)
	case TypeRecord:
		return r.handleRecord(ctx, lineNo, msg)
	case TypeState:
		return r.handleState(ctx, msg)
	case TypeActivateVersion:
		r.logger.Debug("Ignoring ACTIVATE_VERSION message", zap.String("stream", msg.Stream))
		return nil
	default:
		return fmt.Errorf("line %d: unknown message type %q", lineNo, msg.Type)
	}
}

// handleSchema installs the stream's schema. A schema change mid-stream
// flushes records buffered under the previous schema first.
func (r *Reader) handleSchema(ctx context.Context, lineNo int, msg *Message) error {
	if msg.Stream == "" {
		return fmt.Errorf("line %d: SCHEMA message without stream", lineNo)
	}

	var schema stream.Schema
	if err := json.Unmarshal(msg.Schema, &schema); err != nil {
		return fmt.Errorf("line %d: stream %q: invalid schema: %w", lineNo, msg.Stream, err)
	}

	if buf, ok := r.buffers[msg.Stream]; ok && len(buf.records) > 0 {
		if err := r.flush(ctx, msg.Stream); err != nil {
			return err
		}
	}
	r.buffers[msg.Stream] = &streamBuffer{
		schema:        schema,
		keyProperties: msg.KeyProperties,
	}
	return nil
}

func (r *Reader) handleRecord(ctx context.Context, lineNo int, msg *Message) error {
	buf, ok := r.buffers[msg.Stream]
	if !ok {
		return fmt.Errorf("line %d: RECORD for stream %q before its SCHEMA", lineNo, msg.Stream)
	}

	buf.records = append(buf.records, msg.Record)
	if len(buf.records) >= r.maxBatch {
		return r.flush(ctx, msg.Stream)
	}
	return nil
}

// handleState drains every buffer, then forwards the state line.
func (r *Reader) handleState(ctx context.Context, msg *Message) error {
	if err := r.flushAll(ctx); err != nil {
		return err
	}
	return r.emitState(msg.Value)
}

func (r *Reader) flush(ctx context.Context, name string) error {
	buf := r.buffers[name]
	if buf == nil || len(buf.records) == 0 {
		return nil
	}

	records := buf.records
	buf.records = nil

	r.logger.Debug("Flushing batch",
		zap.String("stream", name),
		zap.Int("records", len(records)))
	return r.handler(ctx, &stream.Batch{
		Stream:        name,
		Schema:        buf.schema,
		KeyProperties: buf.keyProperties,
		Records:       stream.NewSliceRecords(records),
	})
}

func (r *Reader) flushAll(ctx context.Context) error {
	names := make([]string, 0, len(r.buffers))
	for name := range r.buffers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.flush(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) emitState(value json.RawMessage) error {
	if len(value) == 0 || r.out == nil {
		return nil
	}
	if _, err := fmt.Fprintf(r.out, "%s\n", value); err != nil {
		return fmt.Errorf("emit state: %w", err)
	}
	return nil
}
