// Package queue provides typed, column-mapped access to the spreadsheet
// work queue. Row fields bind to columns through static Mapping tables;
// reads and writes are batched, and per-row validation failures surface as
// note-column messages instead of aborting the batch.
package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sosanhsach/pricesync/internal/retrypolicy"
	"github.com/sosanhsach/pricesync/internal/sheet"
)

// Default retry parameters per operation family.
var (
	defaultUpdateRetry = retrypolicy.Policy{MaxRetries: 3, Interval: 30 * time.Second}
	defaultNoteRetry   = retrypolicy.Policy{MaxRetries: 5, Interval: 30 * time.Second}
	defaultReadRetry   = retrypolicy.Policy{MaxRetries: 5, Interval: 10 * time.Second}
)

// NoteMessage is a status message addressed to one row's note sink.
type NoteMessage struct {
	Index   int
	Message string
}

// CellUpdate is an arbitrary-cell write used for dynamically resolved
// targets.
type CellUpdate struct {
	Cell  string
	Value any
}

// Model is the batched, column-mapped view of the work queue.
type Model struct {
	svc sheet.Service
	now func() time.Time

	updateRetry retrypolicy.Policy
	noteRetry   retrypolicy.Policy
	readRetry   retrypolicy.Policy
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithClock injects the time source used for status message timestamps.
func WithClock(now func() time.Time) ModelOption {
	return func(m *Model) {
		m.now = now
	}
}

// WithUpdateRetry overrides the retry policy for batch updates.
func WithUpdateRetry(p retrypolicy.Policy) ModelOption {
	return func(m *Model) {
		m.updateRetry = p
	}
}

// WithNoteRetry overrides the retry policy for note and free-form writes.
func WithNoteRetry(p retrypolicy.Policy) ModelOption {
	return func(m *Model) {
		m.noteRetry = p
	}
}

// WithReadRetry overrides the retry policy for column and cell reads.
func WithReadRetry(p retrypolicy.Policy) ModelOption {
	return func(m *Model) {
		m.readRetry = p
	}
}

// NewModel creates a work-queue model over the given spreadsheet service.
func NewModel(svc sheet.Service, opts ...ModelOption) *Model {
	m := &Model{
		svc:         svc,
		now:         time.Now,
		updateRetry: defaultUpdateRetry,
		noteRetry:   defaultNoteRetry,
		readRetry:   defaultReadRetry,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunIndexes scans the check column top-to-bottom and returns the 1-based
// row numbers whose cell matches a recognized run flag. Non-string cells
// are coerced to strings before comparison.
func (m *Model) RunIndexes(ctx context.Context, sheetID, sheetName string, checkColumnIndex int) ([]int, error) {
	values, err := retrypolicy.DoValue(ctx, m.readRetry, "RunIndexes", func() ([]any, error) {
		return m.svc.ColumnValues(ctx, sheetID, sheetName, checkColumnIndex)
	})
	if err != nil {
		return nil, err
	}

	var indexes []int
	for i, value := range values {
		if IsRunFlag(cellString(value)) {
			indexes = append(indexes, i+1)
		}
	}
	return indexes, nil
}

// BatchGet fetches the directives at the given row indexes in one ranged
// batch request. Rows failing schema validation are excluded from the
// result; their errors are flushed to the note column in a single batched
// write before BatchGet returns, so a bad row never blocks the batch.
func (m *Model) BatchGet(ctx context.Context, sheetID, sheetName string, indexes []int) ([]Directive, error) {
	fields := directiveMapping.Fields()

	ranges := make([]string, 0, len(indexes)*len(fields))
	for _, index := range indexes {
		for _, f := range fields {
			ranges = append(ranges, f.Column+strconv.Itoa(index))
		}
	}

	values, err := m.svc.BatchGetFirst(ctx, sheetID, sheetName, ranges)
	if err != nil {
		return nil, err
	}
	if len(values) != len(ranges) {
		return nil, fmt.Errorf("batch get returned %d values, expected %d", len(values), len(ranges))
	}

	var directives []Directive
	var failures []NoteMessage

	pos := 0
	for _, index := range indexes {
		rowValues := make(map[string]string, len(fields))
		for _, f := range fields {
			rowValues[f.Name] = cellString(values[pos])
			pos++
		}

		directive, err := directiveFromValues(sheetID, sheetName, index, rowValues)
		if err != nil {
			failures = append(failures, NoteMessage{
				Index:   index,
				Message: fmt.Sprintf("%s Validation Error at row %d: %v", FormatTimestamp(m.now()), index, err),
			})
			continue
		}
		directives = append(directives, directive)
	}

	if len(failures) > 0 {
		if err := m.BatchUpdateNoteMessages(ctx, sheetID, sheetName, failures); err != nil {
			return nil, err
		}
	}
	return directives, nil
}

// BatchUpdate writes the updatable fields of every directive in one batch
// call. Empty input is a no-op. Re-issuing the same batch is convergent,
// so the write is safe to retry.
func (m *Model) BatchUpdate(ctx context.Context, sheetID, sheetName string, rows []Directive) error {
	if len(rows) == 0 {
		return nil
	}

	updatable := directiveMapping.UpdatableFields()
	updates := make([]sheet.ValueUpdate, 0, len(rows)*len(updatable))
	for i := range rows {
		for _, f := range updatable {
			updates = append(updates, sheet.ValueUpdate{
				Range: f.Column + strconv.Itoa(rows[i].Index),
				Value: rows[i].updateValue(f.Name),
			})
		}
	}

	return m.updateRetry.Do(ctx, "BatchUpdate", func() error {
		return m.svc.BatchUpdate(ctx, sheetID, sheetName, updates)
	})
}

// AppendAuditRows writes catalog audit rows to the data sheet. All audit
// fields are written; rows are addressed purely by their index, so
// re-running with an identical snapshot produces identical content.
func (m *Model) AppendAuditRows(ctx context.Context, sheetID, sheetName string, rows []AuditRow) error {
	if len(rows) == 0 {
		return nil
	}

	updatable := auditMapping.UpdatableFields()
	updates := make([]sheet.ValueUpdate, 0, len(rows)*len(updatable))
	for i := range rows {
		for _, f := range updatable {
			updates = append(updates, sheet.ValueUpdate{
				Range: f.Column + strconv.Itoa(rows[i].Index),
				Value: rows[i].updateValue(f.Name),
			})
		}
	}

	return m.updateRetry.Do(ctx, "AppendAuditRows", func() error {
		return m.svc.BatchUpdate(ctx, sheetID, sheetName, updates)
	})
}

// FreeStyleBatchUpdate writes arbitrary cells, used for targets resolved
// dynamically at run time.
func (m *Model) FreeStyleBatchUpdate(ctx context.Context, sheetID, sheetName string, payloads []CellUpdate) error {
	if len(payloads) == 0 {
		return nil
	}

	updates := make([]sheet.ValueUpdate, len(payloads))
	for i, p := range payloads {
		updates[i] = sheet.ValueUpdate{Range: p.Cell, Value: p.Value}
	}

	return m.noteRetry.Do(ctx, "FreeStyleBatchUpdate", func() error {
		return m.svc.BatchUpdate(ctx, sheetID, sheetName, updates)
	})
}

// UpdateNoteMessage writes one message to a row's note sink.
func (m *Model) UpdateNoteMessage(ctx context.Context, sheetID, sheetName string, index int, message string) error {
	return m.BatchUpdateNoteMessages(ctx, sheetID, sheetName, []NoteMessage{{Index: index, Message: message}})
}

// BatchUpdateNoteMessages writes messages to the note sink of each
// addressed row in one batch call. Fails with *SchemaError when the
// directive schema declares no note sink; the error is marked permanent
// so enclosing retry wrappers do not repeat a config defect.
func (m *Model) BatchUpdateNoteMessages(ctx context.Context, sheetID, sheetName string, payloads []NoteMessage) error {
	column, ok := directiveMapping.NoteSinkColumn()
	if !ok {
		return retrypolicy.Permanent(&SchemaError{Message: "no note sink declared for directive rows"})
	}
	if len(payloads) == 0 {
		return nil
	}

	updates := make([]sheet.ValueUpdate, len(payloads))
	for i, p := range payloads {
		updates[i] = sheet.ValueUpdate{
			Range: column + strconv.Itoa(p.Index),
			Value: p.Message,
		}
	}

	return m.noteRetry.Do(ctx, "BatchUpdateNoteMessages", func() error {
		return m.svc.BatchUpdate(ctx, sheetID, sheetName, updates)
	})
}

// CellValue reads one cell with unformatted rendering; nil means blank.
func (m *Model) CellValue(ctx context.Context, sheetID, sheetName, cell string) (any, error) {
	return retrypolicy.DoValue(ctx, m.readRetry, "CellValue", func() (any, error) {
		return m.svc.CellValue(ctx, sheetID, sheetName, cell)
	})
}
