package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/sosanhsach/pricesync/internal/retrypolicy"
	"github.com/sosanhsach/pricesync/internal/sheet"
)

// fastRetries keeps tests quick.
var fastRetries = []ModelOption{
	WithUpdateRetry(retrypolicy.Policy{MaxRetries: 3, Interval: time.Millisecond}),
	WithNoteRetry(retrypolicy.Policy{MaxRetries: 5, Interval: time.Millisecond}),
	WithReadRetry(retrypolicy.Policy{MaxRetries: 5, Interval: time.Millisecond}),
}

type recordedBatch struct {
	SheetID   string
	SheetName string
	Updates   []sheet.ValueUpdate
}

// fakeSheetService is an in-memory sheet.Service.
type fakeSheetService struct {
	// cells maps sheetName -> A1 cell -> value.
	cells map[string]map[string]any
	// columns maps sheetName -> column index -> values.
	columns map[string]map[int][]any

	batches      []recordedBatch
	columnReads  int
	failuresLeft int
}

var _ sheet.Service = (*fakeSheetService)(nil)

func newFakeSheetService() *fakeSheetService {
	return &fakeSheetService{
		cells:   map[string]map[string]any{},
		columns: map[string]map[int][]any{},
	}
}

func (f *fakeSheetService) setCell(sheetName, cell string, value any) {
	if f.cells[sheetName] == nil {
		f.cells[sheetName] = map[string]any{}
	}
	f.cells[sheetName][cell] = value
}

func (f *fakeSheetService) setColumn(sheetName string, index int, values []any) {
	if f.columns[sheetName] == nil {
		f.columns[sheetName] = map[int][]any{}
	}
	f.columns[sheetName][index] = values
}

func (f *fakeSheetService) maybeFail() error {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return fmt.Errorf("transient sheet failure")
	}
	return nil
}

func (f *fakeSheetService) BatchGetFirst(_ context.Context, _, sheetName string, ranges []string) ([]any, error) {
	if err := f.maybeFail(); err != nil {
		return nil, err
	}
	values := make([]any, len(ranges))
	for i, r := range ranges {
		values[i] = f.cells[sheetName][r]
	}
	return values, nil
}

func (f *fakeSheetService) BatchUpdate(_ context.Context, spreadsheetID, sheetName string, updates []sheet.ValueUpdate) error {
	if err := f.maybeFail(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	f.batches = append(f.batches, recordedBatch{SheetID: spreadsheetID, SheetName: sheetName, Updates: updates})
	for _, u := range updates {
		f.setCell(sheetName, u.Range, u.Value)
	}
	return nil
}

func (f *fakeSheetService) ColumnValues(_ context.Context, _, sheetName string, columnIndex int) ([]any, error) {
	if err := f.maybeFail(); err != nil {
		return nil, err
	}
	f.columnReads++
	return f.columns[sheetName][columnIndex], nil
}

func (f *fakeSheetService) CellValue(_ context.Context, _, sheetName, cell string) (any, error) {
	if err := f.maybeFail(); err != nil {
		return nil, err
	}
	return f.cells[sheetName][cell], nil
}

// noteUpdates filters recorded batches down to writes in the note column.
func (f *fakeSheetService) updatesForColumn(column string) []sheet.ValueUpdate {
	var matched []sheet.ValueUpdate
	for _, b := range f.batches {
		for _, u := range b.Updates {
			if len(u.Range) > 0 && u.Range[:1] == column {
				matched = append(matched, u)
			}
		}
	}
	return matched
}

// seedDirectiveRow populates every mapped cell of one work-queue row.
func seedDirectiveRow(f *fakeSheetService, sheetName string, index int, values map[string]string) {
	for _, field := range directiveMapping.Fields() {
		if v, ok := values[field.Name]; ok {
			f.setCell(sheetName, fmt.Sprintf("%s%d", field.Column, index), v)
		}
	}
}
