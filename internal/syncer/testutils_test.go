package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sosanhsach/pricesync/internal/queue"
	"github.com/sosanhsach/pricesync/internal/retrypolicy"
	"github.com/sosanhsach/pricesync/internal/sheet"
	"github.com/sosanhsach/pricesync/internal/vendor"
)

// fixedNow keeps status timestamps deterministic.
var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

const fixedTimestamp = "01/06/2025 09:30:00"

var fastModelRetries = []queue.ModelOption{
	queue.WithUpdateRetry(retrypolicy.Policy{MaxRetries: 3, Interval: time.Millisecond}),
	queue.WithNoteRetry(retrypolicy.Policy{MaxRetries: 5, Interval: time.Millisecond}),
	queue.WithReadRetry(retrypolicy.Policy{MaxRetries: 5, Interval: time.Millisecond}),
}

var fastChunkRetry = retrypolicy.Policy{MaxRetries: 5, Interval: time.Millisecond}

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
	return f.columns[sheetName][columnIndex], nil
}

func (f *fakeSheetService) CellValue(_ context.Context, _, sheetName, cell string) (any, error) {
	if err := f.maybeFail(); err != nil {
		return nil, err
	}
	return f.cells[sheetName][cell], nil
}

// seedDirectiveRow populates mapped cells of one work-queue row.
func seedDirectiveRow(f *fakeSheetService, sheetName string, index int, values map[string]string) {
	for _, field := range queue.DirectiveMapping().Fields() {
		if v, ok := values[field.Name]; ok {
			f.setCell(sheetName, fmt.Sprintf("%s%d", field.Column, index), v)
		}
	}
}

// fakeCatalogSource is an in-memory CatalogSource.
type fakeCatalogSource struct {
	groups  []string
	listErr error

	denominations    map[string]map[string]json.Number
	denominationErrs map[string]error

	notes    map[string]vendor.Notes
	noteErrs map[string]error

	listCalls int
	noteCalls atomic.Int32
}

var _ CatalogSource = (*fakeCatalogSource)(nil)

func (f *fakeCatalogSource) ListAvailableSkuGroups(_ context.Context) ([]string, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.groups, nil
}

func (f *fakeCatalogSource) GetDenominations(_ context.Context, skuGroup string) (map[string]json.Number, error) {
	if err := f.denominationErrs[skuGroup]; err != nil {
		return nil, err
	}
	return f.denominations[skuGroup], nil
}

func (f *fakeCatalogSource) GetNotes(_ context.Context, skuGroup string) (vendor.Notes, error) {
	f.noteCalls.Add(1)
	if err := f.noteErrs[skuGroup]; err != nil {
		return vendor.Notes{}, err
	}
	return f.notes[skuGroup], nil
}
