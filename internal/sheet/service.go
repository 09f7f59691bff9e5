// Package sheet provides row-range access to an externally owned
// spreadsheet service. The Service interface is the only surface the rest
// of the process sees; the Google Sheets implementation lives in google.go.
package sheet

import "context"

// ValueUpdate is a single-cell write targeting an A1 range.
type ValueUpdate struct {
	// Range is an A1 cell reference without the sheet name, e.g. "G12".
	Range string
	// Value is written with user-entered semantics, so the spreadsheet
	// applies its own type coercion to numbers and strings.
	Value any
}

// Service is a batched cell-range view of one spreadsheet backend.
type Service interface {
	// BatchGetFirst fetches the given A1 ranges in one request and returns
	// the first cell value of each range, position-aligned with ranges.
	// Blank ranges yield nil.
	BatchGetFirst(ctx context.Context, spreadsheetID, sheetName string, ranges []string) ([]any, error)

	// BatchUpdate writes all updates in one request using user-entered
	// value semantics.
	BatchUpdate(ctx context.Context, spreadsheetID, sheetName string, updates []ValueUpdate) error

	// ColumnValues returns the values of one column (1-based index),
	// top-to-bottom. Blank cells before the last populated one yield nil.
	ColumnValues(ctx context.Context, spreadsheetID, sheetName string, columnIndex int) ([]any, error)

	// CellValue returns the unformatted value of a single cell, or nil
	// when the cell is blank.
	CellValue(ctx context.Context, spreadsheetID, sheetName, cell string) (any, error)
}
