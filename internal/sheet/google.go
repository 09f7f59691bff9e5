package sheet

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const userEnteredOption = "USER_ENTERED"

// GoogleService implements Service on the Google Sheets v4 API.
type GoogleService struct {
	svc *sheets.Service
}

var _ Service = (*GoogleService)(nil)

// NewGoogleService creates a Sheets-backed service authenticated with the
// service account key at credentialsFile.
func NewGoogleService(ctx context.Context, credentialsFile string) (*GoogleService, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &GoogleService{svc: svc}, nil
}

// BatchGetFirst fetches the given ranges in one request and returns the
// first cell of each.
func (g *GoogleService) BatchGetFirst(ctx context.Context, spreadsheetID, sheetName string, ranges []string) ([]any, error) {
	if len(ranges) == 0 {
		return nil, nil
	}

	qualified := make([]string, len(ranges))
	for i, r := range ranges {
		qualified[i] = qualifyRange(sheetName, r)
	}

	resp, err := g.svc.Spreadsheets.Values.BatchGet(spreadsheetID).
		Ranges(qualified...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to batch get %d ranges from %s: %w", len(ranges), sheetName, err)
	}
	if len(resp.ValueRanges) != len(ranges) {
		return nil, fmt.Errorf("batch get returned %d ranges, expected %d", len(resp.ValueRanges), len(ranges))
	}

	values := make([]any, len(resp.ValueRanges))
	for i, vr := range resp.ValueRanges {
		values[i] = firstCell(vr)
	}
	return values, nil
}

// BatchUpdate writes all updates in one request with user-entered semantics.
func (g *GoogleService) BatchUpdate(ctx context.Context, spreadsheetID, sheetName string, updates []ValueUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, len(updates))
	for i, u := range updates {
		data[i] = &sheets.ValueRange{
			Range:  qualifyRange(sheetName, u.Range),
			Values: [][]any{{u.Value}},
		}
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: userEnteredOption,
		Data:             data,
	}
	if _, err := g.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to batch update %d cells on %s: %w", len(updates), sheetName, err)
	}
	return nil
}

// ColumnValues returns one column top-to-bottom.
func (g *GoogleService) ColumnValues(ctx context.Context, spreadsheetID, sheetName string, columnIndex int) ([]any, error) {
	letter, err := ColumnLetter(columnIndex)
	if err != nil {
		return nil, err
	}

	rng := qualifyRange(sheetName, fmt.Sprintf("%s:%s", letter, letter))
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get column %s of %s: %w", letter, sheetName, err)
	}

	values := make([]any, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) > 0 {
			values = append(values, row[0])
		} else {
			values = append(values, nil)
		}
	}
	return values, nil
}

// CellValue returns the unformatted value of a single cell.
func (g *GoogleService) CellValue(ctx context.Context, spreadsheetID, sheetName, cell string) (any, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, qualifyRange(sheetName, cell)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get cell %s of %s: %w", cell, sheetName, err)
	}
	return firstCell(resp), nil
}

func firstCell(vr *sheets.ValueRange) any {
	if vr == nil || len(vr.Values) == 0 || len(vr.Values[0]) == 0 {
		return nil
	}
	return vr.Values[0][0]
}

// qualifyRange prefixes a range with its sheet name, quoted so names with
// spaces or punctuation survive.
func qualifyRange(sheetName, rng string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheetName, "'", "''"), rng)
}
