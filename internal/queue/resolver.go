package queue

import (
	"context"
	"strconv"

	"github.com/sosanhsach/pricesync/internal/logger"
	"github.com/sosanhsach/pricesync/internal/retrypolicy"
	"github.com/sosanhsach/pricesync/internal/sheet"
)

// ResolvedCell is the dynamically resolved write-back target of one
// free-form row.
type ResolvedCell struct {
	SheetID   string
	SheetName string
	Cell      string
}

// resolutionGroup keys rows sharing one code-column fetch.
type resolutionGroup struct {
	sheetID   string
	sheetName string
	codeCol   string
}

// ResolveNoteCells resolves the write-back cell of each free-form row by
// scanning its target sheet's code column for an exact trimmed match of
// the row's lookup code. Rows are grouped by (target sheet, code column)
// so each code column is fetched once. When several cells match, the last
// match in scan order wins. The returned slice lists row indexes that
// could not be resolved; their updates are dropped, best-effort.
func (m *Model) ResolveNoteCells(ctx context.Context, rows []Directive) (map[int]ResolvedCell, []int, error) {
	resolved := make(map[int]ResolvedCell)
	var unresolved []int

	// Group in first-seen order to keep fetches and results deterministic.
	var order []resolutionGroup
	groups := make(map[resolutionGroup][]Directive)
	for _, row := range rows {
		if !row.HasRouting() {
			logger.Warnf("Row %d passed for resolution without routing fields, skipping", row.Index)
			unresolved = append(unresolved, row.Index)
			continue
		}
		key := resolutionGroup{
			sheetID:   row.TargetSheetID,
			sheetName: row.TargetSheetName,
			codeCol:   row.CodeColumnLetter,
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	for _, key := range order {
		members := groups[key]

		codeGrid, err := sheet.ParseRange(key.codeCol)
		if err != nil {
			logger.Warnf("Invalid code column %q on sheet %s, dropping %d rows: %v",
				key.codeCol, key.sheetName, len(members), err)
			for _, row := range members {
				unresolved = append(unresolved, row.Index)
			}
			continue
		}

		// One fetch per (sheet, code column) group.
		columnIndex := codeGrid.StartColumnIndex + 1
		values, err := retrypolicy.DoValue(ctx, m.readRetry, "ResolveNoteCells", func() ([]any, error) {
			return m.svc.ColumnValues(ctx, key.sheetID, key.sheetName, columnIndex)
		})
		if err != nil {
			return nil, nil, err
		}

		for _, row := range members {
			noteGrid, err := sheet.ParseRange(row.NoteColumnLetter)
			if err != nil {
				logger.Warnf("Row %d has invalid note column %q: %v", row.Index, row.NoteColumnLetter, err)
				unresolved = append(unresolved, row.Index)
				continue
			}
			noteLetter, err := sheet.ColumnLetter(noteGrid.StartColumnIndex + 1)
			if err != nil {
				unresolved = append(unresolved, row.Index)
				continue
			}

			matchOffset := -1
			for i, value := range values {
				if cellString(value) == row.LookupCode {
					matchOffset = i
				}
			}
			if matchOffset < 0 {
				unresolved = append(unresolved, row.Index)
				continue
			}

			targetRow := codeGrid.StartRowIndex + matchOffset + 1
			resolved[row.Index] = ResolvedCell{
				SheetID:   row.TargetSheetID,
				SheetName: row.TargetSheetName,
				Cell:      noteLetter + strconv.Itoa(targetRow),
			}
		}
	}

	return resolved, unresolved, nil
}
