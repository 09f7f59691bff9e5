package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// GridRange is a rectangular sheet region in zero-based grid coordinates.
// End indexes are exclusive; a zero end index means the range is unbounded
// in that dimension.
type GridRange struct {
	StartRowIndex    int
	EndRowIndex      int
	StartColumnIndex int
	EndColumnIndex   int
}

// ColumnIndex converts a column letter ("A", "AA") to its 1-based index.
func ColumnIndex(letters string) (int, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return 0, fmt.Errorf("column letters cannot be empty")
	}
	index := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column letters: %q", letters)
		}
		index = index*26 + int(r-'A') + 1
	}
	return index, nil
}

// ColumnLetter converts a 1-based column index to its letter form.
func ColumnLetter(index int) (string, error) {
	if index < 1 {
		return "", fmt.Errorf("column index must be positive, got %d", index)
	}
	var letters []byte
	for index > 0 {
		index--
		letters = append([]byte{byte('A' + index%26)}, letters...)
		index /= 26
	}
	return string(letters), nil
}

// ParseRange converts an A1-notation range ("N", "N5", "N5:N100", "A1:B2")
// to grid coordinates.
func ParseRange(a1 string) (GridRange, error) {
	a1 = strings.TrimSpace(a1)
	if a1 == "" {
		return GridRange{}, fmt.Errorf("range cannot be empty")
	}

	start, end, found := strings.Cut(a1, ":")
	if !found {
		end = start
	}

	startCol, startRow, err := parseEndpoint(start)
	if err != nil {
		return GridRange{}, fmt.Errorf("invalid range %q: %w", a1, err)
	}
	endCol, endRow, err := parseEndpoint(end)
	if err != nil {
		return GridRange{}, fmt.Errorf("invalid range %q: %w", a1, err)
	}

	gr := GridRange{
		StartColumnIndex: startCol - 1,
		EndColumnIndex:   endCol,
	}
	if startRow > 0 {
		gr.StartRowIndex = startRow - 1
	}
	gr.EndRowIndex = endRow
	return gr, nil
}

// parseEndpoint splits one range endpoint into column letters and an
// optional 1-based row number (0 when absent).
func parseEndpoint(endpoint string) (col, row int, err error) {
	endpoint = strings.ToUpper(strings.TrimSpace(endpoint))
	split := len(endpoint)
	for i, r := range endpoint {
		if r >= '0' && r <= '9' {
			split = i
			break
		}
	}
	if split == 0 {
		return 0, 0, fmt.Errorf("endpoint %q has no column letters", endpoint)
	}

	col, err = ColumnIndex(endpoint[:split])
	if err != nil {
		return 0, 0, err
	}
	if split < len(endpoint) {
		row, err = strconv.Atoi(endpoint[split:])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("endpoint %q has an invalid row number", endpoint)
		}
	}
	return col, row, nil
}
