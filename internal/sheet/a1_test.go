package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		letters  string
		expected int
	}{
		{letters: "A", expected: 1},
		{letters: "B", expected: 2},
		{letters: "Z", expected: 26},
		{letters: "AA", expected: 27},
		{letters: "AZ", expected: 52},
		{letters: "BA", expected: 53},
		{letters: "n", expected: 14},
		{letters: " P ", expected: 16},
	}

	for _, tt := range tests {
		t.Run(tt.letters, func(t *testing.T) {
			t.Parallel()
			index, err := ColumnIndex(tt.letters)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, index)
		})
	}

	_, err := ColumnIndex("")
	assert.Error(t, err)
	_, err = ColumnIndex("A1")
	assert.Error(t, err)
}

func TestColumnLetter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index    int
		expected string
	}{
		{index: 1, expected: "A"},
		{index: 26, expected: "Z"},
		{index: 27, expected: "AA"},
		{index: 52, expected: "AZ"},
		{index: 53, expected: "BA"},
	}

	for _, tt := range tests {
		letter, err := ColumnLetter(tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, letter)
	}

	_, err := ColumnLetter(0)
	assert.Error(t, err)
}

func TestColumnRoundTrip(t *testing.T) {
	t.Parallel()

	for i := 1; i <= 200; i++ {
		letter, err := ColumnLetter(i)
		require.NoError(t, err)
		index, err := ColumnIndex(letter)
		require.NoError(t, err)
		assert.Equal(t, i, index)
	}
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a1       string
		expected GridRange
	}{
		{
			name:     "bare column",
			a1:       "N",
			expected: GridRange{StartColumnIndex: 13, EndColumnIndex: 14},
		},
		{
			name:     "single cell",
			a1:       "N5",
			expected: GridRange{StartRowIndex: 4, EndRowIndex: 5, StartColumnIndex: 13, EndColumnIndex: 14},
		},
		{
			name:     "column slice",
			a1:       "N5:N100",
			expected: GridRange{StartRowIndex: 4, EndRowIndex: 100, StartColumnIndex: 13, EndColumnIndex: 14},
		},
		{
			name:     "rectangle",
			a1:       "A1:B2",
			expected: GridRange{StartRowIndex: 0, EndRowIndex: 2, StartColumnIndex: 0, EndColumnIndex: 2},
		},
		{
			name:     "unbounded column pair",
			a1:       "C:C",
			expected: GridRange{StartColumnIndex: 2, EndColumnIndex: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gr, err := ParseRange(tt.a1)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, gr)
		})
	}

	for _, bad := range []string{"", "5", "5:6", "A0"} {
		_, err := ParseRange(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}
