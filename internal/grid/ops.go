package grid

import "github.com/mattn/go-runewidth"

const (
	DefaultColumnWidth = 100
	MinColumnWidth     = 50
	MaxColumnWidth     = 300

	// widthPerCell converts a cell's display length into width units.
	widthPerCell = 10
)

// AddRow appends a row of empty cells as wide as the grid.
func AddRow(g Grid) Grid {
	cols := g.Cols()
	if cols == 0 {
		cols = 1
	}
	out := make(Grid, 0, len(g)+1)
	out = append(out, g...)
	return append(out, make([]string, cols))
}

// DeleteRow removes the last row. A single-row grid is returned unchanged
// together with ErrMinimumSize.
func DeleteRow(g Grid) (Grid, error) {
	if len(g) <= 1 {
		return g, ErrMinimumSize
	}
	return append(Grid(nil), g[:len(g)-1]...), nil
}

// AddColumn appends an empty cell to every row.
func AddColumn(g Grid) Grid {
	out := make(Grid, len(g))
	for r, row := range g {
		nr := make([]string, len(row), len(row)+1)
		copy(nr, row)
		out[r] = append(nr, "")
	}
	return out
}

// DeleteColumn removes the last cell of every row. A single-column grid is
// returned unchanged together with ErrMinimumSize.
func DeleteColumn(g Grid) (Grid, error) {
	if g.Cols() <= 1 {
		return g, ErrMinimumSize
	}
	out := make(Grid, len(g))
	for r, row := range g {
		out[r] = append([]string(nil), row[:len(row)-1]...)
	}
	return out, nil
}

// EstimateColumnWidths returns an advisory width per column. Each column
// starts at DefaultColumnWidth and grows with its widest cell, where a cell
// contributes its display width times ten clamped to [MinColumnWidth, MaxColumnWidth].
func EstimateColumnWidths(g Grid) []int {
	widths := make([]int, g.Cols())
	for c := range widths {
		widths[c] = DefaultColumnWidth
	}
	for _, row := range g {
		for c, cell := range row {
			if c >= len(widths) {
				break
			}
			est := runewidth.StringWidth(cell) * widthPerCell
			est = max(MinColumnWidth, min(MaxColumnWidth, est))
			widths[c] = max(widths[c], est)
		}
	}
	return widths
}
