package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMinimumSize is returned when a delete would leave the grid without rows or columns.
	ErrMinimumSize = errors.New("minimum grid size reached")

	// ErrOutOfBounds is returned for a cell address outside the grid extent.
	ErrOutOfBounds = errors.New("cell address out of bounds")

	// ErrNotRectangular is returned by Validate for jagged or empty grids.
	ErrNotRectangular = errors.New("grid is not rectangular")
)

// Grid is a rectangular table of text cells addressed as g[row][col].
type Grid [][]string

// New builds an empty grid with the given shape, clamped to at least 1x1.
func New(rows, cols int) Grid {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	g := make(Grid, rows)
	for r := range g {
		g[r] = make([]string, cols)
	}
	return g
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the column count of row 0.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Cell returns the text at (row, col) and false if the address is outside the grid.
func (g Grid) Cell(row, col int) (string, bool) {
	if !g.InBounds(row, col) {
		return "", false
	}
	return g[row][col], true
}

// InBounds reports whether (row, col) addresses an existing cell.
func (g Grid) InBounds(row, col int) bool {
	return row >= 0 && row < len(g) && col >= 0 && col < len(g[row])
}

// Clone returns a structural copy: every row is a fresh slice.
func Clone(g Grid) Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for r, row := range g {
		out[r] = append([]string(nil), row...)
	}
	return out
}

// Equal reports whether a and b have the same shape and contents.
func Equal(a, b Grid) bool {
	if len(a) != len(b) {
		return false
	}
	for r := range a {
		if len(a[r]) != len(b[r]) {
			return false
		}
		for c := range a[r] {
			if a[r][c] != b[r][c] {
				return false
			}
		}
	}
	return true
}

// Validate checks the non-empty and rectangular invariants.
func Validate(g Grid) error {
	if len(g) == 0 || len(g[0]) == 0 {
		return fmt.Errorf("%w: empty", ErrNotRectangular)
	}
	want := len(g[0])
	for r, row := range g {
		if len(row) != want {
			return fmt.Errorf("%w: row %d has %d fields, want %d", ErrNotRectangular, r+1, len(row), want)
		}
	}
	return nil
}

// ColumnLabel: 0 -> A, 25 -> Z, 26 -> AA and so on
func ColumnLabel(col int) string {
	if col < 0 {
		return "?"
	}
	var b []byte
	n := col + 1
	for n > 0 {
		n--
		b = append(b, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// CellAddress builds a cell name from 0-based row, col -> e.g., row 0, col 1 -> "B1"
func CellAddress(row, col int) string {
	return ColumnLabel(col) + strconv.Itoa(row+1)
}

// ParseCellRef parses names like A1, AA10 returning 0-based (row, col).
// Accepts sheet prefixes like Sheet!A1 and removes $ signs.
func ParseCellRef(name string) (int, int, bool) {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndex(name, "!"); idx != -1 {
		name = strings.TrimSpace(name[idx+1:])
	}
	name = strings.ReplaceAll(name, "$", "")
	if name == "" {
		return 0, 0, false
	}

	i := 0
	for i < len(name) && isLetter(name[i]) {
		i++
	}
	if i == 0 || i >= len(name) {
		return 0, 0, false
	}
	colPart := strings.ToUpper(name[:i])
	rowPart := name[i:]
	for j := 0; j < len(rowPart); j++ {
		if !isDigit(rowPart[j]) {
			return 0, 0, false
		}
	}
	col := 0
	for j := 0; j < len(colPart); j++ {
		col = col*26 + int(colPart[j]-'A') + 1
	}
	col--
	rowNum, err := strconv.Atoi(rowPart)
	if err != nil {
		return 0, 0, false
	}
	row := rowNum - 1
	if row < 0 || col < 0 {
		return 0, 0, false
	}
	return row, col, true
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
