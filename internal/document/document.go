// Package document owns the live grid of an open table and sequences
// every mutation with its history snapshot.
//
// A Document always holds a valid grid: at least one row and one column,
// every row as wide as the first. All failures are reported as errors and
// leave the document unchanged and usable:
//
//   - *codec.ParseError from Load: the grid falls back to a single empty cell.
//   - *codec.ParseError from Refresh: the current grid is kept.
//   - grid.ErrMinimumSize from Mutate: the delete was rejected.
//   - grid.ErrOutOfBounds from SetCell: the write was ignored.
//   - history.ErrNothingToUndo / ErrNothingToRedo: nothing changed.
//
// A Document is not safe for concurrent use; callers serialize access.
package document

import (
	"fmt"

	"gridsheet/internal/codec"
	"gridsheet/internal/grid"
	"gridsheet/internal/history"
)

// Mutation is a structural change applied to the whole grid.
type Mutation int

const (
	AddRow Mutation = iota
	DeleteRow
	AddColumn
	DeleteColumn
)

func (m Mutation) String() string {
	switch m {
	case AddRow:
		return "addRow"
	case DeleteRow:
		return "deleteRow"
	case AddColumn:
		return "addColumn"
	case DeleteColumn:
		return "deleteColumn"
	}
	return fmt.Sprintf("Mutation(%d)", int(m))
}

func (m Mutation) apply(g grid.Grid) (grid.Grid, error) {
	switch m {
	case AddRow:
		return grid.AddRow(g), nil
	case DeleteRow:
		return grid.DeleteRow(g)
	case AddColumn:
		return grid.AddColumn(g), nil
	case DeleteColumn:
		return grid.DeleteColumn(g)
	}
	return g, fmt.Errorf("unknown mutation %d", int(m))
}

// Document is an editable table backed by delimited text.
type Document struct {
	grid     grid.Grid
	hist     *history.History[grid.Grid]
	histSize int
	opts     codec.Options
	dirty    bool
	widths   []int
	warnings []codec.Warning
}

// Option configures a Document.
type Option func(*Document)

// WithCodecOptions sets the delimiter and line handling for Load and Serialize.
func WithCodecOptions(opts codec.Options) Option {
	return func(d *Document) { d.opts = opts }
}

// WithHistorySize sets the undo capacity.
func WithHistorySize(n int) Option {
	return func(d *Document) { d.histSize = n }
}

// New creates a document holding a single empty cell.
func New(opts ...Option) *Document {
	d := &Document{
		grid:     grid.Grid{{""}},
		histSize: history.DefaultMaxSize,
		opts:     codec.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.hist = history.NewWithInitial(grid.Clone, d.histSize, d.grid)
	return d
}

// Load replaces the document with text and starts a fresh history.
// A parse failure still leaves a valid single-cell document; the
// returned *codec.ParseError is informational.
func (d *Document) Load(text string) error {
	err := d.load(text)
	d.hist.ResetTo(d.grid)
	d.widths = nil
	d.dirty = false
	return err
}

// Refresh replaces the grid with text but keeps the undo history, for
// reloading a file that changed underneath the document. Text that does
// not parse leaves the document as it was and returns the *codec.ParseError.
func (d *Document) Refresh(text string) error {
	res, err := codec.Parse(text, d.opts)
	if err != nil {
		return err
	}
	d.grid = res.Grid
	d.warnings = res.Warnings
	d.dirty = false
	return nil
}

func (d *Document) load(text string) error {
	res, err := codec.Parse(text, d.opts)
	d.grid = res.Grid
	d.warnings = res.Warnings
	return err
}

// Clear resets the document to a single empty cell with a fresh history.
func (d *Document) Clear() {
	d.grid = grid.Grid{{""}}
	d.hist.ResetTo(d.grid)
	d.widths = nil
	d.warnings = nil
	d.dirty = false
}

// Serialize returns the grid as delimited text.
func (d *Document) Serialize() (string, error) {
	return codec.Serialize(d.grid, d.opts)
}

// SetCell writes value at (row, col). Changing a cell first records the
// grid as it was; writing the value already present records nothing.
func (d *Document) SetCell(row, col int, value string) error {
	cur, ok := d.grid.Cell(row, col)
	if !ok {
		return fmt.Errorf("%w: %s", grid.ErrOutOfBounds, d.address(row, col))
	}
	if cur == value {
		return nil
	}
	d.hist.Push(d.grid)
	d.grid[row][col] = value
	d.dirty = true
	return nil
}

func (d *Document) address(row, col int) string {
	if row < 0 || col < 0 {
		return fmt.Sprintf("(%d,%d)", row, col)
	}
	return grid.CellAddress(row, col)
}

// Mutate applies a structural change. A rejected delete returns
// grid.ErrMinimumSize and records no history.
func (d *Document) Mutate(m Mutation) error {
	next, err := m.apply(d.grid)
	if err != nil {
		return fmt.Errorf("%s: %w", m, err)
	}
	d.hist.Push(d.grid)
	d.grid = next
	d.dirty = true
	return nil
}

// Undo restores the previous distinct state. When there is none the
// document and its history are left untouched.
func (d *Document) Undo() error {
	if d.undoTarget() < 0 {
		return history.ErrNothingToUndo
	}
	// Snapshots are taken before each change, so the latest state is only
	// in history once it is captured here; otherwise redo could not return to it.
	if d.tipDiffers() {
		d.hist.Push(d.grid)
	}
	return d.step(d.hist.Undo)
}

// Redo reapplies the next distinct state undone earlier.
func (d *Document) Redo() error {
	if d.redoTarget() < 0 {
		return history.ErrNothingToRedo
	}
	return d.step(d.hist.Redo)
}

// step moves through history until the grid actually changes. Callers
// check first that such a snapshot exists.
func (d *Document) step(move func() (grid.Grid, error)) error {
	for {
		g, err := move()
		if err != nil {
			return err
		}
		if grid.Equal(g, d.grid) {
			continue
		}
		if err := grid.Validate(g); err != nil {
			return fmt.Errorf("history snapshot: %w", err)
		}
		d.grid = g
		d.dirty = true
		return nil
	}
}

// tipDiffers reports whether the live grid has moved past the snapshot
// under the history cursor.
func (d *Document) tipDiffers() bool {
	cur, ok := d.hist.Current()
	return ok && !grid.Equal(cur, d.grid)
}

// undoTarget returns the index of the newest snapshot Undo would restore,
// or -1. A history of capacity one only ever holds the live state.
func (d *Document) undoTarget() int {
	if d.hist.MaxSize() <= 1 {
		return -1
	}
	i := d.hist.Cursor() - 1
	if d.tipDiffers() {
		i = d.hist.Cursor()
	}
	for ; i >= 0; i-- {
		if g, _ := d.hist.Entry(i); !grid.Equal(g, d.grid) {
			return i
		}
	}
	return -1
}

// redoTarget returns the index of the snapshot Redo would restore, or -1.
func (d *Document) redoTarget() int {
	for i := d.hist.Cursor() + 1; i < d.hist.Len(); i++ {
		if g, _ := d.hist.Entry(i); !grid.Equal(g, d.grid) {
			return i
		}
	}
	return -1
}

// CanUndo reports whether Undo would change the grid.
func (d *Document) CanUndo() bool { return d.undoTarget() >= 0 }

// CanRedo reports whether Redo would change the grid.
func (d *Document) CanRedo() bool { return d.redoTarget() >= 0 }

// Grid returns a copy of the live grid.
func (d *Document) Grid() grid.Grid { return grid.Clone(d.grid) }

// Cell returns the text at (row, col).
func (d *Document) Cell(row, col int) (string, bool) { return d.grid.Cell(row, col) }

// Rows returns the row count.
func (d *Document) Rows() int { return d.grid.Rows() }

// Cols returns the column count.
func (d *Document) Cols() int { return d.grid.Cols() }

// Options returns the codec options used by Load and Serialize.
func (d *Document) Options() codec.Options { return d.opts }

// Warnings returns the row-level warnings of the most recent load.
func (d *Document) Warnings() []codec.Warning { return d.warnings }

// Dirty reports whether the grid changed since the last load or ClearDirty.
func (d *Document) Dirty() bool { return d.dirty }

// ClearDirty is called by the host once the document has been persisted.
func (d *Document) ClearDirty() { d.dirty = false }

// ColumnWidths returns advisory widths, estimated from the content the
// first time they are needed. The slice may be shorter than Cols after
// columns are added; use ColumnWidth for a defaulted lookup.
func (d *Document) ColumnWidths() []int {
	if d.widths == nil {
		d.widths = grid.EstimateColumnWidths(d.grid)
	}
	return append([]int(nil), d.widths...)
}

// ColumnWidth returns the width of col, or grid.DefaultColumnWidth when unknown.
func (d *Document) ColumnWidth(col int) int {
	if d.widths == nil {
		d.widths = grid.EstimateColumnWidths(d.grid)
	}
	if col >= 0 && col < len(d.widths) && d.widths[col] > 0 {
		return d.widths[col]
	}
	return grid.DefaultColumnWidth
}

// SetColumnWidth overrides the width of col, clamped to grid.MinColumnWidth.
func (d *Document) SetColumnWidth(col, width int) error {
	if col < 0 || col >= d.grid.Cols() {
		return fmt.Errorf("%w: column %d", grid.ErrOutOfBounds, col)
	}
	if d.widths == nil {
		d.widths = grid.EstimateColumnWidths(d.grid)
	}
	for len(d.widths) <= col {
		d.widths = append(d.widths, grid.DefaultColumnWidth)
	}
	d.widths[col] = max(width, grid.MinColumnWidth)
	return nil
}

// ResetColumnWidths drops overrides and re-estimates on next use.
func (d *Document) ResetColumnWidths() { d.widths = nil }
