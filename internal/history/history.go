// Package history keeps a bounded undo/redo stack of value snapshots.
//
// A History holds deep copies made with a caller supplied clone function.
// Snapshots never alias values handed to Push or returned from Undo/Redo.
//
//	h := history.New(grid.Clone, history.DefaultMaxSize)
//	h.Push(before)
//	prev, err := h.Undo()
//
// History is not safe for concurrent use.
package history

import "errors"

// DefaultMaxSize is the capacity used when none is configured.
const DefaultMaxSize = 50

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// CloneFunc returns a copy of v that shares no mutable state with it.
type CloneFunc[T any] func(v T) T

// History is a linear list of snapshots with a cursor on the present one.
// Entries after the cursor are redo states.
type History[T any] struct {
	clone   CloneFunc[T]
	entries []T
	cursor  int
	maxSize int
}

// New creates an empty history. A nil clone copies values by assignment,
// which is only correct for value types without references.
func New[T any](clone CloneFunc[T], maxSize int) *History[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &History[T]{
		clone:   clone,
		cursor:  -1,
		maxSize: maxSize,
	}
}

// NewWithInitial creates a history holding one snapshot of initial.
func NewWithInitial[T any](clone CloneFunc[T], maxSize int, initial T) *History[T] {
	h := New(clone, maxSize)
	h.Push(initial)
	return h
}

// Push records a copy of v after the cursor, dropping any redo states.
// When full, the oldest entry is evicted and the cursor stays put.
func (h *History[T]) Push(v T) {
	if h.cursor < len(h.entries)-1 {
		clear(h.entries[h.cursor+1:])
		h.entries = h.entries[:h.cursor+1]
	}

	h.entries = append(h.entries, h.clone(v))

	// The first snapshot is always kept, so a non-positive capacity
	// degrades to holding only the latest one.
	if len(h.entries) > h.maxSize && h.cursor >= 0 {
		var zero T
		h.entries[0] = zero
		h.entries = h.entries[1:]
		return
	}
	h.cursor++
}

// Undo moves the cursor back and returns a copy of that snapshot.
func (h *History[T]) Undo() (T, error) {
	if !h.CanUndo() {
		var zero T
		return zero, ErrNothingToUndo
	}
	h.cursor--
	return h.clone(h.entries[h.cursor]), nil
}

// Redo moves the cursor forward and returns a copy of that snapshot.
func (h *History[T]) Redo() (T, error) {
	if !h.CanRedo() {
		var zero T
		return zero, ErrNothingToRedo
	}
	h.cursor++
	return h.clone(h.entries[h.cursor]), nil
}

// CanUndo reports whether a snapshot exists before the cursor.
func (h *History[T]) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether a snapshot exists after the cursor.
func (h *History[T]) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Reset drops every snapshot.
func (h *History[T]) Reset() {
	clear(h.entries)
	h.entries = h.entries[:0]
	h.cursor = -1
}

// ResetTo drops every snapshot and records initial as the only one.
func (h *History[T]) ResetTo(initial T) {
	h.Reset()
	h.Push(initial)
}

// Current returns a copy of the snapshot under the cursor.
func (h *History[T]) Current() (T, bool) {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		var zero T
		return zero, false
	}
	return h.clone(h.entries[h.cursor]), true
}

// Entry returns a copy of the snapshot at index i, oldest first.
func (h *History[T]) Entry(i int) (T, bool) {
	if i < 0 || i >= len(h.entries) {
		var zero T
		return zero, false
	}
	return h.clone(h.entries[i]), true
}

// Len returns the number of retained snapshots.
func (h *History[T]) Len() int { return len(h.entries) }

// Cursor returns the index of the present snapshot, or -1 when empty.
func (h *History[T]) Cursor() int { return h.cursor }

// MaxSize returns the configured capacity.
func (h *History[T]) MaxSize() int { return h.maxSize }
