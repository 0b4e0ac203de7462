package app

import (
	"errors"
	"strconv"
	"strings"

	"gridsheet/internal/codec"
	"gridsheet/internal/document"
	"gridsheet/internal/grid"
	"gridsheet/internal/history"
	"gridsheet/internal/storage"
)

// ----------------------------- Commands / Storage -----------------------------

// ExecuteCommand runs one ":" command line (without the colon).
func (a *App) ExecuteCommand(cmd string) {
	parts := strings.Fields(strings.TrimPrefix(strings.TrimSpace(cmd), ":"))
	if len(parts) == 0 {
		return
	}
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}
	switch parts[0] {
	case "q", "quit":
		if a.Doc.Dirty() {
			a.Notice = a.Lang.T("notice.unsaved")
			return
		}
		a.Quit = true
	case "q!", "quit!":
		a.Quit = true
	case "w", "write":
		a.Save(arg)
	case "wq", "x":
		if a.Save(arg) {
			a.Quit = true
		}
	case "o", "e", "open":
		if arg == "" {
			a.Notice = a.Lang.T("notice.noFile")
			return
		}
		if a.Doc.Dirty() {
			a.Notice = a.Lang.T("notice.unsaved")
			return
		}
		a.Open(arg)
	case "o!", "e!":
		if arg == "" {
			arg = a.FileName
		}
		if arg == "" {
			a.Notice = a.Lang.T("notice.noFile")
			return
		}
		a.Open(arg)
	case "goto", "g":
		row, col, ok := grid.ParseCellRef(arg)
		if !ok {
			a.Notice = a.Lang.Tf("notice.badAddress", arg)
			return
		}
		if row >= a.Doc.Rows() || col >= a.Doc.Cols() {
			a.Notice = a.Lang.T("notice.outOfBounds")
			return
		}
		a.CurRow, a.CurCol = row, col
	case "cw":
		switch {
		case arg == "reset":
			a.Doc.ResetColumnWidths()
		default:
			// width in terminal cells for the current column
			v, err := strconv.Atoi(arg)
			if err != nil || v < 1 {
				a.Notice = a.Lang.Tf("notice.unknownCommand", cmd)
				return
			}
			a.notify(a.Doc.SetColumnWidth(a.CurCol, v*grid.DefaultColumnWidth/a.ColWidth))
		}
	case "lang":
		if !a.SetLocale(arg) {
			a.Notice = a.Lang.Tf("notice.unknownCommand", cmd)
		}
	case "addrow":
		a.Mutate(document.AddRow)
	case "addcol":
		a.Mutate(document.AddColumn)
	case "delrow":
		a.Mutate(document.DeleteRow)
	case "delcol":
		a.Mutate(document.DeleteColumn)
	default:
		a.Notice = a.Lang.Tf("notice.unknownCommand", cmd)
	}
}

// Open loads filename, replacing the document and its history.
func (a *App) Open(filename string) {
	text, err := storage.Load(a.Doc, filename)
	a.CurRow, a.CurCol, a.ViewRow, a.ViewCol = 0, 0, 0, 0
	if err != nil && !storage.IsParseError(err) {
		a.Log.Printf("open %s: %v", filename, err)
		a.notify(err)
		return
	}
	a.FileName = filename
	a.diskText = text
	a.restartWatcher()
	a.Log.Printf("opened %s (%dx%d)", filename, a.Doc.Rows(), a.Doc.Cols())
	if err != nil {
		a.notify(err)
		return
	}
	a.Notice = a.Lang.Tf("notice.loaded", filename)
	a.noteWarnings()
}

// Save writes the document to filename, or to the current file when empty.
func (a *App) Save(filename string) bool {
	if filename == "" {
		filename = a.FileName
	}
	if filename == "" {
		a.Notice = a.Lang.T("notice.noFile")
		return false
	}
	text, err := storage.Save(a.Doc, filename)
	if err != nil {
		a.Log.Printf("save %s: %v", filename, err)
		a.notify(err)
		return false
	}
	a.diskText = text
	if filename != a.FileName {
		a.FileName = filename
		a.restartWatcher()
	}
	a.Log.Printf("saved %s", filename)
	a.Notice = a.Lang.Tf("notice.saved", filename)
	return true
}

// reloadFromDisk picks up external edits to the open file. Unsaved work
// is never overwritten.
func (a *App) reloadFromDisk(filename string) {
	if filename != a.FileName || a.Doc.Dirty() {
		return
	}
	text, changed, err := storage.Reload(a.Doc, filename, a.diskText)
	if err != nil && !storage.IsParseError(err) {
		a.Log.Printf("reload %s: %v", filename, err)
		return
	}
	if !changed {
		return
	}
	a.diskText = text
	if err != nil {
		a.Log.Printf("reload %s: keeping current grid: %v", filename, err)
		a.notify(err)
		return
	}
	a.clampCursor()
	a.Log.Printf("reloaded %s", filename)
	a.Notice = a.Lang.Tf("notice.reloaded", filename)
	a.noteWarnings()
}

func (a *App) noteWarnings() {
	if w := a.Doc.Warnings(); len(w) > 0 {
		a.Notice = a.Lang.Tf("notice.parseWarning", w[0].String())
	}
}

// notify turns an operation error into a status line notice.
func (a *App) notify(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, history.ErrNothingToUndo):
		a.Notice = a.Lang.T("notice.nothingToUndo")
	case errors.Is(err, history.ErrNothingToRedo):
		a.Notice = a.Lang.T("notice.nothingToRedo")
	case errors.Is(err, grid.ErrOutOfBounds):
		a.Notice = a.Lang.T("notice.outOfBounds")
	case errors.Is(err, codec.ErrParse):
		a.Notice = a.Lang.T("notice.parseFailed")
	default:
		a.Notice = a.Lang.Tf("notice.error", err)
	}
}
