package app

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"

	"gridsheet/internal/grid"
)

var errNoClipboard = errors.New("no clipboard utility found")

// Clipboard is the system clipboard, replaceable in tests.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard goes through xclip, xsel, wl-clipboard or the
// platform API, whichever is available.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", errNoClipboard
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errNoClipboard
	}
	return clipboard.WriteAll(text)
}

// Yank copies the current cell.
func (a *App) Yank() {
	text, _ := a.Doc.Cell(a.CurRow, a.CurCol)
	if err := a.Clip.WriteAll(text); err != nil {
		a.Log.Printf("clipboard write: %v", err)
		a.Notice = a.Lang.Tf("notice.clipboard", err)
		return
	}
	a.Notice = a.Lang.Tf("notice.copied", grid.CellAddress(a.CurRow, a.CurCol))
}

// Paste replaces the current cell with the clipboard text.
func (a *App) Paste() {
	text, err := a.Clip.ReadAll()
	if err != nil {
		a.Log.Printf("clipboard read: %v", err)
		a.Notice = a.Lang.Tf("notice.clipboard", err)
		return
	}
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if err := a.Doc.SetCell(a.CurRow, a.CurCol, text); err != nil {
		a.notify(err)
		return
	}
	a.Notice = a.Lang.Tf("notice.pasted", grid.CellAddress(a.CurRow, a.CurCol))
}
