package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"gridsheet/internal/config"
	"gridsheet/internal/document"
	"gridsheet/internal/grid"
	"gridsheet/internal/i18n"
)

const (
	ModeNormal = "normal"
	ModeInsert = "insert"
)

type App struct {
	// layout
	LeftGutter  int
	StatusLines int
	CellPadding int
	ColWidth    int // terminal cells for a column of grid.DefaultColumnWidth

	// document
	Doc      *document.Document
	FileName string
	Watch    bool

	Catalog *i18n.Catalog
	Lang    *i18n.Table
	Log     *log.Logger
	Clip    Clipboard

	// cursor / view
	CurRow  int
	CurCol  int
	ViewRow int
	ViewCol int

	// UI state
	Mode     string
	InputBuf string
	Notice   string
	Quit     bool

	// editing behavior options
	MoveAfterEnter    bool
	SelectAllOnEdit   bool
	ReplaceOnNextRune bool

	HelpVisible bool

	diskText string
	watcher  *Watcher
	screen   tcell.Screen
}

func NewApp(doc *document.Document, cfg config.Config, catalog *i18n.Catalog) *App {
	a := &App{
		LeftGutter:      5,
		StatusLines:     2,
		CellPadding:     1,
		ColWidth:        cfg.UI.ColWidth,
		Doc:             doc,
		Watch:           cfg.UI.Watch,
		Catalog:         catalog,
		Log:             log.New(io.Discard, "", 0),
		Clip:            SystemClipboard{},
		Mode:            ModeNormal,
		MoveAfterEnter:  true,
		SelectAllOnEdit: true,
	}
	if a.ColWidth <= 0 {
		a.ColWidth = config.Default().UI.ColWidth
	}
	a.SetLocale(cfg.UI.Locale)
	return a
}

// SetLocale switches the message table. Unknown locales keep English.
func (a *App) SetLocale(locale string) bool {
	t, ok := a.Catalog.Table(locale)
	a.Lang = t
	return ok
}

// Run draws and handles events on s until the user quits.
func (a *App) Run(s tcell.Screen) {
	a.screen = s
	a.restartWatcher()
	defer a.closeWatcher()

	for !a.Quit {
		a.EnsureCursorVisible(s)
		a.Draw(s)
		ev := s.PollEvent()
		if ev == nil {
			return
		}
		a.HandleEvent(s, ev)
	}
}

// ----------------------------- Events / Input -----------------------------

// HandleEvent dispatches one event from the screen's queue.
func (a *App) HandleEvent(s tcell.Screen, ev tcell.Event) {
	switch tev := ev.(type) {
	case *tcell.EventKey:
		a.HandleKeyEvent(s, tev)
	case *tcell.EventResize:
		s.Sync()
	case *tcell.EventInterrupt:
		if fc, ok := tev.Data().(fileChanged); ok {
			a.reloadFromDisk(fc.path)
		}
	}
}

func (a *App) HandleKeyEvent(s tcell.Screen, ev *tcell.EventKey) {
	if a.Mode == ModeInsert {
		a.handleInsertKey(ev)
		return
	}

	// If help popup is visible, consume keys and only allow closing with Esc or "?"
	if a.HelpVisible {
		if ev.Key() == tcell.KeyEsc || ev.Rune() == '?' {
			a.HelpVisible = false
		}
		return
	}

	a.Notice = ""
	mod := ev.Modifiers()
	switch ev.Key() {
	case tcell.KeyEsc:
		// noop
	case tcell.KeyCtrlC:
		a.Quit = true
	case tcell.KeyCtrlZ:
		a.Undo()
	case tcell.KeyCtrlY:
		a.Redo()
	case tcell.KeyCtrlS:
		a.ExecuteCommand("w")
	case tcell.KeyUp:
		if a.CurRow > 0 {
			a.CurRow--
		}
	case tcell.KeyDown:
		if a.CurRow < a.Doc.Rows()-1 {
			a.CurRow++
		}
	case tcell.KeyLeft:
		if mod&tcell.ModCtrl != 0 {
			a.resizeColumn(a.CurCol, -1)
		} else if a.CurCol > 0 {
			a.CurCol--
		}
	case tcell.KeyRight:
		if mod&tcell.ModCtrl != 0 {
			a.resizeColumn(a.CurCol, 1)
		} else if a.CurCol < a.Doc.Cols()-1 {
			a.CurCol++
		}
	case tcell.KeyPgUp:
		vr, _ := a.ComputeVisible(s)
		a.CurRow = max(0, a.CurRow-vr)
	case tcell.KeyPgDn:
		vr, _ := a.ComputeVisible(s)
		a.CurRow = min(a.Doc.Rows()-1, a.CurRow+vr)
	case tcell.KeyHome:
		a.CurRow, a.CurCol = 0, 0
	case tcell.KeyEnd:
		a.CurRow, a.CurCol = a.Doc.Rows()-1, a.Doc.Cols()-1
	case tcell.KeyF2:
		a.Mutate(document.AddRow)
	case tcell.KeyF3:
		a.Mutate(document.AddColumn)
	case tcell.KeyF4:
		a.Mutate(document.DeleteRow)
	case tcell.KeyF5:
		a.Mutate(document.DeleteColumn)
	case tcell.KeyDelete:
		a.notify(a.Doc.SetCell(a.CurRow, a.CurCol, ""))
	case tcell.KeyEnter:
		a.startEdit()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			a.ExecuteCommand("q")
		case 'i':
			a.startEdit()
		case 'u':
			a.Undo()
		case 'r':
			a.Redo()
		case 'y':
			a.Yank()
		case 'p':
			a.Paste()
		case ':':
			command, ok := a.PopupInput(s, ":", "")
			if ok {
				a.ExecuteCommand(command)
			}
		case '=':
			cur, _ := a.Doc.Cell(a.CurRow, a.CurCol)
			value, ok := a.PopupInput(s, grid.CellAddress(a.CurRow, a.CurCol)+" =", cur)
			if ok {
				a.notify(a.Doc.SetCell(a.CurRow, a.CurCol, value))
			}
		case '?':
			a.HelpVisible = true
		}
	}
	a.clampCursor()
}

func (a *App) handleInsertKey(ev *tcell.EventKey) {
	mod := ev.Modifiers()
	switch ev.Key() {
	case tcell.KeyEsc:
		a.Mode = ModeNormal
		a.InputBuf = ""
		a.ReplaceOnNextRune = false
	case tcell.KeyEnter:
		// Shift+Enter or Alt+Enter -> insert newline into cell
		if mod&tcell.ModShift != 0 || mod&tcell.ModAlt != 0 {
			a.InputBuf += "\n"
			a.ReplaceOnNextRune = false
			return
		}
		a.commitEdit()
		// move after enter unless Ctrl held
		if mod&tcell.ModCtrl == 0 && a.MoveAfterEnter && a.CurRow < a.Doc.Rows()-1 {
			a.CurRow++
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if a.ReplaceOnNextRune {
			a.InputBuf = ""
		} else if r := []rune(a.InputBuf); len(r) > 0 {
			a.InputBuf = string(r[:len(r)-1])
		}
		a.ReplaceOnNextRune = false
	case tcell.KeyRune:
		r := ev.Rune()
		if a.ReplaceOnNextRune {
			a.InputBuf = string(r)
			a.ReplaceOnNextRune = false
		} else {
			a.InputBuf += string(r)
		}
	}
}

func (a *App) startEdit() {
	a.Mode = ModeInsert
	a.InputBuf, _ = a.Doc.Cell(a.CurRow, a.CurCol)
	a.ReplaceOnNextRune = a.SelectAllOnEdit
}

func (a *App) commitEdit() {
	a.notify(a.Doc.SetCell(a.CurRow, a.CurCol, a.InputBuf))
	a.Mode = ModeNormal
	a.InputBuf = ""
	a.ReplaceOnNextRune = false
}

// ----------------------------- Document operations -----------------------------

func (a *App) Undo() {
	if err := a.Doc.Undo(); err != nil {
		a.notify(err)
		return
	}
	a.clampCursor()
	a.Notice = a.Lang.T("notice.undone")
}

func (a *App) Redo() {
	if err := a.Doc.Redo(); err != nil {
		a.notify(err)
		return
	}
	a.clampCursor()
	a.Notice = a.Lang.T("notice.redone")
}

func (a *App) Mutate(m document.Mutation) {
	err := a.Doc.Mutate(m)
	if errors.Is(err, grid.ErrMinimumSize) {
		if m == document.DeleteRow {
			a.Notice = a.Lang.T("notice.minRows")
		} else {
			a.Notice = a.Lang.T("notice.minColumns")
		}
		return
	}
	a.notify(err)
	switch m {
	case document.AddRow:
		a.CurRow = a.Doc.Rows() - 1
	case document.AddColumn:
		a.CurCol = a.Doc.Cols() - 1
	}
	a.clampCursor()
}

// resizeColumn nudges a column by one terminal cell.
func (a *App) resizeColumn(col, delta int) {
	step := max(1, grid.DefaultColumnWidth/a.ColWidth)
	a.notify(a.Doc.SetColumnWidth(col, a.Doc.ColumnWidth(col)+delta*step))
}

func (a *App) clampCursor() {
	a.CurRow = max(0, min(a.CurRow, a.Doc.Rows()-1))
	a.CurCol = max(0, min(a.CurCol, a.Doc.Cols()-1))
}

// ----------------------------- Drawing -----------------------------

// colCells converts a column's advisory width into terminal cells.
func (a *App) colCells(c int) int {
	return max(4, a.Doc.ColumnWidth(c)*a.ColWidth/grid.DefaultColumnWidth)
}

func (a *App) Draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()
	header := a.Doc.Options().Header

	// header row: column names
	x := a.LeftGutter
	for c := a.ViewCol; c < a.Doc.Cols() && x < w; c++ {
		wc := a.colCells(c)
		hdrStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if c == a.CurCol {
			hdrStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
		}
		a.printTextFixedWidth(s, x, 0, " "+grid.ColumnLabel(c), hdrStyle, wc)
		x += wc
	}

	// draw rows
	y := 1
	for r := a.ViewRow; r < a.Doc.Rows() && y < h-a.StatusLines; r++ {
		gutterStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if r == a.CurRow {
			gutterStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
		}
		a.printTextFixedWidth(s, 0, y, fmt.Sprintf("%*d", a.LeftGutter-1, r+1), gutterStyle, a.LeftGutter-1)

		x = a.LeftGutter
		for c := a.ViewCol; c < a.Doc.Cols() && x < w; c++ {
			wc := a.colCells(c)
			text, _ := a.Doc.Cell(r, c)
			if a.Mode == ModeInsert && r == a.CurRow && c == a.CurCol {
				text = a.InputBuf
			}
			style := tcell.StyleDefault
			if header && r == 0 {
				style = style.Bold(true).Underline(true)
			}
			if r == a.CurRow && c == a.CurCol {
				style = style.Foreground(tcell.ColorBlack).Background(tcell.ColorLightGray)
			}
			a.printTextFixedWidth(s, x, y, "", style, wc)
			a.printTextFixedWidth(s, x+a.CellPadding, y, firstLine(text), style, max(0, wc-2*a.CellPadding))
			x += wc
		}
		y++
	}

	a.drawStatus(s, w, h)

	if a.HelpVisible {
		a.drawHelpPopup(s, a.helpText())
	}

	if a.Mode == ModeInsert {
		a.showEditCursor(s, w, h)
	} else {
		s.HideCursor()
	}
	s.Show()
}

func (a *App) drawStatus(s tcell.Screen, w, h int) {
	statusY := max(0, h-a.StatusLines)
	statusStyle := tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorWhite)

	name := a.FileName
	if name == "" {
		name = "[no file]"
	}
	modified := ""
	if a.Doc.Dirty() {
		modified = " [" + a.Lang.T("status.modified") + "]"
	}
	left := fmt.Sprintf("%s:%s  %s:%s  %dx%d  %s%s  %s%s",
		a.Lang.T("status.mode"), a.Mode,
		a.Lang.T("status.cell"), grid.CellAddress(a.CurRow, a.CurCol),
		a.Doc.Rows(), a.Doc.Cols(),
		name, modified,
		availability(a.Lang.T("buttons.undo"), a.Doc.CanUndo()),
		availability(" "+a.Lang.T("buttons.redo"), a.Doc.CanRedo()),
	)
	a.printTextFixedWidth(s, 0, statusY, left, statusStyle, w)

	var line string
	switch {
	case a.Mode == ModeInsert:
		line = "EDIT: " + a.InputBuf
	case a.Notice != "":
		line = a.Notice
	default:
		cur, _ := a.Doc.Cell(a.CurRow, a.CurCol)
		if cur == "" {
			cur = a.Lang.T("editBar.placeholder")
		}
		line = grid.CellAddress(a.CurRow, a.CurCol) + ": " + cur
	}
	a.printTextFixedWidth(s, 0, statusY+1, strings.ReplaceAll(line, "\n", "⏎"), statusStyle, w)
}

func availability(label string, ok bool) string {
	if ok {
		return label
	}
	return strings.Repeat(" ", runewidth.StringWidth(label))
}

func (a *App) showEditCursor(s tcell.Screen, w, h int) {
	cellX := a.LeftGutter
	for c := a.ViewCol; c < a.CurCol; c++ {
		cellX += a.colCells(c)
	}
	cellY := 1 + a.CurRow - a.ViewRow
	lines := strings.Split(a.InputBuf, "\n")
	last := lines[len(lines)-1]
	cx := cellX + a.CellPadding + min(runewidth.StringWidth(last), max(0, a.colCells(a.CurCol)-2*a.CellPadding-1))
	if cx >= 0 && cx < w && cellY >= 1 && cellY < h-a.StatusLines {
		s.ShowCursor(cx, cellY)
		return
	}
	s.HideCursor()
}

// printTextFixedWidth fills width terminal cells starting at x, clipping str.
func (a *App) printTextFixedWidth(s tcell.Screen, x, y int, str string, style tcell.Style, width int) {
	col := 0
	for _, ch := range str {
		cw := runewidth.RuneWidth(ch)
		if cw == 0 {
			continue
		}
		if col+cw > width {
			break
		}
		s.SetContent(x+col, y, ch, nil, style)
		col += cw
	}
	for ; col < width; col++ {
		s.SetContent(x+col, y, ' ', nil, style)
	}
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i] + "⏎"
	}
	return text
}

// ----------------------------- Viewport / Geometry -----------------------------

func (a *App) usable(s tcell.Screen) (int, int) {
	w, h := s.Size()
	return max(1, w-a.LeftGutter), max(1, h-a.StatusLines-1)
}

func (a *App) ComputeVisible(s tcell.Screen) (visibleRows, visibleCols int) {
	usableW, usableH := a.usable(s)
	sumW := 0
	for c := a.ViewCol; c < a.Doc.Cols(); c++ {
		wc := a.colCells(c)
		if sumW+wc > usableW {
			break
		}
		sumW += wc
		visibleCols++
	}
	visibleRows = min(usableH, a.Doc.Rows()-a.ViewRow)
	return max(1, visibleRows), max(1, visibleCols)
}

func (a *App) EnsureCursorVisible(s tcell.Screen) {
	if s == nil {
		return
	}
	a.clampCursor()
	_, usableH := a.usable(s)

	if a.CurRow < a.ViewRow {
		a.ViewRow = a.CurRow
	} else if a.CurRow >= a.ViewRow+usableH {
		a.ViewRow = a.CurRow - usableH + 1
	}

	if a.CurCol < a.ViewCol {
		a.ViewCol = a.CurCol
	}
	for a.ViewCol < a.CurCol {
		_, visibleCols := a.ComputeVisible(s)
		if a.CurCol < a.ViewCol+visibleCols {
			break
		}
		a.ViewCol++
	}
	a.ViewRow = max(0, min(a.ViewRow, a.Doc.Rows()-1))
	a.ViewCol = max(0, min(a.ViewCol, a.Doc.Cols()-1))
}
