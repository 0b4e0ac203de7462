package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"gridsheet/internal/config"
	"gridsheet/internal/document"
	"gridsheet/internal/grid"
	"gridsheet/internal/i18n"
)

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) ReadAll() (string, error) { return f.text, f.err }

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func newTestApp(t *testing.T, text string) (*App, tcell.SimulationScreen) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	s.SetSize(80, 24)
	t.Cleanup(s.Fini)

	doc := document.New()
	if err := doc.Load(text); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := config.Default()
	cfg.UI.Watch = false
	a := NewApp(doc, cfg, i18n.MustLoad())
	a.Clip = &fakeClipboard{}
	return a, s
}

func press(a *App, s tcell.Screen, k tcell.Key, mod tcell.ModMask) {
	a.HandleKeyEvent(s, tcell.NewEventKey(k, 0, mod))
}

func typeRunes(a *App, s tcell.Screen, text string) {
	for _, r := range text {
		a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func screenLine(s tcell.SimulationScreen, y int) string {
	cells, w, _ := s.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		if r := cells[y*w+x].Runes; len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	return b.String()
}

func TestEditCommit(t *testing.T) {
	a, s := newTestApp(t, "a,b\nc,d")

	press(a, s, tcell.KeyEnter, tcell.ModNone)
	if a.Mode != ModeInsert || a.InputBuf != "a" {
		t.Fatalf("mode=%q buf=%q, want insert with current value", a.Mode, a.InputBuf)
	}
	typeRunes(a, s, "xy")
	press(a, s, tcell.KeyEnter, tcell.ModNone)

	if got, _ := a.Doc.Cell(0, 0); got != "xy" {
		t.Fatalf("A1=%q, want %q", got, "xy")
	}
	if a.Mode != ModeNormal || a.CurRow != 1 {
		t.Fatalf("mode=%q row=%d, want normal on next row", a.Mode, a.CurRow)
	}
	if !a.Doc.Dirty() {
		t.Fatalf("expected dirty document")
	}
}

func TestEditNewlineAndCancel(t *testing.T) {
	a, s := newTestApp(t, "a")

	typeRunes(a, s, "i")
	typeRunes(a, s, "x")
	press(a, s, tcell.KeyEnter, tcell.ModShift)
	typeRunes(a, s, "y")
	if a.InputBuf != "x\ny" {
		t.Fatalf("buf=%q", a.InputBuf)
	}
	press(a, s, tcell.KeyEsc, tcell.ModNone)
	if got, _ := a.Doc.Cell(0, 0); got != "a" || a.Doc.Dirty() {
		t.Fatalf("cancelled edit changed the cell: %q", got)
	}
}

func TestUndoRedoKeys(t *testing.T) {
	a, s := newTestApp(t, "a")
	en := a.Lang

	press(a, s, tcell.KeyEnter, tcell.ModNone)
	typeRunes(a, s, "b")
	press(a, s, tcell.KeyEnter, tcell.ModNone)

	press(a, s, tcell.KeyCtrlZ, tcell.ModCtrl)
	if got, _ := a.Doc.Cell(0, 0); got != "a" {
		t.Fatalf("after undo A1=%q", got)
	}
	if a.Notice != en.T("notice.undone") {
		t.Fatalf("notice=%q", a.Notice)
	}

	press(a, s, tcell.KeyCtrlZ, tcell.ModCtrl)
	if a.Notice != en.T("notice.nothingToUndo") {
		t.Fatalf("notice=%q", a.Notice)
	}

	press(a, s, tcell.KeyCtrlY, tcell.ModCtrl)
	if got, _ := a.Doc.Cell(0, 0); got != "b" {
		t.Fatalf("after redo A1=%q", got)
	}
	typeRunes(a, s, "r")
	if a.Notice != en.T("notice.nothingToRedo") {
		t.Fatalf("notice=%q", a.Notice)
	}
}

func TestStructureKeys(t *testing.T) {
	a, s := newTestApp(t, "a")

	press(a, s, tcell.KeyF4, tcell.ModNone)
	if a.Notice != a.Lang.T("notice.minRows") {
		t.Fatalf("notice=%q", a.Notice)
	}
	press(a, s, tcell.KeyF5, tcell.ModNone)
	if a.Notice != a.Lang.T("notice.minColumns") {
		t.Fatalf("notice=%q", a.Notice)
	}
	if a.Doc.Dirty() {
		t.Fatalf("rejected delete marked the document dirty")
	}

	press(a, s, tcell.KeyF2, tcell.ModNone)
	press(a, s, tcell.KeyF3, tcell.ModNone)
	if a.Doc.Rows() != 2 || a.Doc.Cols() != 2 {
		t.Fatalf("size=%dx%d, want 2x2", a.Doc.Rows(), a.Doc.Cols())
	}
	if a.CurRow != 1 || a.CurCol != 1 {
		t.Fatalf("cursor=(%d,%d), want on the new row and column", a.CurRow, a.CurCol)
	}

	press(a, s, tcell.KeyF4, tcell.ModNone)
	if a.Doc.Rows() != 1 || a.CurRow != 0 {
		t.Fatalf("rows=%d cursor row=%d after delete", a.Doc.Rows(), a.CurRow)
	}
}

func TestNavigationClamps(t *testing.T) {
	a, s := newTestApp(t, "a,b\nc,d")

	press(a, s, tcell.KeyUp, tcell.ModNone)
	press(a, s, tcell.KeyLeft, tcell.ModNone)
	if a.CurRow != 0 || a.CurCol != 0 {
		t.Fatalf("cursor moved off the grid: (%d,%d)", a.CurRow, a.CurCol)
	}
	for i := 0; i < 5; i++ {
		press(a, s, tcell.KeyDown, tcell.ModNone)
		press(a, s, tcell.KeyRight, tcell.ModNone)
	}
	if a.CurRow != 1 || a.CurCol != 1 {
		t.Fatalf("cursor=(%d,%d), want (1,1)", a.CurRow, a.CurCol)
	}
	press(a, s, tcell.KeyHome, tcell.ModNone)
	if a.CurRow != 0 || a.CurCol != 0 {
		t.Fatalf("Home: cursor=(%d,%d)", a.CurRow, a.CurCol)
	}
}

func TestColumnResize(t *testing.T) {
	a, s := newTestApp(t, "a,b")
	before := a.Doc.ColumnWidth(0)
	press(a, s, tcell.KeyRight, tcell.ModCtrl)
	if a.Doc.ColumnWidth(0) <= before {
		t.Fatalf("width=%d, want more than %d", a.Doc.ColumnWidth(0), before)
	}
	if a.CurCol != 0 {
		t.Fatalf("Ctrl+Right moved the cursor")
	}
	a.ExecuteCommand("cw reset")
	if a.Doc.ColumnWidth(0) != before {
		t.Fatalf("width=%d after reset, want %d", a.Doc.ColumnWidth(0), before)
	}
}

func TestDraw(t *testing.T) {
	a, s := newTestApp(t, "name,qty\npear,3")
	a.EnsureCursorVisible(s)
	a.Draw(s)

	if line := screenLine(s, 0); !strings.Contains(line, "A") || !strings.Contains(line, "B") {
		t.Fatalf("header line=%q", line)
	}
	if line := screenLine(s, 1); !strings.Contains(line, "1") || !strings.Contains(line, "name") || !strings.Contains(line, "qty") {
		t.Fatalf("row 1=%q", line)
	}
	if line := screenLine(s, 2); !strings.Contains(line, "pear") {
		t.Fatalf("row 2=%q", line)
	}
	if line := screenLine(s, 22); !strings.Contains(line, "Cell:A1") || !strings.Contains(line, "Mode:normal") {
		t.Fatalf("status=%q", line)
	}
	if line := screenLine(s, 23); !strings.Contains(line, "A1: name") {
		t.Fatalf("edit bar=%q", line)
	}

	_ = a.Doc.SetCell(0, 0, "renamed")
	a.Draw(s)
	if line := screenLine(s, 22); !strings.Contains(line, "[modified]") {
		t.Fatalf("status=%q, want modified marker", line)
	}
}

func TestDraw_ScrollsToCursor(t *testing.T) {
	a, s := newTestApp(t, strings.Repeat("x\n", 60)+"last")
	press(a, s, tcell.KeyEnd, tcell.ModNone)
	a.EnsureCursorVisible(s)
	a.Draw(s)
	if a.ViewRow == 0 {
		t.Fatalf("view did not scroll")
	}
	found := false
	for y := 1; y < 22; y++ {
		if strings.Contains(screenLine(s, y), "last") {
			found = true
		}
	}
	if !found {
		t.Fatalf("last row not drawn")
	}
}

func TestExecuteCommand(t *testing.T) {
	a, _ := newTestApp(t, "a,b\nc,d")

	a.ExecuteCommand("goto B2")
	if a.CurRow != 1 || a.CurCol != 1 {
		t.Fatalf("goto: cursor=(%d,%d)", a.CurRow, a.CurCol)
	}
	a.ExecuteCommand(":goto 1A")
	if a.Notice != a.Lang.Tf("notice.badAddress", "1A") {
		t.Fatalf("notice=%q", a.Notice)
	}
	a.ExecuteCommand("goto Z99")
	if a.Notice != a.Lang.T("notice.outOfBounds") {
		t.Fatalf("notice=%q", a.Notice)
	}
	a.ExecuteCommand("frobnicate")
	if a.Notice != "Unknown command: frobnicate" {
		t.Fatalf("notice=%q", a.Notice)
	}

	a.ExecuteCommand("lang zh-cn")
	if a.Lang.Locale() != "zh-cn" {
		t.Fatalf("locale=%q", a.Lang.Locale())
	}
	a.ExecuteCommand("lang en")

	a.ExecuteCommand("w")
	if a.Notice != a.Lang.T("notice.noFile") {
		t.Fatalf("notice=%q", a.Notice)
	}

	_ = a.Doc.SetCell(0, 0, "z")
	a.ExecuteCommand("q")
	if a.Quit || a.Notice != a.Lang.T("notice.unsaved") {
		t.Fatalf("quit with unsaved changes: quit=%v notice=%q", a.Quit, a.Notice)
	}
	a.ExecuteCommand("q!")
	if !a.Quit {
		t.Fatalf("q! did not quit")
	}
}

func TestSaveOpenReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	a, s := newTestApp(t, "a,b")

	a.ExecuteCommand("w " + path)
	if a.FileName != path || a.Doc.Dirty() {
		t.Fatalf("after :w file=%q dirty=%v", a.FileName, a.Doc.Dirty())
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "a,b" {
		t.Fatalf("file=%q err=%v", data, err)
	}

	// our own write is not a change
	a.HandleEvent(s, tcell.NewEventInterrupt(fileChanged{path: path}))
	if a.Notice != a.Lang.Tf("notice.saved", path) {
		t.Fatalf("notice=%q", a.Notice)
	}

	if err := os.WriteFile(path, []byte("x,y\nz"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.HandleEvent(s, tcell.NewEventInterrupt(fileChanged{path: path}))
	if got, want := a.Doc.Grid(), (grid.Grid{{"x", "y"}, {"z", ""}}); !grid.Equal(got, want) {
		t.Fatalf("grid=%q, want %q", got, want)
	}
	if !strings.HasPrefix(a.Notice, "Parse notice:") {
		t.Fatalf("notice=%q, want padding warning", a.Notice)
	}

	// unsaved edits are not overwritten
	_ = a.Doc.SetCell(0, 0, "mine")
	if err := os.WriteFile(path, []byte("theirs"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.HandleEvent(s, tcell.NewEventInterrupt(fileChanged{path: path}))
	if got, _ := a.Doc.Cell(0, 0); got != "mine" {
		t.Fatalf("A1=%q, reload overwrote unsaved work", got)
	}

	a.ExecuteCommand("o " + path)
	if a.Notice != a.Lang.T("notice.unsaved") {
		t.Fatalf("notice=%q", a.Notice)
	}
	a.ExecuteCommand("o! " + path)
	if got, want := a.Doc.Grid(), (grid.Grid{{"theirs"}}); !grid.Equal(got, want) {
		t.Fatalf("grid=%q, want %q", got, want)
	}
	if a.Doc.CanUndo() {
		t.Fatalf("open kept the old history")
	}
}

func TestOpen_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("a,\"b\nc"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := newTestApp(t, "a")
	a.Open(path)
	if a.Notice != a.Lang.T("notice.parseFailed") {
		t.Fatalf("notice=%q", a.Notice)
	}
	if got := a.Doc.Grid(); !grid.Equal(got, grid.Grid{{""}}) {
		t.Fatalf("grid=%q, want fallback", got)
	}
}

func TestReload_MalformedKeepsGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	a, s := newTestApp(t, "a,b\nc,d")
	a.ExecuteCommand("w " + path)

	if err := os.WriteFile(path, []byte("a,\"b\nc"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.HandleEvent(s, tcell.NewEventInterrupt(fileChanged{path: path}))
	if a.Notice != a.Lang.T("notice.parseFailed") {
		t.Fatalf("notice=%q", a.Notice)
	}
	if got, want := a.Doc.Grid(), (grid.Grid{{"a", "b"}, {"c", "d"}}); !grid.Equal(got, want) {
		t.Fatalf("grid=%q, want %q", got, want)
	}

	// the same bad text is not reported twice
	a.Notice = ""
	a.HandleEvent(s, tcell.NewEventInterrupt(fileChanged{path: path}))
	if a.Notice != "" {
		t.Fatalf("notice=%q after unchanged reload", a.Notice)
	}
}

func TestYankPaste(t *testing.T) {
	a, s := newTestApp(t, "a,b")
	clip := a.Clip.(*fakeClipboard)

	typeRunes(a, s, "y")
	if clip.text != "a" || a.Notice != "Copied A1" {
		t.Fatalf("clip=%q notice=%q", clip.text, a.Notice)
	}
	press(a, s, tcell.KeyRight, tcell.ModNone)
	clip.text = "pasted\r\n"
	typeRunes(a, s, "p")
	if got, _ := a.Doc.Cell(0, 1); got != "pasted" {
		t.Fatalf("B1=%q", got)
	}

	clip.err = errors.New("boom")
	typeRunes(a, s, "y")
	if a.Notice != "Clipboard unavailable: boom" {
		t.Fatalf("notice=%q", a.Notice)
	}
}

func TestHelpPopup(t *testing.T) {
	a, s := newTestApp(t, "a")
	typeRunes(a, s, "?")
	if !a.HelpVisible {
		t.Fatalf("help not shown")
	}
	// keys are swallowed while help is up
	press(a, s, tcell.KeyF2, tcell.ModNone)
	if a.Doc.Rows() != 1 {
		t.Fatalf("key leaked through help popup")
	}
	a.Draw(s)
	found := false
	for y := 0; y < 24; y++ {
		if strings.Contains(screenLine(s, y), "Keys") {
			found = true
		}
	}
	if !found {
		t.Fatalf("help title not drawn")
	}
	press(a, s, tcell.KeyEsc, tcell.ModNone)
	if a.HelpVisible {
		t.Fatalf("help still visible")
	}
}

func TestPopupCommand(t *testing.T) {
	a, s := newTestApp(t, "a,b\nc,d")
	for _, r := range "goto B2" {
		s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	typeRunes(a, s, ":")
	if a.CurRow != 1 || a.CurCol != 1 {
		t.Fatalf("cursor=(%d,%d), want B2", a.CurRow, a.CurCol)
	}
}

func TestPopupCommand_KeepsFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	a, s := newTestApp(t, "a,b\nc,d")
	a.ExecuteCommand("w " + path)
	if err := os.WriteFile(path, []byte("x,y\nz,w"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.PostEvent(tcell.NewEventInterrupt(fileChanged{path: path})); err != nil {
		t.Fatal(err)
	}
	for _, r := range "goto B2" {
		s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	typeRunes(a, s, ":")
	if a.CurRow != 1 || a.CurCol != 1 {
		t.Fatalf("cursor=(%d,%d), want B2", a.CurRow, a.CurCol)
	}

	requeued := false
	for !requeued && s.HasPendingEvent() {
		ev := s.PollEvent()
		_, requeued = ev.(*tcell.EventInterrupt)
		a.HandleEvent(s, ev)
	}
	if !requeued {
		t.Fatalf("file change dropped while the popup was open")
	}
	if got, want := a.Doc.Grid(), (grid.Grid{{"x", "y"}, {"z", "w"}}); !grid.Equal(got, want) {
		t.Fatalf("grid=%q, want %q", got, want)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five\n\nsupercalifragilistic", 10)
	for _, ln := range lines {
		if len(ln) > 10 {
			t.Fatalf("line %q wider than 10", ln)
		}
	}
	if lines[0] != "one two" {
		t.Fatalf("lines=%q", lines)
	}
	if !strings.Contains(strings.Join(lines, "|"), "||") {
		t.Fatalf("blank paragraph lost: %q", lines)
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.csv")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed := make(chan string, 16)
	w, err := Watch(path, func(p string) { changed <- p }, t.Logf)
	if err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-changed:
		if p != path {
			t.Fatalf("notified for %q, want %q", p, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no change notification")
	}
}
