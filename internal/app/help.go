package app

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

func (a *App) helpText() string {
	t := a.Lang.T
	lines := []string{
		t("help.title"),
		"",
		"Arrows        move",
		"Enter, i      edit cell (Shift+Enter newline)",
		"=             set cell value",
		"Del           clear cell",
		"F2 / F3       " + t("buttons.addRow") + " / " + t("buttons.addColumn"),
		"F4 / F5       " + t("buttons.deleteRow") + " / " + t("buttons.deleteColumn"),
		"Ctrl+Z, u     " + t("buttons.undo"),
		"Ctrl+Y, r     " + t("buttons.redo"),
		"Ctrl+Left/Right  column width",
		"y / p         copy / paste cell",
		"Ctrl+S        :w",
		":w [file]  :o file  :q  :q!  :wq",
		":goto A1  :cw reset  :lang " + strings.Join(a.Catalog.Locales(), "|"),
		"? / Esc       close",
	}
	return strings.Join(lines, "\n")
}

func (a *App) drawHelpPopup(s tcell.Screen, help string) {
	w, h := s.Size()
	if w < 10 || h < 5 {
		return
	}

	padding := 2
	maxPW := w - 4
	maxPH := h - 2

	innerW := min(maxPW-padding*2, 60)
	if innerW < 20 {
		innerW = max(1, maxPW-padding*2)
	}

	lines := wrapText(help, innerW)
	if maxLines := max(1, maxPH-padding*2); len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	innerH := max(3, len(lines))

	pw := innerW + padding*2
	ph := innerH + padding*2
	left := (w - pw) / 2
	top := (h - ph) / 2

	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDefault)
	bgStyle := tcell.StyleDefault.Background(tcell.ColorDefault).Foreground(tcell.ColorWhite)

	for yy := 0; yy < ph; yy++ {
		for xx := 0; xx < pw; xx++ {
			s.SetContent(left+xx, top+yy, ' ', nil, bgStyle)
		}
	}

	s.SetContent(left, top, '┌', nil, borderStyle)
	s.SetContent(left+pw-1, top, '┐', nil, borderStyle)
	s.SetContent(left, top+ph-1, '└', nil, borderStyle)
	s.SetContent(left+pw-1, top+ph-1, '┘', nil, borderStyle)
	for xx := 1; xx < pw-1; xx++ {
		s.SetContent(left+xx, top, '─', nil, borderStyle)
		s.SetContent(left+xx, top+ph-1, '─', nil, borderStyle)
	}
	for yy := 1; yy < ph-1; yy++ {
		s.SetContent(left, top+yy, '│', nil, borderStyle)
		s.SetContent(left+pw-1, top+yy, '│', nil, borderStyle)
	}

	for i, ln := range lines {
		a.printTextFixedWidth(s, left+padding, top+padding+i, ln, bgStyle, innerW)
	}
}

// wrapText breaks s into lines no wider than width terminal cells.
// Explicit newlines are kept and runs of spaces inside a line survive.
func wrapText(s string, width int) []string {
	if width <= 2 {
		return []string{s}
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		if runewidth.StringWidth(para) <= width {
			out = append(out, para)
			continue
		}
		cur := ""
		for _, word := range strings.Fields(para) {
			for runewidth.StringWidth(word) > width {
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				head := runewidth.Truncate(word, width, "")
				out = append(out, head)
				word = word[len(head):]
			}
			switch {
			case cur == "":
				cur = word
			case runewidth.StringWidth(cur)+1+runewidth.StringWidth(word) <= width:
				cur += " " + word
			default:
				out = append(out, cur)
				cur = word
			}
		}
		if cur != "" {
			out = append(out, cur)
		}
	}
	return out
}
