package app

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const maxPopupInput = 4096

// PopupInput shows a modal input box with prompt and initial text.
// It returns the entered string and true on Enter, or "" and false on Esc.
// The box runs its own event loop over s and redraws the app underneath.
func (a *App) PopupInput(s tcell.Screen, prompt, initial string) (string, bool) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorReset)

	promptW := runewidth.StringWidth(prompt)
	buf := []rune(initial)
	pos := len(buf)

	w, h := s.Size()
	boxW, boxH := 0, 3
	var left, top int
	layout := func() {
		contentW := max(20, promptW+runewidth.StringWidth(string(buf))+2)
		contentW = min(contentW, w-4)
		boxW = contentW + 4
		left = (w - boxW) / 2
		top = (h - boxH) / 2
	}
	layout()

	drawBox := func() {
		for y := top; y < top+boxH; y++ {
			for x := left; x < left+boxW; x++ {
				s.SetContent(x, y, ' ', nil, style)
			}
		}
		for x := left; x < left+boxW; x++ {
			s.SetContent(x, top, tcell.RuneHLine, nil, style)
			s.SetContent(x, top+boxH-1, tcell.RuneHLine, nil, style)
		}
		for y := top; y < top+boxH; y++ {
			s.SetContent(left, y, tcell.RuneVLine, nil, style)
			s.SetContent(left+boxW-1, y, tcell.RuneVLine, nil, style)
		}
		s.SetContent(left, top, tcell.RuneULCorner, nil, style)
		s.SetContent(left+boxW-1, top, tcell.RuneURCorner, nil, style)
		s.SetContent(left, top+boxH-1, tcell.RuneLLCorner, nil, style)
		s.SetContent(left+boxW-1, top+boxH-1, tcell.RuneLRCorner, nil, style)

		x, y := left+2, top+1
		a.printTextFixedWidth(s, x, y, prompt, style, promptW)
		x += promptW + 1

		maxField := max(1, boxW-5-promptW)
		// scroll so the cursor stays inside the field
		start := 0
		for runewidth.StringWidth(string(buf[start:pos])) >= maxField && start < pos {
			start++
		}
		a.printTextFixedWidth(s, x, y, string(buf[start:]), style, maxField)
		s.ShowCursor(x+runewidth.StringWidth(string(buf[start:pos])), y)
	}

	redraw := func() {
		a.Draw(s)
		drawBox()
		s.Show()
	}
	redraw()

	// Interrupts such as file-change notices belong to the main loop;
	// they are queued again once the box closes.
	var deferred []tcell.Event
	closeBox := func() {
		s.HideCursor()
		a.Draw(s)
		for _, ev := range deferred {
			if err := s.PostEvent(ev); err != nil {
				a.Log.Printf("popup: requeue %T: %v", ev, err)
			}
		}
	}

	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			// screen finalized
			return "", false
		case *tcell.EventInterrupt:
			deferred = append(deferred, ev)
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEsc:
				closeBox()
				return "", false
			case tcell.KeyEnter:
				closeBox()
				return string(buf), true
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				if pos > 0 {
					buf = append(buf[:pos-1], buf[pos:]...)
					pos--
				}
			case tcell.KeyDelete:
				if pos < len(buf) {
					buf = append(buf[:pos], buf[pos+1:]...)
				}
			case tcell.KeyLeft:
				if pos > 0 {
					pos--
				}
			case tcell.KeyRight:
				if pos < len(buf) {
					pos++
				}
			case tcell.KeyHome:
				pos = 0
			case tcell.KeyEnd:
				pos = len(buf)
			case tcell.KeyRune:
				if len(buf) < maxPopupInput {
					buf = append(buf[:pos], append([]rune{ev.Rune()}, buf[pos:]...)...)
					pos++
				}
			}
			redraw()
		case *tcell.EventResize:
			s.Sync()
			w, h = s.Size()
			layout()
			redraw()
		}
	}
}
