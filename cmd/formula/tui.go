package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/sandrolain/goformula/pkg/functions"
	"github.com/sandrolain/goformula/pkg/types"
	"github.com/sandrolain/goformula/pkg/validator"
)

const formulaLabel = "Formula: "

// editor is the state of the full-screen formula editor. It is independent
// of the screen so key handling can be driven directly.
type editor struct {
	svc      *validator.Service
	bindings types.Bindings
	printer  *valuePrinter
	palette  []functions.PaletteEntry

	text     []rune
	cursor   int // rune index into text
	selected int // palette index
	result   validator.Result
	quit     bool
}

func newEditor(svc *validator.Service, bindings types.Bindings, printer *valuePrinter) *editor {
	e := &editor{
		svc:      svc,
		bindings: bindings,
		printer:  printer,
		palette:  functions.Palette(),
	}
	e.revalidate()
	return e
}

func (e *editor) formula() string {
	return string(e.text)
}

func (e *editor) revalidate() {
	e.result = e.svc.Validate(context.Background(), e.formula(), e.bindings)
}

func (e *editor) insert(s string) {
	rs := []rune(s)
	text := make([]rune, 0, len(e.text)+len(rs))
	text = append(text, e.text[:e.cursor]...)
	text = append(text, rs...)
	text = append(text, e.text[e.cursor:]...)
	e.text = text
	e.cursor += len(rs)
}

// insertPaletteEntry inserts the selected entry at the cursor. Functions
// leave the cursor between the parentheses.
func (e *editor) insertPaletteEntry() {
	entry := e.palette[e.selected]
	e.insert(entry.Insert)
	if entry.Kind == functions.EntryFunction && strings.HasSuffix(entry.Insert, "()") {
		e.cursor--
	}
}

// handleKey applies one key event and re-validates after every edit.
func (e *editor) handleKey(ev *tcell.EventKey) {
	edited := false
	switch ev.Key() {
	case tcell.KeyEsc, tcell.KeyCtrlC:
		e.quit = true
	case tcell.KeyLeft:
		if e.cursor > 0 {
			e.cursor--
		}
	case tcell.KeyRight:
		if e.cursor < len(e.text) {
			e.cursor++
		}
	case tcell.KeyHome, tcell.KeyCtrlA:
		e.cursor = 0
	case tcell.KeyEnd, tcell.KeyCtrlE:
		e.cursor = len(e.text)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if e.cursor > 0 {
			e.text = append(e.text[:e.cursor-1], e.text[e.cursor:]...)
			e.cursor--
			edited = true
		}
	case tcell.KeyDelete:
		if e.cursor < len(e.text) {
			e.text = append(e.text[:e.cursor], e.text[e.cursor+1:]...)
			edited = true
		}
	case tcell.KeyCtrlU:
		e.text = e.text[:0]
		e.cursor = 0
		edited = true
	case tcell.KeyUp:
		e.selected = (e.selected + len(e.palette) - 1) % len(e.palette)
	case tcell.KeyDown, tcell.KeyTab:
		e.selected = (e.selected + 1) % len(e.palette)
	case tcell.KeyEnter:
		e.insertPaletteEntry()
		edited = true
	case tcell.KeyRune:
		e.insert(string(ev.Rune()))
		edited = true
	}
	if edited {
		e.revalidate()
	}
}

// chip returns the status label and its style.
func (e *editor) chip() (string, tcell.Style) {
	switch {
	case e.result.Valid:
		return " VALID ", tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen)
	case e.result.Error != nil:
		return " " + string(e.result.Error.Kind) + " ", tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed)
	default:
		return " EMPTY ", tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorGray)
	}
}

// drawText prints str at (x, y) and returns the column after it. Wide
// characters take two cells.
func drawText(s tcell.Screen, x, y int, str string, style tcell.Style) int {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}

func (e *editor) draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)
	accent := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	drawText(s, 0, 0, "goformula editor  (Esc quits, Up/Down picks, Enter inserts, Ctrl+U clears)", dim)

	// Formula line and cursor.
	x := drawText(s, 0, 2, formulaLabel, accent)
	drawText(s, x, 2, e.formula(), tcell.StyleDefault)
	s.ShowCursor(x+runewidth.StringWidth(string(e.text[:e.cursor])), 2)

	// Caret under the offending character.
	if p := e.result.Error; p != nil && p.Offset != nil {
		f := e.formula()
		off := min(*p.Offset, len(f))
		col := x + runewidth.StringWidth(f[:off])
		s.SetContent(col, 3, '^', nil, tcell.StyleDefault.Foreground(tcell.ColorRed))
	}

	// Status chip and preview or message.
	label, style := e.chip()
	cx := drawText(s, 0, 5, label, style)
	switch {
	case e.result.Valid:
		drawText(s, cx+1, 5, e.printer.Format(*e.result.Preview), tcell.StyleDefault)
	case e.result.Error != nil:
		drawText(s, cx+1, 5, e.result.Error.Message, tcell.StyleDefault.Foreground(tcell.ColorRed))
	}

	// Bindings.
	y := 7
	drawText(s, 0, y, "Variables", accent)
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		y++
		if y >= h-1 {
			break
		}
		drawText(s, 2, y, name+" = "+e.printer.Value(types.Number(e.bindings[name])), tcell.StyleDefault)
	}

	// Palette, in columns to the right of the bindings.
	px := max(w/2, 30)
	drawText(s, px, 7, "Palette", accent)
	for i, entry := range e.palette {
		py := 8 + i
		if py >= h {
			break
		}
		st := tcell.StyleDefault
		if i == e.selected {
			st = st.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
		}
		drawText(s, px, py, fmt.Sprintf("%-7s %s", entry.Label, entry.Description), st)
	}

	s.Show()
}

func cmdTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	// Logging would draw over the screen.
	bindings, printer, err := common.setup(io.Discard)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 2
	}

	s, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create screen: %v\n", err)
		return 1
	}
	if err := s.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot init screen: %v\n", err)
		return 1
	}
	defer s.Fini()

	e := newEditor(validator.New(), bindings, printer)
	e.insert(strings.Join(fs.Args(), " "))
	e.revalidate()
	run(s, e)
	return 0
}

// run is the editor's event loop.
func run(s tcell.Screen, e *editor) {
	for !e.quit {
		e.draw(s)
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			e.handleKey(ev)
		case *tcell.EventResize:
			s.Sync()
		case nil:
			// Screen finalized.
			return
		}
	}
}
