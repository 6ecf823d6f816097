package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const (
	statusRows = 1
	liveRows   = 3
)

var styles = map[Style]tcell.Style{
	StyleNormal:      tcell.StyleDefault,
	StyleLatest:      tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
	StyleOlder:       tcell.StyleDefault.Foreground(tcell.ColorGray),
	StylePlaceholder: tcell.StyleDefault.Foreground(tcell.ColorGray).Italic(true),
	StyleError:       tcell.StyleDefault.Foreground(tcell.ColorRed),
}

var (
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	borderStyle = tcell.StyleDefault
)

// Screen draws frames on a tcell screen: a status row, a live box with the
// partial transcript, and the transcript and translation side by side.
type Screen struct {
	screen tcell.Screen
}

func NewScreen(screen tcell.Screen) *Screen {
	return &Screen{screen: screen}
}

func (s *Screen) Draw(frame Frame) {
	s.screen.Clear()

	width, height := s.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}

	s.text(0, 0, width, frame.Status, statusStyle)

	s.box(0, statusRows, width, liveRows, frame.LiveTitle)
	if rows := wrap(frame.Live.Text, width-2); len(rows) > 0 {
		// the box only has room for one row, keep the newest words visible
		s.text(1, statusRows+1, width-2, rows[len(rows)-1], styles[frame.Live.Style])
	}

	top := statusRows + liveRows
	if height-top < 3 {
		s.screen.Show()
		return
	}

	left := width / 2
	s.box(0, top, left, height-top, frame.SourceTitle)
	s.box(left, top, width-left, height-top, frame.TargetTitle)
	s.column(1, top+1, left-2, height-top-2, frame.Source)
	s.column(left+1, top+1, width-left-2, height-top-2, frame.Target)

	s.screen.Show()
}

// column draws entries top to bottom with a blank row between them.
func (s *Screen) column(x, y, width, height int, entries []StyledLine) {
	row := 0
	for i, entry := range entries {
		if i > 0 {
			row++
		}

		for _, text := range wrap(entry.Text, width) {
			if row >= height {
				return
			}
			s.text(x, y+row, width, text, styles[entry.Style])
			row++
		}
	}
}

func (s *Screen) box(x, y, width, height int, title string) {
	if width < 2 || height < 2 {
		return
	}

	right, bottom := x+width-1, y+height-1

	for col := x + 1; col < right; col++ {
		s.screen.SetContent(col, y, tcell.RuneHLine, nil, borderStyle)
		s.screen.SetContent(col, bottom, tcell.RuneHLine, nil, borderStyle)
	}

	for row := y + 1; row < bottom; row++ {
		s.screen.SetContent(x, row, tcell.RuneVLine, nil, borderStyle)
		s.screen.SetContent(right, row, tcell.RuneVLine, nil, borderStyle)
	}

	s.screen.SetContent(x, y, tcell.RuneULCorner, nil, borderStyle)
	s.screen.SetContent(right, y, tcell.RuneURCorner, nil, borderStyle)
	s.screen.SetContent(x, bottom, tcell.RuneLLCorner, nil, borderStyle)
	s.screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, borderStyle)

	if title != "" {
		s.text(x+1, y, width-2, title, borderStyle)
	}
}

// text draws a single row, cut at width cells.
func (s *Screen) text(x, y, width int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > width {
			return
		}
		s.screen.SetContent(x+col, y, r, nil, style)
		col += w
	}
}

// wrap breaks text into rows of at most width cells. Words are kept whole
// when they fit on a row; CJK text, which has no spaces, breaks anywhere.
func wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	var (
		rows      []string
		row       []rune
		rowWidth  int
		lastSpace = -1
	)

	for _, r := range text {
		if r == '\n' {
			rows = append(rows, string(row))
			row, rowWidth, lastSpace = row[:0:0], 0, -1
			continue
		}

		w := runewidth.RuneWidth(r)
		if rowWidth+w > width {
			if lastSpace > 0 && r != ' ' {
				rows = append(rows, string(row[:lastSpace]))
				row = append([]rune(nil), row[lastSpace+1:]...)
			} else {
				rows = append(rows, string(row))
				row = row[:0:0]
			}

			rowWidth = runewidth.StringWidth(string(row))
			lastSpace = -1

			if rowWidth+w > width && len(row) > 0 {
				rows = append(rows, string(row))
				row, rowWidth = row[:0:0], 0
			}

			if r == ' ' {
				continue
			}
		}

		if r == ' ' {
			lastSpace = len(row)
		}

		row = append(row, r)
		rowWidth += w
	}

	if len(row) > 0 || len(rows) == 0 {
		rows = append(rows, string(row))
	}

	return rows
}
