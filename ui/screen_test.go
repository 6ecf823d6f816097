package ui

import (
	"reflect"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func simulationScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	screen.SetSize(width, height)

	t.Cleanup(screen.Fini)

	return screen
}

func contents(screen tcell.SimulationScreen) []string {
	cells, width, height := screen.GetContents()

	rows := make([]string, height)
	for y := 0; y < height; y++ {
		var b strings.Builder
		for x := 0; x < width; x++ {
			cell := cells[y*width+x]
			if len(cell.Runes) > 0 {
				b.WriteRune(cell.Runes[0])
			} else {
				b.WriteRune(' ')
			}
		}
		rows[y] = b.String()
	}

	return rows
}

func TestScreen(t *testing.T) {
	t.Run("draws status, live box and both columns", func(t *testing.T) {
		screen := simulationScreen(t, 60, 12)

		NewScreen(screen).Draw(Frame{
			Status:      "Status: Listening",
			LiveTitle:   "Live",
			Live:        StyledLine{Text: "partial words"},
			SourceTitle: "Transcript",
			TargetTitle: "Translation",
			Source:      []StyledLine{{Text: "newest", Style: StyleLatest}, {Text: "older", Style: StyleOlder}},
			Target:      []StyledLine{{Text: "Translating...", Style: StylePlaceholder}, {Text: "done", Style: StyleOlder}},
		})

		rows := contents(screen)

		checks := []struct {
			row  int
			want string
		}{
			{0, "Status: Listening"},
			{1, "Live"},
			{2, "partial words"},
			{4, "Transcript"},
			{4, "Translation"},
			{5, "newest"},
			{5, "Translating..."},
			{7, "older"},
			{7, "done"},
		}

		for _, c := range checks {
			if !strings.Contains(rows[c.row], c.want) {
				t.Errorf("row %d: expected %q in %q", c.row, c.want, rows[c.row])
			}
		}

		if strings.ContainsAny(rows[6], "abcdefghijklmnopqrstuvwxyz.") {
			t.Errorf("expected a blank row between entries, got %q", rows[6])
		}

		if !strings.HasPrefix(rows[5], string(tcell.RuneVLine)+"newest") {
			t.Errorf("expected transcript inside the left border, got %q", rows[5])
		}

		if idx := strings.Index(rows[5], "Translating..."); idx < 30 {
			t.Errorf("expected translation in the right column, found at %d", idx)
		}
	})

	t.Run("tiny terminals do not panic", func(t *testing.T) {
		screen := simulationScreen(t, 3, 2)

		NewScreen(screen).Draw(Compose(nil, Status{}, Scroll{}))
	})
}

func TestWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"hello world", 20, []string{"hello world"}},
		{"hello world", 8, []string{"hello", "world"}},
		{"hello world foo", 11, []string{"hello world", "foo"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"こんにちは", 4, []string{"こん", "にち", "は"}},
		{"", 10, []string{""}},
		{"anything", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := wrap(tt.text, tt.width)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}
