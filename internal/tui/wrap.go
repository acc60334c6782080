package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const wrongSpaceMark = '•'

// cell is one rendered rune of the reference text.
type cell struct {
	s         string
	width     int
	breakable bool
}

type span struct {
	start int
	end   int
}

// styleCells colors the reference text against the typed input. Input past
// the end of the reference is not drawn.
func styleCells(reference, typed []rune, cursor int) []cell {
	current := currentWord(wordSpans(reference), cursor)

	cells := make([]cell, 0, len(reference))
	for i, want := range reference {
		shown := want
		var style lipgloss.Style
		switch {
		case i < len(typed) && unicode.IsSpace(want) && !unicode.IsSpace(typed[i]):
			shown = wrongSpaceMark
			style = incorrectStyle
		case i < len(typed) && typed[i] == want:
			style = correctStyle
		case i < len(typed):
			style = incorrectStyle
		case !unicode.IsSpace(want) && current.contains(i):
			style = currentWordStyle
		default:
			style = pendingStyle
		}
		if i == cursor && i >= len(typed) {
			style = style.Underline(true)
		}
		cells = append(cells, cell{
			s:         style.Render(string(shown)),
			width:     runewidth.RuneWidth(shown),
			breakable: unicode.IsSpace(want),
		})
	}
	return cells
}

func (s span) contains(i int) bool {
	return i >= s.start && i < s.end
}

func wordSpans(reference []rune) []span {
	var spans []span
	start := -1
	for i, r := range reference {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, span{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, span{start: start, end: len(reference)})
	}
	return spans
}

// currentWord returns the word under the cursor, or the next word when the
// cursor sits on a space. A negative cursor selects the first word.
func currentWord(spans []span, cursor int) span {
	if len(spans) == 0 {
		return span{start: -1, end: -1}
	}
	if cursor < 0 {
		return spans[0]
	}
	for _, sp := range spans {
		if cursor < sp.end {
			return sp
		}
	}
	return spans[len(spans)-1]
}

func joinCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c.s)
	}
	return b.String()
}

// wrapCells breaks lines at the last space that fits in width, or mid-word
// when a word alone is wider than the line.
func wrapCells(cells []cell, width int) string {
	if width <= 0 {
		return joinCells(cells)
	}
	var lines []string
	line := make([]cell, 0, width)
	used := 0
	breakAt := -1

	for i := 0; i < len(cells); {
		c := cells[i]
		if used+c.width > width && len(line) > 0 {
			if breakAt >= 0 {
				lines = append(lines, joinCells(line[:breakAt]))
				line = append([]cell(nil), line[breakAt+1:]...)
			} else {
				lines = append(lines, joinCells(line))
				line = line[:0]
			}
			used, breakAt = measure(line)
			continue
		}
		line = append(line, c)
		used += c.width
		if c.breakable {
			breakAt = len(line) - 1
		}
		i++
	}
	lines = append(lines, joinCells(line))
	return strings.Join(lines, "\n")
}

func measure(line []cell) (width, breakAt int) {
	breakAt = -1
	for i, c := range line {
		width += c.width
		if c.breakable {
			breakAt = i
		}
	}
	return width, breakAt
}
