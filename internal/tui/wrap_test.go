package tui

import (
	"strings"
	"testing"
)

func TestStyleCellsCursor(t *testing.T) {
	cells := styleCells([]rune("ab"), []rune("a"), 1)
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if cells[1].s != cursorStyle.Render("b") {
		t.Fatalf("expected cursor style for second rune")
	}
}

func TestStyleCellsNoCursorWhenComplete(t *testing.T) {
	cells := styleCells([]rune("a"), []rune("a"), -1)
	if len(cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(cells))
	}
	if cells[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for completed rune")
	}
}

func TestStyleCellsKeepsReferenceOnMistype(t *testing.T) {
	cells := styleCells([]rune("ab"), []rune("ax"), 2)
	if cells[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected reference rune in incorrect style")
	}
}

func TestStyleCellsWordHighlighting(t *testing.T) {
	cells := styleCells([]rune("one two"), []rune("o"), 1)
	if cells[0].s != correctStyle.Render("o") {
		t.Fatalf("expected correct style for typed rune")
	}
	if cells[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for untyped rune in current word")
	}
	if cells[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestStyleCellsCursorOnSpaceHighlightsNextWord(t *testing.T) {
	cells := styleCells([]rune("ab cd"), []rune("ab"), 2)
	if cells[3].s != currentWordStyle.Render("c") {
		t.Fatalf("expected next word highlighted when cursor is on a space")
	}
}

func TestStyleCellsWrongSpaceMark(t *testing.T) {
	cells := styleCells([]rune("a b"), []rune("ax"), 2)
	if cells[1].s != incorrectStyle.Render(string(wrongSpaceMark)) {
		t.Fatalf("expected mark for wrong space")
	}
	if !cells[1].breakable {
		t.Fatalf("expected reference space to stay breakable")
	}
}

func plainCells(text string) []cell {
	cells := make([]cell, 0, len(text))
	for _, r := range text {
		cells = append(cells, cell{s: string(r), width: 1, breakable: r == ' '})
	}
	return cells
}

func TestWrapCellsBreaksAtSpaces(t *testing.T) {
	got := wrapCells(plainCells("the quick brown fox"), 10)
	want := "the quick\nbrown fox"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWrapCellsSplitsLongWords(t *testing.T) {
	got := wrapCells(plainCells("abcdef gh"), 4)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 || lines[0] != "abcd" || lines[1] != "ef" || lines[2] != "gh" {
		t.Fatalf("unexpected wrapping: %q", got)
	}
}

func TestWrapCellsNoWidth(t *testing.T) {
	if got := wrapCells(plainCells("a b"), 0); got != "a b" {
		t.Fatalf("expected unwrapped text, got %q", got)
	}
}
