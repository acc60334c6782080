package generator

import (
	"strings"
	"testing"

	"github.com/verte-zerg/typetrace/internal/model"
)

func TestTextWordCount(t *testing.T) {
	g := NewWithSeed(1)
	text := g.Text([]string{"alpha", "beta", "gamma"}, Options{Count: 12})
	if got := len(strings.Fields(text)); got != 12 {
		t.Fatalf("expected 12 words, got %d: %q", got, text)
	}
	if text != strings.ToLower(text) {
		t.Fatalf("expected no capitalization without caps: %q", text)
	}
}

func TestTextDecorations(t *testing.T) {
	g := NewWithSeed(2)
	text := g.Text([]string{"alpha", "beta"}, Options{Count: 8, CapsPct: 1, PunctPct: 1, PunctSet: []rune{'.'}})
	for _, word := range strings.Fields(text) {
		if !strings.HasSuffix(word, ".") {
			t.Fatalf("expected punctuation on %q", word)
		}
		if word[:1] != strings.ToUpper(word[:1]) {
			t.Fatalf("expected capitalized %q", word)
		}
	}
}

func TestTextEmptyInputs(t *testing.T) {
	g := NewWithSeed(3)
	if got := g.Text(nil, Options{Count: 5}); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
	if got := g.Text([]string{"a"}, Options{}); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestFocusTextPrefersMistypedWords(t *testing.T) {
	g := NewWithSeed(4)
	patterns := []model.ErrorPattern{{Word: "Beta", TotalErrors: 1000}}
	text := g.FocusText([]string{"alpha", "beta"}, patterns, 1, Options{Count: 50})
	beta := 0
	for _, word := range strings.Fields(text) {
		if word == "beta" {
			beta++
		}
	}
	if beta < 40 {
		t.Fatalf("expected mistyped word to dominate, got %d of 50", beta)
	}
}
