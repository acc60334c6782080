package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/typetrace/internal/model"
)

func TestFormatTableRightAlignsNumericColumns(t *testing.T) {
	headers := []string{"Word", "Errors", "Accuracy"}
	rows := [][]string{
		{"teh", "12", "95.50%"},
		{"wizzards", "3", "100%"},
	}

	lines := formatTable(headers, rows)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Word     Errors Accuracy" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "teh          12   95.50%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "wizzards      3     100%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableMixedColumnStaysLeft(t *testing.T) {
	lines := formatTable([]string{"Typed", "N"}, [][]string{{"42", "1"}, {"cat", "10"}, {"", "3"}})
	want := []string{
		"Typed  N",
		"42     1",
		"cat   10",
		"       3",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Word", "N"}, [][]string{{"日本", "1"}, {"ab", "2"}})
	if lines[1] != "日本 1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ab   2" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil); lines != nil {
		t.Fatalf("expected no lines, got %q", lines)
	}
}

func TestRenderErrorPatternsLabelsBlankWord(t *testing.T) {
	var buf bytes.Buffer
	patterns := []model.ErrorPattern{{Word: "teh", TotalErrors: 12}, {Word: "", TotalErrors: 3}}
	if err := RenderErrorPatterns(&buf, patterns); err != nil {
		t.Fatalf("RenderErrorPatterns failed: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	want := []string{
		"Error Words",
		"# Word    Errors",
		"1 teh         12",
		"2 (blank)      3",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}
