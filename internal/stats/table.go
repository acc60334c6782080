package stats

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// blankWordLabel stands in for the empty token a stray space leaves in the error tally.
const blankWordLabel = "(blank)"

// WordLabel returns a printable label for a typed word.
func WordLabel(word string) string {
	if word == "" {
		return blankWordLabel
	}
	return word
}

type column struct {
	width   int
	numeric bool
}

// formatTable lays out rows under headers. Columns whose body cells are all
// numbers are right-aligned; empty cells do not count against that.
func formatTable(headers []string, rows [][]string) []string {
	cols := measureColumns(headers, rows)
	if len(cols) == 0 {
		return nil
	}
	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, cols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, cols))
	}
	return lines
}

func measureColumns(headers []string, rows [][]string) []column {
	n := len(headers)
	for _, row := range rows {
		n = max(n, len(row))
	}
	cols := make([]column, n)
	for i := range cols {
		cols[i].numeric = len(rows) > 0
	}
	for i, header := range headers {
		cols[i].width = displayWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			cols[i].width = max(cols[i].width, displayWidth(cell))
			if cell != "" && !isNumber(cell) {
				cols[i].numeric = false
			}
		}
	}
	return cols
}

func formatRow(row []string, cols []column) string {
	cells := make([]string, len(cols))
	for i, col := range cols {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = padCell(cell, col)
	}
	return strings.Join(cells, " ")
}

func padCell(value string, col column) string {
	padding := col.width - displayWidth(value)
	if padding <= 0 {
		return value
	}
	if col.numeric {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func isNumber(value string) bool {
	_, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	return err == nil
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
