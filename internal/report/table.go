package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable lays rows out in columns sized to their widest cell. Widths are
// terminal cells, so kanji labels take two columns. A nil headers slice
// renders rows only.
func formatTable(headers []string, rows [][]string, right map[int]bool) []string {
	all := rows
	if headers != nil {
		all = append([][]string{headers}, rows...)
	}
	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	if len(widths) == 0 {
		return nil
	}

	lines := make([]string, 0, len(all))
	cells := make([]string, len(widths))
	for _, row := range all {
		for i, width := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if right[i] {
				cells[i] = runewidth.FillLeft(cell, width)
			} else {
				cells[i] = runewidth.FillRight(cell, width)
			}
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return lines
}
