package main

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const maxCellWidth = 60

// formatTable writes rows as left-aligned columns separated by two spaces.
// A nil header is not printed. Cells wider than maxCellWidth are truncated.
func formatTable(w io.Writer, header []string, rows [][]string) error {
	all := rows
	if header != nil {
		all = append([][]string{header}, rows...)
	}
	var widths []int
	for _, row := range all {
		for i, cell := range row {
			cw := min(runewidth.StringWidth(cell), maxCellWidth)
			if i >= len(widths) {
				widths = append(widths, cw)
			} else {
				widths[i] = max(widths[i], cw)
			}
		}
	}

	var sb strings.Builder
	for _, row := range all {
		for i, cell := range row {
			cell = runewidth.Truncate(cell, maxCellWidth, "…")
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
