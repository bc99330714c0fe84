package ragmark

import "strings"

// RenderMarkdownTable renders a 2D cell grid as a markdown pipe table.
// The first row is treated as the header. Cell newlines collapse to
// spaces, literal pipes are escaped, and short rows are padded to the
// header width so the table stays well-formed.
func RenderMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	numCols := len(rows[0])
	if numCols == 0 {
		return ""
	}

	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = sanitizeTableCell(row[i])
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(rows[0])

	b.WriteString("|")
	for i := 0; i < numCols; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range rows[1:] {
		writeRow(row)
	}
	return b.String()
}

// sanitizeTableCell makes a cell safe to embed in a pipe table.
func sanitizeTableCell(cell string) string {
	cell = strings.ReplaceAll(cell, "\r\n", " ")
	cell = strings.ReplaceAll(cell, "\n", " ")
	cell = strings.ReplaceAll(cell, "|", `\|`)
	return strings.TrimSpace(cell)
}
