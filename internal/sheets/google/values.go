package google

import (
	"fmt"
	"strings"

	"financeiro/internal/export"
)

// tableValues converts a table into the matrix the Sheets API expects,
// header first.
func tableValues(t export.Table) [][]interface{} {
	out := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out = append(out, header)
	for _, row := range t.Rows {
		out = append(out, append([]interface{}(nil), row...))
	}
	return out
}

// tableRange is the A1 range covering cols x rows from the top-left cell.
func tableRange(sheet string, cols, rows int) string {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return fmt.Sprintf("%s!A1:%s%d", quoteSheet(sheet), columnName(cols), rows)
}

// columnName turns a 1-based column index into letters (1 -> A, 27 -> AA).
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// quoteSheet quotes sheet names for A1 notation; embedded quotes double.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
