package db

import (
	"fmt"
	"io"
	"strings"
)

// SimpleTable renders rows as an ASCII table. Column widths are
// tracked as cells arrive; set MaxCellWidth before adding them.
type SimpleTable struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	widths  []int

	// MaxCellWidth truncates longer cells; 0 means no limit.
	MaxCellWidth int
}

// NewTable creates a new table writer
func NewTable(w io.Writer) *SimpleTable {
	return &SimpleTable{writer: w}
}

// Header sets the table headers
func (t *SimpleTable) Header(headers []string) {
	t.headers = headers
	t.grow(headers)
}

// Row adds a single row
func (t *SimpleTable) Row(row []string) {
	t.rows = append(t.rows, row)
	t.grow(row)
}

// Bulk adds multiple rows
func (t *SimpleTable) Bulk(rows [][]string) {
	for _, row := range rows {
		t.Row(row)
	}
}

func (t *SimpleTable) grow(cells []string) {
	for len(t.widths) < len(cells) {
		t.widths = append(t.widths, 1)
	}
	for i, cell := range cells {
		if w := len(t.clip(cell)); w > t.widths[i] {
			t.widths[i] = w
		}
	}
}

func (t *SimpleTable) clip(cell string) string {
	if t.MaxCellWidth > 3 && len(cell) > t.MaxCellWidth {
		return cell[:t.MaxCellWidth-3] + "..."
	}
	return cell
}

// Render outputs the formatted table
func (t *SimpleTable) Render() {
	if len(t.widths) == 0 {
		return
	}

	separator := t.separator()

	fmt.Fprintln(t.writer, separator)
	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, t.formatRow(t.headers))
		fmt.Fprintln(t.writer, separator)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, t.formatRow(row))
	}
	fmt.Fprintln(t.writer, separator)
}

func (t *SimpleTable) separator() string {
	parts := make([]string, len(t.widths))
	for i, w := range t.widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

func (t *SimpleTable) formatRow(row []string) string {
	parts := make([]string, len(t.widths))
	for i, w := range t.widths {
		cell := ""
		if i < len(row) {
			cell = t.clip(row[i])
		}
		parts[i] = " " + cell + strings.Repeat(" ", w-len(cell)+1)
	}
	return "|" + strings.Join(parts, "|") + "|"
}
