// Package ui renders terminal output for the CLI.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Table writes rows under a bold header, columns padded to the widest cell
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a table with the given headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{writer: w, headers: headers, noColor: noColor}
}

// AddRow adds a row. Cells beyond the header count are dropped and missing
// cells render empty.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	header := t.style(color.Bold, color.FgCyan)
	separator := t.style(color.FgHiBlack)

	t.line(widths, t.headers, header)
	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("─", width)
	}
	t.line(widths, rule, separator)
	for _, row := range t.rows {
		t.line(widths, row, nil)
	}
}

func (t *Table) line(widths []int, cells []string, c *color.Color) {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		if i == len(cells)-1 {
			padded[i] = cell
			continue
		}
		padded[i] = padRight(cell, widths[i])
	}
	text := strings.Join(padded, "  ")
	if c == nil {
		fmt.Fprintln(t.writer, text)
		return
	}
	c.Fprintln(t.writer, text)
}

func (t *Table) style(attributes ...color.Attribute) *color.Color {
	c := color.New(attributes...)
	if t.noColor {
		c.DisableColor()
	}
	return c
}

// KeyValueTable writes "key: value" lines with aligned values
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates a key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render writes the table
func (t *KeyValueTable) Render() {
	width := 0
	for _, key := range t.keys {
		width = max(width, len(key)+1)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	if t.noColor {
		cyan.DisableColor()
	}
	for i, key := range t.keys {
		cyan.Fprint(t.writer, padRight(key+":", width))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
