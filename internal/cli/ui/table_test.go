package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "SECTION", "TYPE", "ID")
	table.AddRow("data", "articles", "1")
	table.AddRow("included", "people", "9", "dropped")
	table.AddRow("included")
	table.Render()

	assert.Equal(t, 3, table.Len())
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"SECTION   TYPE      ID",
		"────────  ────────  ──",
		"data      articles  1",
		"included  people    9",
		"included            ",
	}, lines)
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true)
	table.AddRow("ignored")
	table.Render()
	assert.Empty(t, buf.String())
}

func TestKeyValueTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewKeyValueTable(&buf, true)
	table.AddRow("Version", "1.0.0")
	table.AddRow("Go version", "go1.23")
	table.Render()

	assert.Equal(t, "Version:    1.0.0\nGo version: go1.23\n", buf.String())
}
