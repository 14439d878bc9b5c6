package cli

import (
	"fmt"
	"strings"
)

// Table renders aligned columnar output with a header row.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow appends a row. Short rows are padded to the header count and
// cells beyond it are dropped.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.headers) {
		cells = append(cells, "")
	}
	for i := range t.headers {
		if len(cells[i]) > t.widths[i] {
			t.widths[i] = len(cells[i])
		}
	}
	t.rows = append(t.rows, cells[:len(t.headers)])
}

func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(style(padRight(cell, t.widths[i])))
		}
		b.WriteString("\n")
	}

	writeRow(t.headers, Header)

	for i, w := range t.widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(Dim(strings.Repeat("─", w)))
	}
	b.WriteString("\n")

	plain := func(s string) string { return s }
	for _, row := range t.rows {
		writeRow(row, plain)
	}
	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// List renders a bulleted list with per-item severity markers.
type List struct {
	lines  []string
	indent int
}

// NewList creates an empty list indented two spaces.
func NewList() *List {
	return &List{indent: 2}
}

func (l *List) add(marker, content string) {
	l.lines = append(l.lines, marker+" "+content)
}

// Add appends a neutral item.
func (l *List) Add(content string) {
	l.add("•", content)
}

// AddSuccess appends an item with a success marker.
func (l *List) AddSuccess(content string) {
	l.add(Success("✓"), content)
}

// AddError appends an item with an error marker.
func (l *List) AddError(content string) {
	l.add(Failed("✗"), content)
}

// AddWarning appends an item with a warning marker.
func (l *List) AddWarning(content string) {
	l.add(Warning("!"), content)
}

// AddInfo appends an item with an info marker.
func (l *List) AddInfo(content string) {
	l.add(Info("→"), content)
}

func (l *List) String() string {
	var b strings.Builder
	indent := strings.Repeat(" ", l.indent)
	for _, line := range l.lines {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Box draws content inside a titled border.
func Box(title, content string) string {
	lines := strings.Split(content, "\n")

	maxWidth := len(title)
	for _, line := range lines {
		if len(line) > maxWidth {
			maxWidth = len(line)
		}
	}

	var b strings.Builder
	b.WriteString("┌─ ")
	b.WriteString(Header(title))
	b.WriteString(" ")
	b.WriteString(strings.Repeat("─", maxWidth-len(title)+1))
	b.WriteString("┐\n")
	for _, line := range lines {
		b.WriteString("│ ")
		b.WriteString(padRight(line, maxWidth+2))
		b.WriteString(" │\n")
	}
	b.WriteString("└")
	b.WriteString(strings.Repeat("─", maxWidth+4))
	b.WriteString("┘\n")
	return b.String()
}

// Indent prefixes every non-empty line of content with the given number
// of spaces.
func Indent(content string, spaces int) string {
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// FormatCount renders a count with its singular or plural noun.
func FormatCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
