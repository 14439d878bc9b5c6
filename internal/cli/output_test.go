package cli

import (
	"strings"
	"testing"
)

func init() {
	// Plain mode keeps rendered output deterministic under test.
	SetDefault(&Config{Mode: ModePlain})
}

// -----------------------------------------------------------------------------
// Table Tests
// -----------------------------------------------------------------------------

func TestTable_String(t *testing.T) {
	table := NewTable("#", "NODE", "STATUS")
	table.AddRow("1", "country.0001_initial", "applied")
	table.AddRow("2", "contact.0002_email", "pending")

	result := table.String()

	for _, want := range []string{"NODE", "STATUS", "country.0001_initial", "pending", "─"} {
		if !strings.Contains(result, want) {
			t.Errorf("String() missing %q:\n%s", want, result)
		}
	}
}

func TestTable_ColumnWidths(t *testing.T) {
	table := NewTable("NODE", "STATUS")
	table.AddRow("contact.0001_initial", "applied")

	if table.widths[0] != len("contact.0001_initial") {
		t.Errorf("widths[0] = %d, want %d", table.widths[0], len("contact.0001_initial"))
	}
}

func TestTable_ShortRowPadded(t *testing.T) {
	table := NewTable("A", "B", "C")
	table.AddRow("1", "2")

	if len(table.rows[0]) != 3 {
		t.Fatalf("len(rows[0]) = %d, want 3", len(table.rows[0]))
	}
	if table.rows[0][2] != "" {
		t.Errorf("rows[0][2] = %q, want empty", table.rows[0][2])
	}
}

func TestTable_Empty(t *testing.T) {
	if got := (&Table{}).String(); got != "" {
		t.Errorf("String() = %q, want empty", got)
	}
}

// -----------------------------------------------------------------------------
// List Tests
// -----------------------------------------------------------------------------

func TestList_Markers(t *testing.T) {
	list := NewList()
	list.Add("neutral")
	list.AddSuccess("applied country.0001_initial")
	list.AddError("chain broken at contact.0002_email")
	list.AddWarning("untracked node file")
	list.AddInfo("3 nodes pending")

	result := list.String()

	for _, want := range []string{
		"• neutral",
		"✓ applied country.0001_initial",
		"✗ chain broken at contact.0002_email",
		"! untracked node file",
		"→ 3 nodes pending",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("String() missing %q:\n%s", want, result)
		}
	}
}

func TestList_Empty(t *testing.T) {
	if got := NewList().String(); got != "" {
		t.Errorf("String() = %q, want empty", got)
	}
}

// -----------------------------------------------------------------------------
// Box / Indent Tests
// -----------------------------------------------------------------------------

func TestBox(t *testing.T) {
	result := Box("chain integrity", "2 applied\n1 pending")

	for _, want := range []string{"chain integrity", "2 applied", "1 pending", "┌", "┘"} {
		if !strings.Contains(result, want) {
			t.Errorf("Box() missing %q:\n%s", want, result)
		}
	}
}

func TestIndent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		spaces  int
		want    string
	}{
		{"single_line", "hello", 2, "  hello"},
		{"multiple_lines", "one\ntwo", 4, "    one\n    two"},
		{"empty_line_untouched", "one\n\ntwo", 2, "  one\n\n  two"},
		{"zero", "hello", 0, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Indent(tt.content, tt.spaces); got != tt.want {
				t.Errorf("Indent(%q, %d) = %q, want %q", tt.content, tt.spaces, got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// FormatCount Tests
// -----------------------------------------------------------------------------

func TestFormatCount(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "0 nodes"},
		{1, "1 node"},
		{2, "2 nodes"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatCount(tt.count, "node", "nodes"); got != tt.want {
				t.Errorf("FormatCount(%d) = %q, want %q", tt.count, got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abc", 3, "abc"},
		{"abcdef", 3, "abcdef"},
		{"", 2, "  "},
	}

	for _, tt := range tests {
		if got := padRight(tt.input, tt.width); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}
