package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary   = lipgloss.Color("12")
	colorSuccess   = lipgloss.Color("10")
	colorWarning   = lipgloss.Color("11")
	colorError     = lipgloss.Color("9")
	colorMuted     = lipgloss.Color("8")
	colorHighlight = lipgloss.Color("14")
	colorWhite     = lipgloss.Color("15")
)

// Node status badges
var (
	badgeApplied = lipgloss.NewStyle().
			Background(colorSuccess).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1).
			Bold(true)

	badgePending = lipgloss.NewStyle().
			Background(colorWarning).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1).
			Bold(true)

	badgeError = lipgloss.NewStyle().
			Background(colorError).
			Foreground(colorWhite).
			Padding(0, 1).
			Bold(true)
)

var panelSuccess = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorSuccess).
	Padding(1, 2)

// RenderBadge renders text as a badge, falling back to brackets when
// colors are disabled.
func RenderBadge(text string, style lipgloss.Style) string {
	if !EnableColors() {
		return "[" + text + "]"
	}
	return style.Render(text)
}

// RenderAppliedBadge renders the badge for an applied node.
func RenderAppliedBadge() string {
	return RenderBadge("APPLIED", badgeApplied)
}

// RenderPendingBadge renders the badge for a pending node.
func RenderPendingBadge() string {
	return RenderBadge("PENDING", badgePending)
}

// RenderErrorBadge renders the badge for a missing or modified node.
func RenderErrorBadge() string {
	return RenderBadge("ERROR", badgeError)
}

// RenderSuccessPanel renders a titled panel for a completed operation.
func RenderSuccessPanel(title, content string) string {
	if !EnableColors() {
		return fmt.Sprintf("✓ %s\n%s", title, content)
	}

	titleRendered := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSuccess).
		Render("✓ " + title)

	return panelSuccess.Render(titleRendered + "\n\n" + content)
}

// StyledTable renders a bordered table. Cells may carry their own ANSI
// styling; widths are measured on the stripped text.
type StyledTable struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewStyledTable creates a table with the given column headers.
func NewStyledTable(headers ...string) *StyledTable {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &StyledTable{headers: headers, widths: widths}
}

// AddRow appends a row, padding short rows to the header count.
func (t *StyledTable) AddRow(cells ...string) {
	for len(cells) < len(t.headers) {
		cells = append(cells, "")
	}
	for i := range t.headers {
		if w := len(stripAnsi(cells[i])); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, cells[:len(t.headers)])
}

func (t *StyledTable) String() string {
	if len(t.headers) == 0 {
		return ""
	}
	if !EnableColors() {
		return t.renderPlain()
	}
	return t.renderStyled()
}

func (t *StyledTable) renderPlain() string {
	var b strings.Builder

	for i, h := range t.headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padRight(h, t.widths[i]))
	}
	b.WriteString("\n")

	for i, w := range t.widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(padRightAnsi(cell, t.widths[i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (t *StyledTable) renderStyled() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorHighlight)
	borderStyle := lipgloss.NewStyle().Foreground(colorMuted)
	cellStyle := lipgloss.NewStyle().Foreground(colorWhite)

	totalWidth := 0
	for _, w := range t.widths {
		totalWidth += w + 3
	}
	totalWidth--

	b.WriteString(borderStyle.Render("╭" + strings.Repeat("─", totalWidth+2) + "╮"))
	b.WriteString("\n")

	b.WriteString(borderStyle.Render("│") + " ")
	for i, h := range t.headers {
		if i > 0 {
			b.WriteString(borderStyle.Render(" │ "))
		}
		b.WriteString(headerStyle.Render(padRight(h, t.widths[i])))
	}
	b.WriteString(" " + borderStyle.Render("│"))
	b.WriteString("\n")

	b.WriteString(borderStyle.Render("├" + strings.Repeat("─", totalWidth+2) + "┤"))
	b.WriteString("\n")

	for _, row := range t.rows {
		b.WriteString(borderStyle.Render("│") + " ")
		for i, cell := range row {
			if i > 0 {
				b.WriteString(borderStyle.Render(" │ "))
			}
			b.WriteString(cellStyle.Render(padRightAnsi(cell, t.widths[i])))
		}
		b.WriteString(" " + borderStyle.Render("│"))
		b.WriteString("\n")
	}

	b.WriteString(borderStyle.Render("╰" + strings.Repeat("─", totalWidth+2) + "╯"))
	b.WriteString("\n")
	return b.String()
}

// StatusLine joins short status fragments on one line, each with its
// own severity icon.
type StatusLine struct {
	items []statusItem
}

type statusItem struct {
	icon    string
	message string
	style   lipgloss.Style
}

// NewStatusLine creates an empty status line.
func NewStatusLine() *StatusLine {
	return &StatusLine{}
}

func (s *StatusLine) add(icon, msg string, color lipgloss.Color) *StatusLine {
	s.items = append(s.items, statusItem{
		icon:    icon,
		message: msg,
		style:   lipgloss.NewStyle().Foreground(color),
	})
	return s
}

// AddSuccess appends a success fragment.
func (s *StatusLine) AddSuccess(msg string) *StatusLine {
	return s.add("✓", msg, colorSuccess)
}

// AddWarning appends a warning fragment.
func (s *StatusLine) AddWarning(msg string) *StatusLine {
	return s.add("!", msg, colorWarning)
}

// AddError appends an error fragment.
func (s *StatusLine) AddError(msg string) *StatusLine {
	return s.add("✗", msg, colorError)
}

// AddInfo appends an informational fragment.
func (s *StatusLine) AddInfo(msg string) *StatusLine {
	return s.add("→", msg, colorPrimary)
}

func (s *StatusLine) String() string {
	parts := make([]string, 0, len(s.items))
	for _, item := range s.items {
		text := item.icon + " " + item.message
		if EnableColors() {
			text = item.style.Render(text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "  ")
}

// stripAnsi removes SGR escape sequences for width measurement.
func stripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// padRightAnsi pads a string whose visible width may differ from its
// byte length.
func padRightAnsi(s string, width int) string {
	plainLen := len(stripAnsi(s))
	if plainLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-plainLen)
}

// KeyValue renders a "key: value" pair with a muted key.
func KeyValue(key, value string) string {
	if !EnableColors() {
		return fmt.Sprintf("%s: %s", key, value)
	}
	keyStyle := lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle := lipgloss.NewStyle().Foreground(colorWhite)
	return keyStyle.Render(key+":") + " " + valueStyle.Render(value)
}

// Bold renders bold text.
func Bold(s string) string {
	if !EnableColors() {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Render(s)
}
