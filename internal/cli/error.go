package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/migral/migral/internal/merr"
)

// sortedKeys returns a map's keys in sorted order so output is deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MessageType represents the type of diagnostic message.
type MessageType int

const (
	TypeError MessageType = iota
	TypeWarning
	TypeNote
	TypeHelp
)

// DiagnosticMessage represents a single diagnostic message with optional source context.
type DiagnosticMessage struct {
	Type    MessageType
	Code    string // Error code like "E2002" (empty for warnings/notes/help)
	Message string
	File    string
	Line    int
	Column  int
	Source  string   // The source line
	Span    [2]int   // [start, end] column indices for highlighting
	Label   string   // Label to show under the span
	Notes   []string // Additional notes
	Helps   []string // Help suggestions
}

// FormatError formats an error for CLI display in Cargo/rustc style.
// If the error is a *merr.Error, it extracts structured information.
// Otherwise, it formats as a generic error.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	if e, ok := err.(*merr.Error); ok {
		return formatStructuredError(e)
	}

	return formatGenericError(err)
}

// formatStructuredError formats a *merr.Error in Cargo style.
func formatStructuredError(err *merr.Error) string {
	var b strings.Builder

	code := string(err.GetCode())
	msg := err.GetMessage()
	ctx := err.GetContext()

	// First line: error[E1001]: message
	b.WriteString(Error("error"))
	b.WriteString("[")
	b.WriteString(Code(code))
	b.WriteString("]: ")
	b.WriteString(msg)
	b.WriteString("\n")

	// File location if available
	file, _ := ctx["file"].(string)
	line, _ := ctx["line"].(int)
	col, _ := ctx["column"].(int)

	if file != "" {
		b.WriteString(RenderFileHeader(file, line, col))
	}

	// Source context if available, read from the file when not carried
	// on the error itself
	source, hasSource := ctx["source"].(string)
	if !hasSource && file != "" && line > 0 {
		if snip, serr := NewSourceSnippet(file, line, 0, 0); serr == nil && len(snip.Lines) == 1 {
			source = snip.Lines[0]
			hasSource = true
		}
	}
	var linePadding string
	if hasSource && line > 0 {
		b.WriteString(formatSourceContext(line, source, col, ctx))
		lineStr := fmt.Sprintf("%d", line)
		linePadding = strings.Repeat(" ", len(lineStr)) + " "
	}

	// Context details (excluding already shown items)
	excludeKeys := map[string]bool{
		"file": true, "line": true, "column": true,
		"source": true, "span_start": true, "span_end": true,
		"notes": true, "helps": true, "label": true,
	}

	var details []string
	for _, k := range sortedKeys(ctx) {
		if excludeKeys[k] {
			continue
		}
		details = append(details, fmt.Sprintf("%s: %v", k, ctx[k]))
	}

	if len(details) > 0 && !hasSource {
		b.WriteString("   ")
		b.WriteString(Pipe())
		b.WriteString("\n")
		for _, detail := range details {
			b.WriteString("   ")
			b.WriteString(Pipe())
			b.WriteString(" ")
			b.WriteString(detail)
			b.WriteString("\n")
		}
	}

	// Notes
	for _, note := range err.Notes() {
		b.WriteString("   ")
		b.WriteString(Pipe())
		b.WriteString("\n")
		b.WriteString(Note("note"))
		b.WriteString(": ")
		b.WriteString(note)
		b.WriteString("\n")
	}

	// Helps
	for _, help := range err.Helps() {
		b.WriteString(Help("help"))
		b.WriteString(": ")
		b.WriteString(help)
		b.WriteString("\n")
	}

	// Cause if present
	if cause := err.GetCause(); cause != nil {
		if linePadding != "" {
			b.WriteString(linePadding)
		} else {
			b.WriteString("   ")
		}
		b.WriteString(Pipe())
		b.WriteString("\n")
		b.WriteString(Note("cause"))
		b.WriteString(": ")
		b.WriteString(cause.Error())
		b.WriteString("\n")
	}

	return b.String()
}

// formatSourceContext renders a node file excerpt with a caret span.
func formatSourceContext(line int, source string, col int, ctx map[string]any) string {
	spanStart, _ := ctx["span_start"].(int)
	spanEnd, _ := ctx["span_end"].(int)
	label, _ := ctx["label"].(string)

	snippet := NewSourceSnippetFromString("", line, source)
	start := spanStart
	if start == 0 && col > 0 {
		start = col
	}
	if start > 0 || spanEnd > 0 {
		end := spanEnd
		if end == 0 {
			end = start + 1
		}
		snippet.AddHighlight(line, start, end, label, StyleError)
	}

	padding := strings.Repeat(" ", len(fmt.Sprintf("%d", line)))
	gutter := padding + " " + Pipe() + "\n"

	var b strings.Builder
	b.WriteString(gutter)
	b.WriteString(snippet.Render())
	if len(snippet.SourceHighlights) > 0 {
		b.WriteString(gutter)
	}
	return b.String()
}

// formatGenericError formats a non-structured error.
func formatGenericError(err error) string {
	var b strings.Builder
	b.WriteString(Error("error"))
	b.WriteString(": ")
	b.WriteString(err.Error())
	b.WriteString("\n")
	return b.String()
}

// FormatWarning formats a warning message in Cargo style.
func FormatWarning(msg string, opts ...DiagnosticOption) string {
	diag := &DiagnosticMessage{
		Type:    TypeWarning,
		Message: msg,
	}
	for _, opt := range opts {
		opt(diag)
	}
	return formatDiagnostic(diag)
}

// FormatNote formats a note message.
func FormatNote(msg string) string {
	var b strings.Builder
	b.WriteString(Note("note"))
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString("\n")
	return b.String()
}

// FormatHelp formats a help message.
func FormatHelp(msg string) string {
	var b strings.Builder
	b.WriteString(Help("help"))
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString("\n")
	return b.String()
}

// FormatSuccess formats a success message.
func FormatSuccess(msg string) string {
	var b strings.Builder
	b.WriteString(Success("success"))
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString("\n")
	return b.String()
}

// DiagnosticOption configures a diagnostic message.
type DiagnosticOption func(*DiagnosticMessage)

// WithFile sets the file location for a diagnostic.
func WithFile(file string, line, col int) DiagnosticOption {
	return func(d *DiagnosticMessage) {
		d.File = file
		d.Line = line
		d.Column = col
	}
}

// WithSource sets the source context for a diagnostic.
func WithSource(source string, spanStart, spanEnd int, label string) DiagnosticOption {
	return func(d *DiagnosticMessage) {
		d.Source = source
		d.Span = [2]int{spanStart, spanEnd}
		d.Label = label
	}
}

// WithNotes adds notes to a diagnostic.
func WithNotes(notes ...string) DiagnosticOption {
	return func(d *DiagnosticMessage) {
		d.Notes = append(d.Notes, notes...)
	}
}

// WithHelps adds help suggestions to a diagnostic.
func WithHelps(helps ...string) DiagnosticOption {
	return func(d *DiagnosticMessage) {
		d.Helps = append(d.Helps, helps...)
	}
}

// formatDiagnostic formats a DiagnosticMessage.
func formatDiagnostic(d *DiagnosticMessage) string {
	var b strings.Builder

	switch d.Type {
	case TypeError:
		b.WriteString(Error("error"))
		if d.Code != "" {
			b.WriteString("[")
			b.WriteString(Code(d.Code))
			b.WriteString("]")
		}
	case TypeWarning:
		b.WriteString(Warning("warning"))
	case TypeNote:
		b.WriteString(Note("note"))
	case TypeHelp:
		b.WriteString(Help("help"))
	}

	b.WriteString(": ")
	b.WriteString(d.Message)
	b.WriteString("\n")

	if d.File != "" {
		b.WriteString(RenderFileHeader(d.File, d.Line, d.Column))
	}

	if d.Source != "" && d.Line > 0 {
		ctx := map[string]any{
			"span_start": d.Span[0],
			"span_end":   d.Span[1],
			"label":      d.Label,
		}
		b.WriteString(formatSourceContext(d.Line, d.Source, d.Column, ctx))
	}

	for _, note := range d.Notes {
		b.WriteString("   ")
		b.WriteString(Pipe())
		b.WriteString("\n")
		b.WriteString(Note("note"))
		b.WriteString(": ")
		b.WriteString(note)
		b.WriteString("\n")
	}

	for _, help := range d.Helps {
		b.WriteString(Help("help"))
		b.WriteString(": ")
		b.WriteString(help)
		b.WriteString("\n")
	}

	return b.String()
}
