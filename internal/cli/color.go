package cli

import "github.com/charmbracelet/lipgloss"

// Diagnostic colors follow the Cargo/rustc convention. ANSI 256 codes
// keep the palette usable on basic terminals.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleNote    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleHelp    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	// Error codes such as E3001
	styleCode = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	// Node file excerpts
	styleLineNum  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	stylePipe     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	stylePointer  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleSource   = lipgloss.NewStyle()
	styleFilePath = lipgloss.NewStyle().Bold(true)

	// Apply progress
	styleProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleDone     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	// Tables and summaries
	styleHeader    = lipgloss.NewStyle().Bold(true)
	styleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// paint applies a style unless colors are disabled for this process.
func paint(style lipgloss.Style, s string) string {
	if !EnableColors() {
		return s
	}
	return style.Render(s)
}

// Error styles an error label.
func Error(s string) string { return paint(styleError, s) }

// Warning styles a warning label.
func Warning(s string) string { return paint(styleWarning, s) }

// Note styles a note label.
func Note(s string) string { return paint(styleNote, s) }

// Help styles a help label.
func Help(s string) string { return paint(styleHelp, s) }

// Success styles a success message.
func Success(s string) string { return paint(styleSuccess, s) }

// Info styles informational text.
func Info(s string) string { return paint(styleInfo, s) }

// Code styles an error code.
func Code(s string) string { return paint(styleCode, s) }

// LineNum styles a line number in a file excerpt.
func LineNum(s string) string { return paint(styleLineNum, s) }

// Pipe returns the gutter separator for file excerpts.
func Pipe() string { return paint(stylePipe, "|") }

// Pointer styles the caret run under an offending span.
func Pointer(s string) string { return paint(stylePointer, s) }

// Source styles an excerpted line of a node file.
func Source(s string) string { return paint(styleSource, s) }

// FilePath styles a file path.
func FilePath(s string) string { return paint(styleFilePath, s) }

// Progress styles an in-flight progress line.
func Progress(s string) string { return paint(styleProgress, s) }

// Done styles a completed progress line.
func Done(s string) string { return paint(styleDone, s) }

// Failed styles a failed progress line.
func Failed(s string) string { return paint(styleFailed, s) }

// Header styles a table header.
func Header(s string) string { return paint(styleHeader, s) }

// Dim styles muted text.
func Dim(s string) string { return paint(styleDim, s) }

// Highlight styles emphasized text.
func Highlight(s string) string { return paint(styleHighlight, s) }
