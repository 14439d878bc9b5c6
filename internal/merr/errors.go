// Package merr provides standardized error handling for Migral.
// All errors have stable, machine-readable codes, structured context, and proper wrapping.
package merr

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number} where category is 1-5 and number is 001-999.
type Code string

// Error codes organized by category.
const (
	// Schema errors (E1xxx) - problems replaying operations against schema state
	ErrDuplicateModel       Code = "E1001" // Model with the same name already exists in namespace
	ErrUnknownModel         Code = "E1002" // Referenced model does not exist
	ErrDuplicateField       Code = "E1003" // Field with the same name already exists on model
	ErrUnknownField         Code = "E1004" // Referenced field does not exist on model
	ErrReverseNameCollision Code = "E1005" // Reverse relation name already taken in namespace
	ErrUnresolvedReference  Code = "E1006" // Relation target does not resolve in schema state

	// Validation errors (E2xxx) - problems with declared names and descriptors
	ErrInvalidIdentifier Code = "E2001" // Identifier does not match allowed pattern
	ErrInvalidOperation  Code = "E2002" // Operation is malformed or missing fields
	ErrInvalidField      Code = "E2003" // Field descriptor is malformed
	ErrReservedWord      Code = "E2004" // Name is a reserved SQL keyword
	ErrInvalidType       Code = "E2005" // Semantic type is not supported
	ErrInvalidPolicy     Code = "E2006" // On-delete policy is not recognized

	// Planning errors (E3xxx) - problems building or replaying the migration graph
	ErrCyclicDependency Code = "E3001" // Migration nodes form a dependency cycle
	ErrMissingDep       Code = "E3002" // Node depends on a node not in the set
	ErrApplyFailed      Code = "E3003" // Replaying a node's operations failed
	ErrNodeConflict     Code = "E3004" // Two nodes share the same namespace and name
	ErrNodeChecksum     Code = "E3005" // Node file checksum does not match recorded value

	// Definition errors (E4xxx) - problems loading node definition files
	ErrDefinitionRead    Code = "E4001" // Node definition file could not be read
	ErrDefinitionParse   Code = "E4002" // Node definition file is malformed YAML
	ErrDefinitionInvalid Code = "E4003" // Node definition fails structural validation

	// Ledger errors (E5xxx) - problems with the applied-history database
	ErrLedgerConnect Code = "E5001" // Could not open history database
	ErrLedgerQuery   Code = "E5002" // History query failed
	ErrLedgerWrite   Code = "E5003" // Recording an applied node failed
	ErrDDLVerify     Code = "E5004" // Generated DDL failed verification

	// Workspace errors (E6xxx) - problems with project configuration and lock state
	ErrConfig     Code = "E6001" // Configuration file is missing or invalid
	ErrLockfile   Code = "E6002" // Lock file is invalid or does not match the plan
	ErrNotGitRepo Code = "E6003" // Path is not inside a git repository
	ErrGit        Code = "E6004" // A git operation failed

	// Internal errors (E9xxx) - unexpected internal errors
	ErrInternal Code = "E9001" // Internal error
)

// Error is the standard error type for Migral.
// It provides structured error information with codes, context, and wrapping support.
type Error struct {
	code    Code           // Machine-readable error code
	message string         // Human-readable error message
	context map[string]any // Structured context data
	cause   error          // Wrapped underlying error
	stack   string         // Stack trace for debugging
}

// Error returns the formatted error string.
// Format:
//
//	[E1004] field does not exist
//	  model: contact.communication
//	  field: medum
//	  help: did you mean 'medium'?
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Write context in sorted order for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether the target error matches this error.
// It matches if target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}

	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// GetCause returns the underlying cause error.
func (e *Error) GetCause() error {
	return e.cause
}

// GetStack returns the stack trace.
func (e *Error) GetStack() string {
	return e.stack
}

// With adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithModel adds model context to the error.
// Format: "namespace.model" or just "model" if namespace is empty.
func (e *Error) WithModel(ns, model string) *Error {
	if ns != "" {
		return e.With("model", ns+"."+model)
	}
	return e.With("model", model)
}

// WithField adds field context to the error.
func (e *Error) WithField(name string) *Error {
	return e.With("field", name)
}

// WithNode adds migration node context to the error.
// Format: "namespace.node_name".
func (e *Error) WithNode(ns, name string) *Error {
	if ns != "" {
		return e.With("node", ns+"."+name)
	}
	return e.With("node", name)
}

// WithOpIndex adds the zero-based index of the failing operation within a node.
func (e *Error) WithOpIndex(i int) *Error {
	return e.With("operation", i)
}

// WithFile adds file location context to the error.
func (e *Error) WithFile(path string) *Error {
	return e.With("file", path)
}

// WithLocation adds file, line, and column context to the error.
// Zero line or column values are omitted.
func (e *Error) WithLocation(file string, line, col int) *Error {
	e = e.With("file", file)
	if line > 0 {
		e = e.With("line", line)
	}
	if col > 0 {
		e = e.With("column", col)
	}
	return e
}

// WithSource attaches the offending definition line for display.
func (e *Error) WithSource(source string) *Error {
	return e.With("source", source)
}

// WithSpan marks the column range to highlight within the source line.
func (e *Error) WithSpan(start, end int) *Error {
	return e.With("span_start", start).With("span_end", end)
}

// WithNote adds a note to the error (displayed as "note: ...").
func (e *Error) WithNote(note string) *Error {
	notes, _ := e.context["notes"].([]string)
	notes = append(notes, note)
	return e.With("notes", notes)
}

// WithHelp adds a help suggestion to the error (displayed as "help: ...").
func (e *Error) WithHelp(help string) *Error {
	helps, _ := e.context["helps"].([]string)
	helps = append(helps, help)
	return e.With("helps", helps)
}

// Notes returns all notes attached to this error.
func (e *Error) Notes() []string {
	notes, _ := e.context["notes"].([]string)
	return notes
}

// Helps returns all help suggestions attached to this error.
func (e *Error) Helps() []string {
	helps, _ := e.context["helps"].([]string)
	return helps
}

// captureStack captures a stack trace for debugging.
func captureStack(skip int) string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		// Skip runtime internals
		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}
		b.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return b.String()
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		cause:   err,
		stack:   captureStack(3),
	}
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	if err == nil {
		return Newf(code, format, args...)
	}
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
		context: make(map[string]any),
		cause:   err,
		stack:   captureStack(3),
	}
}

// CodeOf returns the code of err if it is a *Error, or ErrInternal otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ErrInternal
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}
