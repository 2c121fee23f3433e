// internal/errors/errors.go
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies everything the pipeline can report.
type Kind string

const (
	LexicalError         Kind = "LexicalError"
	SyntaxError          Kind = "SyntaxError"
	DuplicateDeclaration Kind = "DuplicateDeclaration"
	UndeclaredVariable   Kind = "UndeclaredVariable"
	GenerationError      Kind = "GenerationError"
	MalformedInstruction Kind = "MalformedInstruction"
	UnresolvedLabel      Kind = "UnresolvedLabel"
	RuntimeFault         Kind = "RuntimeFault"
)

// SourceLocation represents a location in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// Diagnostic represents an error with source location information.
// Compile-time and load-time failures are all Diagnostics; machine
// failures during execution are Faults (see fault.go).
type Diagnostic struct {
	Kind     Kind
	Message  string
	Location SourceLocation
	Source   string // The source line where error occurred
	Hint     string // Optional repair suggestion
}

// Error implements the error interface
func (e *Diagnostic) Error() string {
	var sb strings.Builder

	// Error kind and message
	sb.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, e.Message))

	// Location information
	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf("  at %s:%d:%d\n",
			e.Location.File, e.Location.Line, e.Location.Column))

		// Show source line if available
		if e.Source != "" {
			sb.WriteString(fmt.Sprintf("\n  %d | %s\n", e.Location.Line, e.Source))
			// Add error indicator
			sb.WriteString(fmt.Sprintf("  %s", strings.Repeat(" ", len(fmt.Sprintf("%d | ", e.Location.Line)))))
			if e.Location.Column > 0 {
				sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			}
			sb.WriteString("^\n")
		}
	}

	if e.Hint != "" {
		sb.WriteString(fmt.Sprintf("  hint: %s\n", e.Hint))
	}

	return sb.String()
}

// New creates a diagnostic of the given kind
func New(kind Kind, message string, file string, line, column int) *Diagnostic {
	return &Diagnostic{
		Kind:    kind,
		Message: message,
		Location: SourceLocation{
			File:   file,
			Line:   line,
			Column: column,
		},
	}
}

// NewLexicalError creates a new lexical error
func NewLexicalError(message string, file string, line, column int) *Diagnostic {
	return New(LexicalError, message, file, line, column)
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(message string, file string, line, column int) *Diagnostic {
	return New(SyntaxError, message, file, line, column)
}

// WithSource adds source code context to the error
func (e *Diagnostic) WithSource(source string) *Diagnostic {
	e.Source = source
	return e
}

// WithHint adds a repair suggestion to the error
func (e *Diagnostic) WithHint(hint string) *Diagnostic {
	e.Hint = hint
	return e
}

// IsKind reports whether err is a *Diagnostic of the given kind.
func IsKind(err error, kind Kind) bool {
	d, ok := err.(*Diagnostic)
	return ok && d.Kind == kind
}
