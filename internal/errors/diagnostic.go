package errors

import (
	"fmt"
	"sort"

	"polyc/internal/ast"
)

// ErrorLevel represents the severity of a diagnostic
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// NoteRef is a secondary message attached to another span
type NoteRef struct {
	Span    ast.Span
	Message string
}

// Suggestion represents a suggested fix
type Suggestion struct {
	Message     string
	Replacement string
}

// Diagnostic is one structured compiler message
type Diagnostic struct {
	Level       ErrorLevel
	Code        string
	Message     string
	Span        ast.Span
	Notes       []NoteRef
	Suggestions []Suggestion
	HelpText    string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Span.Pos.Filename, d.Span.Pos.Line, d.Span.Pos.Column, d.Level, d.Message)
}

// Diagnostics is an append-only log of diagnostics
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic is an error
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Level == Error {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics of the given level
func (ds Diagnostics) Count(level ErrorLevel) int {
	n := 0
	for _, d := range ds {
		if d.Level == level {
			n++
		}
	}
	return n
}

// Errors returns only the error-level diagnostics
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(Error)
}

// Warnings returns only the warning-level diagnostics
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(Warning)
}

func (ds Diagnostics) filter(level ErrorLevel) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Level == level {
			out = append(out, d)
		}
	}
	return out
}

// WithCode returns the diagnostics carrying code
func (ds Diagnostics) WithCode(code string) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Sorted returns a copy ordered by file and position. Diagnostics at the same
// position keep their emission order.
func (ds Diagnostics) Sorted() Diagnostics {
	out := make(Diagnostics, len(ds))
	copy(out, ds)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Before(out[j].Span)
	})
	return out
}

// Builder provides a fluent interface for creating diagnostics
type Builder struct {
	d Diagnostic
}

// NewError creates a new error builder
func NewError(code, message string, span ast.Span) *Builder {
	return &Builder{d: Diagnostic{Level: Error, Code: code, Message: message, Span: span}}
}

// NewWarning creates a new warning builder
func NewWarning(code, message string, span ast.Span) *Builder {
	return &Builder{d: Diagnostic{Level: Warning, Code: code, Message: message, Span: span}}
}

// WithNote adds a note pointing at another span
func (b *Builder) WithNote(span ast.Span, note string) *Builder {
	b.d.Notes = append(b.d.Notes, NoteRef{Span: span, Message: note})
	return b
}

// WithSuggestion adds a suggestion to the diagnostic
func (b *Builder) WithSuggestion(message string) *Builder {
	b.d.Suggestions = append(b.d.Suggestions, Suggestion{Message: message})
	return b
}

// WithReplacement adds a suggestion with replacement text
func (b *Builder) WithReplacement(message, replacement string) *Builder {
	b.d.Suggestions = append(b.d.Suggestions, Suggestion{Message: message, Replacement: replacement})
	return b
}

// WithHelp sets help text
func (b *Builder) WithHelp(help string) *Builder {
	b.d.HelpText = help
	return b
}

// Build returns the completed diagnostic
func (b *Builder) Build() Diagnostic {
	return b.d
}
