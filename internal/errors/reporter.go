package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"polyc/internal/ast"
)

// ErrorReporter formats diagnostics against the source they refer to
type ErrorReporter struct {
	sources map[string][]string
}

// NewErrorReporter creates a reporter for a single file
func NewErrorReporter(filename, source string) *ErrorReporter {
	r := &ErrorReporter{sources: map[string][]string{}}
	r.AddSource(filename, source)
	return r
}

// AddSource registers another file so notes pointing into it can be rendered
func (er *ErrorReporter) AddSource(filename, source string) {
	er.sources[filename] = strings.Split(source, "\n")
}

// FormatError formats a diagnostic with rustc-like styling, notes and suggestions
func (er *ErrorReporter) FormatError(d Diagnostic) string {
	var result strings.Builder

	levelColor := er.getLevelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	// Header: error[E0001]: message
	if d.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Level)), d.Message))
	}

	pos := d.Span.Pos
	lineNumberWidth := er.getLineNumberWidth(pos.Line)
	indent := strings.Repeat(" ", lineNumberWidth)

	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), pos.Filename, pos.Line, pos.Column))
	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	lines := er.sources[pos.Filename]
	if pos.Line > 0 && pos.Line <= len(lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", lineNumberWidth, pos.Line)), dim("│"), lines[pos.Line-1]))
		marker := er.createMarker(pos.Column, er.markerLength(d.Span, lines[pos.Line-1]), d.Level)
		result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker))
	}

	for i, suggestion := range d.Suggestions {
		suggestionColor := color.New(color.FgCyan).SprintFunc()
		if i == 0 {
			result.WriteString(fmt.Sprintf("%s %s %s: %s\n", indent, suggestionColor("help"), suggestionColor("try"), suggestion.Message))
		} else {
			result.WriteString(fmt.Sprintf("%s %s %s\n", indent, suggestionColor("    "), suggestion.Message))
		}
		if suggestion.Replacement != "" {
			result.WriteString(fmt.Sprintf("%s %s %s\n", indent, suggestionColor("│"), suggestionColor(suggestion.Replacement)))
		}
	}

	for _, note := range d.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		np := note.Span.Pos
		result.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), noteColor("note:"), note.Message))
		if np.Line > 0 {
			result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), np.Filename, np.Line, np.Column))
			if noteLines := er.sources[np.Filename]; np.Line <= len(noteLines) {
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					dim(fmt.Sprintf("%*d", lineNumberWidth, np.Line)), dim("│"), noteLines[np.Line-1]))
			}
		}
	}

	if d.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), helpColor("help:"), d.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

// FormatAll formats every diagnostic in position order followed by a summary line
func (er *ErrorReporter) FormatAll(ds Diagnostics) string {
	var out strings.Builder
	for _, d := range ds.Sorted() {
		out.WriteString(er.FormatError(d))
	}
	errs, warns := ds.Count(Error), ds.Count(Warning)
	if errs+warns > 0 {
		out.WriteString(fmt.Sprintf("%d error(s), %d warning(s)\n", errs, warns))
	}
	return out.String()
}

// getLevelColor returns the appropriate color function for an error level
func (er *ErrorReporter) getLevelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// markerLength clips a span to the end of its first line
func (er *ErrorReporter) markerLength(span ast.Span, line string) int {
	length := span.Len()
	if span.EndPos.Line != span.Pos.Line {
		length = len(line) - span.Pos.Column + 1
	}
	return max(1, length)
}

// createMarker creates the underline marker for errors
func (er *ErrorReporter) createMarker(column, length int, level ErrorLevel) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, column-1))
	markerColor := er.getLevelColor(level)
	return spaces + markerColor(strings.Repeat("^", length))
}

// getLineNumberWidth calculates the width needed for line numbers
func (er *ErrorReporter) getLineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3 // minimum width for visual alignment
	}
	return width
}
