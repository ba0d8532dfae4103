package errors

import (
	"fmt"
	"sort"
	"strings"

	"polyc/internal/ast"
)

// Common semantic diagnostic constructors

// UndefinedName creates an error for an unknown identifier with suggestions
func UndefinedName(name string, span ast.Span, candidates []string) Diagnostic {
	builder := NewError(ErrorUndefinedName, fmt.Sprintf("'%s' is not found", name), span)
	similar := FindSimilarNames(name, candidates)
	switch len(similar) {
	case 0:
	case 1:
		builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	default:
		builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similar, "', '")))
	}
	return builder.Build()
}

// AlreadyDefined creates an error for a duplicate declaration
func AlreadyDefined(name string, span, previous ast.Span) Diagnostic {
	return NewError(ErrorDuplicateDeclaration, fmt.Sprintf("already defined '%s'", name), span).
		WithNote(previous, fmt.Sprintf("previous definition of '%s'", name)).
		Build()
}

// TypeMismatch creates an error when an expression has the wrong type
func TypeMismatch(expected, actual string, span ast.Span) Diagnostic {
	builder := NewError(ErrorTypeMismatch, fmt.Sprintf("expected %s, found %s", expected, actual), span)
	if expected == "bool" {
		builder.WithSuggestion("use a comparison operator to produce a bool")
	}
	return builder.Build()
}

// ImplicitConversion creates an error for a rejected implicit conversion
func ImplicitConversion(from, to, reason string, span ast.Span) Diagnostic {
	msg := fmt.Sprintf("implicit conversion from %s to %s not allowed", from, to)
	builder := NewError(ErrorInvalidConversion, msg, span)
	if reason != "" {
		builder.WithHelp(reason)
	}
	return builder.Build()
}

// FieldNotFound creates an error for access to a non-existent struct field
func FieldNotFound(structName, fieldName string, span, decl ast.Span, availableFields []string) Diagnostic {
	builder := NewError(ErrorFieldNotFound, fmt.Sprintf("struct '%s' has no field '%s'", structName, fieldName), span)
	if similar := FindSimilarNames(fieldName, availableFields); len(similar) > 0 {
		builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	}
	return builder.WithNote(decl, fmt.Sprintf("struct '%s' declared here", structName)).Build()
}

// UnknownArgument creates an error for a named argument that the declaration does not have
func UnknownArgument(kind, owner, name string, span, decl ast.Span) Diagnostic {
	return NewError(ErrorFieldNotFound, fmt.Sprintf("%s '%s' has no field '%s'", kind, owner, name), span).
		WithNote(decl, fmt.Sprintf("%s '%s' declared here", kind, owner)).
		Build()
}

// DuplicateArgument creates an error for a named argument given twice
func DuplicateArgument(name string, span, first, decl ast.Span) Diagnostic {
	return NewError(ErrorDuplicateField, fmt.Sprintf("duplicate argument '%s'", name), span).
		WithNote(first, fmt.Sprintf("'%s' first given here", name)).
		WithNote(decl, "declaration here").
		Build()
}

// MissingField creates an error for a required field left out of a named construction
func MissingField(name string, span, decl ast.Span) Diagnostic {
	return NewError(ErrorMissingField, fmt.Sprintf("missing field '%s'", name), span).
		WithNote(decl, "declaration here").
		Build()
}

// InvalidOperation creates an error for operators applied to unsupported types
func InvalidOperation(op, leftType, rightType string, span ast.Span) Diagnostic {
	msg := fmt.Sprintf("operator '%s' cannot be applied to %s and %s", op, leftType, rightType)
	return NewError(ErrorInvalidBinaryOperation, msg, span).Build()
}

// UnusedVariable creates a warning for a variable that is never read
func UnusedVariable(name string, span ast.Span) Diagnostic {
	return NewWarning(WarningUnusedVariable, fmt.Sprintf("local variable '%s' is declared but never used", name), span).
		WithSuggestion("remove the declaration").
		Build()
}

// UnusedParameter creates a warning for a named parameter that is never read
func UnusedParameter(name string, span ast.Span) Diagnostic {
	return NewWarning(WarningUnusedParameter, fmt.Sprintf("function parameter '%s' is never read", name), span).
		WithSuggestion("omit the parameter name").
		Build()
}

// UnreachableCode creates a warning for statements following a terminating statement
func UnreachableCode(span ast.Span) Diagnostic {
	return NewWarning(WarningUnreachableCode, "unreachable statement", span).Build()
}

// FindSimilarNames returns candidates within a small edit distance of target, sorted
func FindSimilarNames(target string, candidates []string) []string {
	var similar []string
	seen := map[string]bool{}
	for _, candidate := range candidates {
		if candidate == target || seen[candidate] {
			continue
		}
		if len(candidate) > 2 && levenshteinDistance(target, candidate) <= 2 {
			similar = append(similar, candidate)
			seen[candidate] = true
		}
	}
	sort.Strings(similar)
	return similar
}

// Simple Levenshtein distance implementation for finding similar names
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
