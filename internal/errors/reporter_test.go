package errors

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/ast"
)

const source = `contract C {
    uint256 balance;
    function f() public { balace = 1; }
}`

func span(file string, line, col, offset, length int) ast.Span {
	return ast.Span{
		Pos:    ast.Position{Filename: file, Line: line, Column: col, Offset: offset},
		EndPos: ast.Position{Filename: file, Line: line, Column: col + length, Offset: offset + length},
	}
}

func plain(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func TestErrorReporter(t *testing.T) {
	plain(t)
	reporter := NewErrorReporter("test.sol", source)

	d := UndefinedName("balace", span("test.sol", 3, 27, 60, 6), []string{"balance", "f"})
	formatted := reporter.FormatError(d)

	lines := strings.Split(formatted, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "error["+ErrorUndefinedName+"]: 'balace' is not found", lines[0])
	assert.Equal(t, "    --> test.sol:3:27", lines[1])
	assert.Equal(t, "  3 │     function f() public { balace = 1; }", lines[3])
	assert.Equal(t, "    │ "+strings.Repeat(" ", 26)+"^^^^^^", lines[4])
	assert.Contains(t, formatted, "help try: did you mean 'balance'?")
}

func TestReporterRendersNotesFromOtherFiles(t *testing.T) {
	plain(t)
	reporter := NewErrorReporter("a.sol", "uint256 constant X = 1;\n")
	reporter.AddSource("b.sol", "uint256 constant X = 2;\n")

	d := AlreadyDefined("X", span("a.sol", 1, 18, 17, 1), span("b.sol", 1, 18, 17, 1))
	formatted := reporter.FormatError(d)
	assert.Contains(t, formatted, "note: previous definition of 'X'")
	assert.Contains(t, formatted, "--> b.sol:1:18")
	assert.Contains(t, formatted, "uint256 constant X = 2;")
}

func TestMarkerIsClippedToFirstLine(t *testing.T) {
	plain(t)
	reporter := NewErrorReporter("test.sol", "function f() {\n}\n")
	d := NewError(ErrorGenericSemantic, "bad", ast.Span{
		Pos:    ast.Position{Filename: "test.sol", Line: 1, Column: 10, Offset: 9},
		EndPos: ast.Position{Filename: "test.sol", Line: 2, Column: 2, Offset: 16},
	}).Build()
	assert.Contains(t, reporter.FormatError(d), strings.Repeat(" ", 9)+"^^^^^\n")
}

func TestFormatAllOrdersAndSummarizes(t *testing.T) {
	plain(t)
	reporter := NewErrorReporter("test.sol", source)
	ds := Diagnostics{
		UnusedVariable("late", span("test.sol", 3, 5, 40, 4)),
		NewError(ErrorTypeMismatch, "early", span("test.sol", 2, 5, 17, 7)).Build(),
	}
	out := reporter.FormatAll(ds)
	assert.Less(t, strings.Index(out, "early"), strings.Index(out, "late"))
	assert.True(t, strings.HasSuffix(out, "1 error(s), 1 warning(s)\n"))

	assert.Empty(t, reporter.FormatAll(nil))
}

func TestDiagnosticsFilters(t *testing.T) {
	ds := Diagnostics{
		NewError(ErrorParse, "one", span("b.sol", 1, 1, 0, 1)).Build(),
		UnreachableCode(span("a.sol", 2, 1, 10, 1)),
		NewError(ErrorParse, "two", span("a.sol", 1, 1, 0, 1)).Build(),
		NewError(ErrorTypeMismatch, "three", span("a.sol", 1, 1, 0, 1)).Build(),
	}
	assert.True(t, ds.HasErrors())
	assert.False(t, ds.Warnings().HasErrors())
	assert.Equal(t, 3, ds.Count(Error))
	assert.Len(t, ds.Errors(), 3)
	assert.Len(t, ds.WithCode(ErrorParse), 2)

	sorted := ds.Sorted()
	var msgs []string
	for _, d := range sorted {
		msgs = append(msgs, d.Message)
	}
	assert.Equal(t, []string{"two", "three", "unreachable statement", "one"}, msgs,
		"same position keeps emission order")
	assert.Equal(t, "one", ds[0].Message, "Sorted does not modify the receiver")
}

func TestFindSimilarNames(t *testing.T) {
	assert.Equal(t, []string{"balance", "balances"}, FindSimilarNames("balanc", []string{"balances", "balance", "owner", "balance"}))
	assert.Empty(t, FindSimilarNames("x", []string{"y", "xy"}), "short candidates are ignored")
	assert.Empty(t, FindSimilarNames("total", []string{"total"}))
}

func TestDiagnosticError(t *testing.T) {
	d := TypeMismatch("bool", "uint256", span("test.sol", 4, 9, 30, 3))
	assert.Equal(t, "test.sol:4:9: error: expected bool, found uint256", d.Error())
	require.Len(t, d.Suggestions, 1)
}
