package compiler

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/cfg"
	"polyc/internal/errors"
	"polyc/internal/target"
)

const libSource = `
uint256 constant LIMIT = 10;
struct Pair { uint256 a; uint256 b; }
function clamp(uint256 v) pure returns (uint256) { return v > LIMIT ? LIMIT : v; }
`

const mainSource = `
import "lib.sol";
contract C {
    function f(uint256 x) public pure returns (uint256) {
        Pair memory p = Pair(x, LIMIT);
        return clamp(p.a + p.b);
    }
}
`

const brokenSource = `
contract C {
    function f() public pure returns (uint256) { return missing; }
    function g() public pure returns (uint256) { return absent; }
}
`

func evm(t *testing.T) Options {
	t.Helper()
	tg, err := target.Lookup("evm")
	require.NoError(t, err)
	return Options{Target: tg}
}

func compile(t *testing.T, opts Options, files ...Source) *Result {
	t.Helper()
	res, err := Compile(context.Background(), files, opts)
	require.NoError(t, err)
	return res
}

func files(d errors.Diagnostics) []string {
	out := make([]string, len(d))
	for i, x := range d {
		out[i] = x.Span.Pos.Filename
	}
	return out
}

func TestCompileInImportOrder(t *testing.T) {
	res := compile(t, evm(t),
		Source{Path: "main.sol", Text: mainSource},
		Source{Path: "lib.sol", Text: libSource})
	require.False(t, res.HasErrors(), "%v", res.Diagnostics)

	require.Len(t, res.Units, 2)
	assert.Equal(t, "main.sol", res.Units[0].Path, "units keep input order")
	main, lib := res.Unit("main.sol"), res.Unit("lib.sol")
	assert.Equal(t, 0, lib.level)
	assert.Equal(t, 1, main.level)
	require.Len(t, main.Namespace.Imports, 1)
	assert.Same(t, lib.Namespace, main.Namespace.Imports[0])

	require.NotNil(t, lib.Function("clamp"))
	f := main.Function("C.f")
	require.NotNil(t, f)
	assert.Contains(t, cfg.Print(f), "call clamp(")
}

func TestImportsResolveRelativeToImporter(t *testing.T) {
	res := compile(t, evm(t),
		Source{Path: "contracts/main.sol", Text: mainSource},
		Source{Path: "contracts/lib.sol", Text: libSource})
	assert.Empty(t, res.Diagnostics.Errors())
	assert.Equal(t, 1, res.Unit("contracts/main.sol").level)
}

func TestMissingImportIsReported(t *testing.T) {
	res := compile(t, evm(t), Source{Path: "main.sol", Text: mainSource})
	errs := res.Diagnostics.WithCode(errors.ErrorUnresolvedImport)
	require.Len(t, errs, 1)
	assert.Equal(t, "import 'lib.sol' not found", errs[0].Message)
}

func TestImportCycle(t *testing.T) {
	res := compile(t, evm(t),
		Source{Path: "a.sol", Text: "import \"b.sol\";\nuint256 constant A = 1;\n"},
		Source{Path: "b.sol", Text: "import \"a.sol\";\nuint256 constant B = 2;\n"})

	errs := res.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", errs)
	assert.Equal(t, errors.ErrorImportCycle, errs[0].Code)
	assert.Equal(t, "import cycle: a.sol -> b.sol -> a.sol", errs[0].Message)
	assert.Equal(t, "b.sol", errs[0].Span.Pos.Filename)

	assert.Equal(t, 1, res.Unit("a.sol").level)
	assert.Equal(t, 0, res.Unit("b.sol").level)
}

func TestParseErrorsBecomeDiagnostics(t *testing.T) {
	res := compile(t, evm(t), Source{Path: "bad.sol", Text: "contract C {\n    function f( public { }\n}\n"})
	parse := res.Diagnostics.WithCode(errors.ErrorParse)
	require.NotEmpty(t, parse)
	for _, d := range parse {
		assert.Equal(t, errors.Error, d.Level)
		assert.Equal(t, "bad.sol", d.Span.Pos.Filename)
	}
}

func TestDiagnosticsSortedByFileThenPosition(t *testing.T) {
	res := compile(t, evm(t),
		Source{Path: "b.sol", Text: brokenSource},
		Source{Path: "a.sol", Text: brokenSource})

	errs := res.Diagnostics.Errors()
	assert.Empty(t, cmp.Diff([]string{"a.sol", "a.sol", "b.sol", "b.sol"}, files(errs)))
	for i := 1; i < len(errs); i++ {
		if errs[i].Span.Pos.Filename == errs[i-1].Span.Pos.Filename {
			assert.Less(t, errs[i-1].Span.Pos.Offset, errs[i].Span.Pos.Offset)
		}
	}
}

func TestBrokenUnitsStillLower(t *testing.T) {
	res := compile(t, evm(t), Source{Path: "broken.sol", Text: brokenSource})
	u := res.Unit("broken.sol")
	require.NotNil(t, u.Function("C.f"))
	_, ok := u.Function("C.f").Entry().Term.(*cfg.Unreachable)
	assert.True(t, ok)
}

func TestSkipLowering(t *testing.T) {
	opts := evm(t)
	opts.SkipLowering = true
	res := compile(t, opts, Source{Path: "lib.sol", Text: libSource})
	u := res.Unit("lib.sol")
	assert.NotNil(t, u.Namespace)
	assert.Empty(t, u.Functions)
}

func TestCacheReusesUnchangedUnits(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	opts := evm(t)
	opts.Cache = cache

	lib := Source{Path: "lib.sol", Text: libSource}
	main := Source{Path: "main.sol", Text: mainSource}

	first := compile(t, opts, main, lib)
	assert.False(t, first.Unit("main.sol").Cached)
	assert.Equal(t, 2, cache.Len())

	second := compile(t, opts, main, lib)
	assert.True(t, second.Unit("main.sol").Cached)
	assert.True(t, second.Unit("lib.sol").Cached)
	assert.Same(t, first.Unit("lib.sol").Namespace, second.Unit("lib.sol").Namespace)
	assert.Empty(t, cmp.Diff(files(first.Diagnostics), files(second.Diagnostics)))

	lib.Text += "\nuint256 constant EXTRA = 1;\n"
	third := compile(t, opts, main, lib)
	assert.False(t, third.Unit("lib.sol").Cached)
	assert.False(t, third.Unit("main.sol").Cached, "an edited import invalidates its importers")

	solana, err := target.Lookup("solana")
	require.NoError(t, err)
	opts.Target = solana
	other := compile(t, opts, main, lib)
	assert.False(t, other.Unit("lib.sol").Cached, "keys include the target")
}

func TestCacheEntriesWithoutCFGsAreRelowered(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	opts := evm(t)
	opts.Cache = cache
	opts.SkipLowering = true
	src := Source{Path: "lib.sol", Text: libSource}
	compile(t, opts, src)

	opts.SkipLowering = false
	res := compile(t, opts, src)
	u := res.Unit("lib.sol")
	assert.False(t, u.Cached)
	assert.NotNil(t, u.Function("clamp"))
}

func TestIndependentUnitsResolveConcurrently(t *testing.T) {
	var srcs []Source
	for i := 0; i < 16; i++ {
		srcs = append(srcs, Source{
			Path: fmt.Sprintf("unit%02d.sol", i),
			Text: fmt.Sprintf(`
contract C%d {
    uint256 total;
    function add(uint256 v) public returns (uint256) {
        for (uint256 i = 0; i < v; i++) { total += i / (v - i); }
        return total;
    }
}
`, i),
		})
	}
	opts := evm(t)
	opts.Jobs = 4

	render := func() []string {
		res := compile(t, opts, srcs...)
		require.False(t, res.HasErrors(), "%v", res.Diagnostics)
		var out []string
		for _, u := range res.Units {
			assert.Equal(t, 0, u.level)
			out = append(out, cfg.PrintAll(u.Functions))
		}
		return out
	}
	assert.Empty(t, cmp.Diff(render(), render()))
}

func TestCompileRejectsBadOptions(t *testing.T) {
	_, err := Compile(context.Background(), nil, Options{})
	assert.Error(t, err)

	src := Source{Path: "a.sol", Text: libSource}
	_, err = Compile(context.Background(), []Source{src, {Path: "./a.sol", Text: libSource}}, evm(t))
	assert.EqualError(t, err, "file a.sol given twice")
}

func TestCompileStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, []Source{{Path: "lib.sol", Text: libSource}}, evm(t))
	require.Error(t, err)
	assert.Equal(t, context.Canceled, pkgerrors.Cause(err))
}
