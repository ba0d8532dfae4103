package target

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/builtins"
)

func TestEmbeddedProfiles(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"evm", "polkadot", "solana"}, reg.Names())

	tests := []struct {
		name       string
		word       int
		address    int
		value      int
		selector   int
		documented bool
	}{
		{"evm", 256, 160, 256, 4, true},
		{"polkadot", 256, 256, 128, 4, true},
		{"solana", 64, 256, 64, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg, err := reg.Get(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, tg.Name())
			assert.Equal(t, tt.word, tg.WordBits())
			assert.Equal(t, tt.address, tg.AddressBits())
			assert.Equal(t, tt.value, tg.ValueBits())
			assert.Equal(t, tt.selector, tg.SelectorBytes())
			assert.Equal(t, tt.documented, tg.SelectorDocumented)
		})
	}
}

func TestBuiltinTables(t *testing.T) {
	evm, err := Lookup("evm")
	require.NoError(t, err)
	assert.ElementsMatch(t, builtins.HookNames(), evm.Builtins(), "evm lowers every target builtin")

	op, ok := evm.BuiltinOp("msg.sender")
	assert.True(t, ok)
	assert.Equal(t, "caller", op)
	assert.True(t, evm.HasBuiltin("asm.chainid"))

	solana, err := Lookup("solana")
	require.NoError(t, err)
	assert.False(t, solana.HasBuiltin("tx.origin"))
	assert.False(t, solana.HasBuiltin("gasleft"))
	assert.True(t, solana.HasBuiltin("msg.sender"))

	polkadot, err := Lookup("polkadot")
	require.NoError(t, err)
	assert.False(t, polkadot.HasBuiltin("asm.origin"))
}

func TestUnknownTarget(t *testing.T) {
	_, err := Lookup("wasm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target 'wasm'")
	assert.Contains(t, err.Error(), "evm, polkadot, solana")
}

func TestLoadOverrides(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	err = reg.LoadBytes([]byte(`
[[target]]
name = "evm"
selector_bytes = 8

[[target]]
name = "fluent"
inherit = "polkadot"
value_bits = 256
remove = ["gasleft"]

  [target.builtins]
  "tx.origin" = "fluent_origin"
`), "override.toml")
	require.NoError(t, err)

	evm, err := reg.Get("evm")
	require.NoError(t, err)
	assert.Equal(t, 8, evm.SelectorBytes())
	assert.Equal(t, 160, evm.AddressBits(), "unset fields keep their value")

	fluent, err := reg.Get("fluent")
	require.NoError(t, err)
	assert.Equal(t, 256, fluent.AddressBits())
	assert.Equal(t, 256, fluent.ValueBits())
	assert.False(t, fluent.HasBuiltin("gasleft"))
	op, ok := fluent.BuiltinOp("tx.origin")
	assert.True(t, ok)
	assert.Equal(t, "fluent_origin", op)

	shared, err := Lookup("evm")
	require.NoError(t, err)
	assert.Equal(t, 4, shared.SelectorBytes(), "the shared registry is not modified")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "bad toml",
			doc:  "[[target]\nname = ",
			want: "decoding bad.toml",
		},
		{
			name: "unknown builtin",
			doc:  "[[target]]\nname = \"evm\"\n[target.builtins]\n\"msg.gas\" = \"gas\"\n",
			want: "unknown builtin 'msg.gas'",
		},
		{
			name: "missing widths",
			doc:  "[[target]]\nname = \"bare\"\n",
			want: "word_bits must be a multiple of 8",
		},
		{
			name: "unknown parent",
			doc:  "[[target]]\nname = \"x\"\ninherit = \"y\"\n",
			want: "inherits unknown target 'y'",
		},
		{
			name: "selector width",
			doc:  "[[target]]\nname = \"evm\"\nselector_bytes = 33\n",
			want: "selector_bytes must be between 1 and 32",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry()
			require.NoError(t, err)
			err = reg.LoadBytes([]byte(tt.doc), "bad.toml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	err = reg.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading target file")

	path := filepath.Join(t.TempDir(), "targets.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[target]]\nname = \"solana\"\nselector_documented = true\n"), 0o644))
	require.NoError(t, reg.LoadFile(path))
	solana, err := reg.Get("solana")
	require.NoError(t, err)
	assert.True(t, solana.SelectorDocumented)
}
