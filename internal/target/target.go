// Package target holds the per-target profiles consulted by the resolver and
// the CFG builder: word, address and selector widths, and the table mapping
// target-lowered builtins to host operations.
package target

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("polyc.target")

//go:embed profiles.toml
var builtinProfiles []byte

// DefaultName is the target used when none is selected
const DefaultName = "evm"

// Target is one execution environment
type Target struct {
	name    string
	word    int
	address int
	value   int
	sel     int

	// SelectorDocumented is false when the selector width of the target is
	// not fixed by a published ABI
	SelectorDocumented bool

	ops map[string]string
}

func (t *Target) Name() string       { return t.name }
func (t *Target) WordBits() int      { return t.word }
func (t *Target) AddressBits() int   { return t.address }
func (t *Target) ValueBits() int     { return t.value }
func (t *Target) SelectorBytes() int { return t.sel }

// HasBuiltin reports whether the target lowers the named builtin
func (t *Target) HasBuiltin(name string) bool {
	_, ok := t.ops[name]
	return ok
}

// BuiltinOp returns the host operation a builtin lowers to
func (t *Target) BuiltinOp(name string) (string, bool) {
	op, ok := t.ops[name]
	return op, ok
}

// Builtins lists the builtins the target lowers, sorted
func (t *Target) Builtins() []string {
	names := make([]string, 0, len(t.ops))
	for name := range t.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Target) String() string {
	return fmt.Sprintf("%s (word %d, address %d, selector %d bytes)", t.name, t.word, t.address, t.sel)
}

// tomlFile is a profile document as encoded in TOML
type tomlFile struct {
	Targets []*tomlTarget `toml:"target"`
}

type tomlTarget struct {
	Name               string                 `toml:"name"`
	WordBits           int                    `toml:"word_bits"`
	AddressBits        int                    `toml:"address_bits"`
	ValueBits          int                    `toml:"value_bits"`
	SelectorBytes      int                    `toml:"selector_bytes"`
	SelectorDocumented *bool                  `toml:"selector_documented"`
	Builtins           map[string]interface{} `toml:"builtins"`
	// Inherit copies the fields and builtins of another target first
	Inherit string `toml:"inherit,omitempty"`
	// Remove drops inherited builtins
	Remove []string `toml:"remove,omitempty"`
}
