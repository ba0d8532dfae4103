package target

import (
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml"
	pkgerrors "github.com/pkg/errors"

	"polyc/internal/builtins"
)

// Registry is a set of targets by name
type Registry struct {
	targets map[string]*Target
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Builtin returns the registry of the embedded profiles. The result is shared
// and must not be extended; use NewRegistry for a private copy.
func Builtin() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = NewRegistry()
	})
	return defaultRegistry, defaultErr
}

// NewRegistry parses the embedded profiles into a fresh registry
func NewRegistry() (*Registry, error) {
	reg := &Registry{targets: make(map[string]*Target)}
	if err := reg.load(builtinProfiles, "embedded profiles"); err != nil {
		return nil, err
	}
	return reg, nil
}

// Lookup finds a target of the embedded registry
func Lookup(name string) (*Target, error) {
	reg, err := Builtin()
	if err != nil {
		return nil, err
	}
	return reg.Get(name)
}

// Get returns the named target
func (reg *Registry) Get(name string) (*Target, error) {
	if t, ok := reg.targets[name]; ok {
		return t, nil
	}
	return nil, pkgerrors.Errorf("unknown target '%s', available targets: %s", name, strings.Join(reg.Names(), ", "))
}

// Names lists the registered targets, sorted
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.targets))
	for name := range reg.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile merges the profiles of a user TOML file. A profile naming an
// existing target overrides the fields it sets and adds its builtins.
func (reg *Registry) LoadFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "reading target file %s", path)
	}
	return reg.load(data, path)
}

// LoadBytes merges profiles from an in-memory TOML document
func (reg *Registry) LoadBytes(data []byte, origin string) error {
	return reg.load(data, origin)
}

func (reg *Registry) load(data []byte, origin string) error {
	var file tomlFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return pkgerrors.Wrapf(err, "decoding %s", origin)
	}
	for _, tt := range file.Targets {
		t, err := reg.merge(tt)
		if err != nil {
			return pkgerrors.Wrapf(err, "%s", origin)
		}
		if err := t.validate(); err != nil {
			return pkgerrors.Wrapf(err, "%s", origin)
		}
		reg.targets[t.name] = t
		if !t.SelectorDocumented {
			log.Warningf("target %s: selector width of %d bytes is not documented by the target ABI", t.name, t.sel)
		}
		log.Debugf("loaded target %s from %s", t, origin)
	}
	return nil
}

// merge builds the target described by tt on top of the existing target of
// the same name or the target it inherits from
func (reg *Registry) merge(tt *tomlTarget) (*Target, error) {
	if tt.Name == "" {
		return nil, pkgerrors.New("target without a name")
	}
	var base *Target
	switch {
	case tt.Inherit != "":
		b, ok := reg.targets[tt.Inherit]
		if !ok {
			return nil, pkgerrors.Errorf("target '%s' inherits unknown target '%s'", tt.Name, tt.Inherit)
		}
		base = b
	default:
		base = reg.targets[tt.Name]
	}

	t := &Target{name: tt.Name, SelectorDocumented: true, ops: make(map[string]string)}
	if base != nil {
		t.word, t.address, t.value, t.sel = base.word, base.address, base.value, base.sel
		t.SelectorDocumented = base.SelectorDocumented
		for k, v := range base.ops {
			t.ops[k] = v
		}
	}
	if tt.WordBits != 0 {
		t.word = tt.WordBits
	}
	if tt.AddressBits != 0 {
		t.address = tt.AddressBits
	}
	if tt.ValueBits != 0 {
		t.value = tt.ValueBits
	}
	if tt.SelectorBytes != 0 {
		t.sel = tt.SelectorBytes
	}
	if tt.SelectorDocumented != nil {
		t.SelectorDocumented = *tt.SelectorDocumented
	}
	if err := flatten(tt.Builtins, "", t.ops); err != nil {
		return nil, pkgerrors.Wrapf(err, "target '%s'", tt.Name)
	}
	for _, k := range tt.Remove {
		delete(t.ops, k)
	}
	return t, nil
}

func (t *Target) validate() error {
	for _, w := range []struct {
		what string
		bits int
	}{
		{"word_bits", t.word},
		{"address_bits", t.address},
		{"value_bits", t.value},
	} {
		if w.bits < 8 || w.bits > 256 || w.bits%8 != 0 {
			return pkgerrors.Errorf("target '%s': %s must be a multiple of 8 between 8 and 256, got %d", t.name, w.what, w.bits)
		}
	}
	if t.sel < 1 || t.sel > 32 {
		return pkgerrors.Errorf("target '%s': selector_bytes must be between 1 and 32, got %d", t.name, t.sel)
	}
	for _, name := range t.Builtins() {
		if !builtins.IsHook(name) {
			return pkgerrors.Errorf("target '%s': unknown builtin '%s'", t.name, name)
		}
		if t.ops[name] == "" {
			return pkgerrors.Errorf("target '%s': builtin '%s' has no host operation", t.name, name)
		}
	}
	return nil
}

// flatten copies a builtin table into ops. Dotted names may arrive as
// nested tables, which are joined back with dots.
func flatten(table map[string]interface{}, prefix string, ops map[string]string) error {
	for k, v := range table {
		name := prefix + k
		switch x := v.(type) {
		case string:
			ops[name] = x
		case map[string]interface{}:
			if err := flatten(x, name+".", ops); err != nil {
				return err
			}
		case *toml.Tree:
			if err := flatten(x.ToMap(), name+".", ops); err != nil {
				return err
			}
		default:
			return pkgerrors.Errorf("builtin '%s' must map to a host operation name", name)
		}
	}
	return nil
}
