package compiler

import (
	"encoding/hex"
	"io"

	lru "github.com/hashicorp/golang-lru"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"polyc/internal/cfg"
	"polyc/internal/ns"
	"polyc/internal/target"
)

// Cache keeps resolved units between compilations. A unit is keyed by the
// hash of its target, path and text and the keys of the units it imports,
// so editing a file invalidates every unit that depends on it. Cached
// namespaces are shared and must be treated as read-only.
type Cache struct {
	units *lru.ARCCache
}

type entry struct {
	ns        *ns.Namespace
	functions []*cfg.Function
	lowered   bool
}

// NewCache creates a cache holding up to size units
func NewCache(size int) (*Cache, error) {
	units, err := lru.NewARC(size)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating unit cache")
	}
	return &Cache{units: units}, nil
}

// Len returns the number of cached units
func (c *Cache) Len() int { return c.units.Len() }

// Purge drops every cached unit
func (c *Cache) Purge() { c.units.Purge() }

func (c *Cache) get(key string) (*entry, bool) {
	v, ok := c.units.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (c *Cache) add(key string, e *entry) {
	c.units.Add(key, e)
}

func cacheKey(u *Unit, t *target.Target) string {
	h := sha3.New256()
	field := func(s string) {
		io.WriteString(h, s)
		h.Write([]byte{0})
	}
	field(t.String())
	for _, name := range t.Builtins() {
		op, _ := t.BuiltinOp(name)
		field(name + "=" + op)
	}
	field(u.Path)
	field(u.Source)
	for _, imp := range u.imports() {
		field(imp.Path + "=" + u.targets[imp].key)
	}
	return hex.EncodeToString(h.Sum(nil))
}
