package value

import (
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
)

// mapValue is a plain, mutable, insertion-ordered map of child Values.
type mapValue struct {
	base
	keys     []string
	children map[string]Value
}

// NewMap returns an empty, mutable Map.
func NewMap() Map {
	return &mapValue{children: make(map[string]Value)}
}

func (*mapValue) isValue()   {}
func (*mapValue) Kind() Kind { return MapKind }

func (v *mapValue) Get(key string) (Value, bool) {
	c, ok := v.children[key]
	return c, ok
}

func (v *mapValue) Keys() []string {
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Add inserts child under key. If overwrite is false and key is
// already present, the existing child is left untouched (spec §4.3's
// "don't overwrite a more specific set's existing value").
func (v *mapValue) Add(key string, child Value, overwrite bool) error {
	if _, exists := v.children[key]; exists {
		if !overwrite {
			return nil
		}
	} else {
		v.keys = append(v.keys, key)
	}
	v.children[key] = child
	return nil
}

// unionMap presents several Maps as one, read-only, read-through
// layered map: Get consults its children in order and returns the
// first hit; Get of a MapKind hit is itself wrapped in a union of
// every layer's value at that key, so nested lookups continue to
// merge across layers instead of picking only the first layer's
// sub-map wholesale (spec §4.3, "union maps nest").
//
// env.go uses it to merge the Map-kind hits that several of its
// layered sets (overrides, primary, backup, backup overrides) hold
// under the same key into a single Map without copying.
type unionMap struct {
	base
	layers []Map
}

// NewUnionMap returns a Map that reads through layers in order,
// earlier layers taking priority. Add is rejected: a union map is a
// read-only view over its layers.
func NewUnionMap(layers ...Map) Map {
	return &unionMap{layers: layers}
}

func (*unionMap) isValue()   {}
func (*unionMap) Kind() Kind { return MapKind }

func (v *unionMap) Get(key string) (Value, bool) {
	var nested []Map
	var hit Value
	found := false
	for _, layer := range v.layers {
		child, ok := layer.Get(key)
		if !ok {
			continue
		}
		if !found {
			hit = child
			found = true
		}
		if m, ok := child.(Map); ok {
			nested = append(nested, m)
		}
	}
	if !found {
		return nil, false
	}
	if len(nested) > 1 {
		return NewUnionMap(nested...), true
	}
	return hit, true
}

func (v *unionMap) Add(string, Value, bool) error {
	return errs.New(errs.SystemError, "cannot add to a read-only union map")
}

func (v *unionMap) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, layer := range v.layers {
		for _, k := range layer.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
