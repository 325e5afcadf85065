// Package value implements Buzzy's tagged Scalar/Array/Map value
// model and its string-interpolating Context (spec §3, §4.3).
//
// The three kinds are modeled as a small set of Go interfaces rather
// than one boxed struct, per the variant-vs-interface guidance in
// spec §9: Value is the common base (its Kind tells the three apart)
// and each kind's behavior (Scalar.Get, Array.Count/Get, Map.Get/Add)
// is an ordinary interface, so code outside this package — such as
// env's Env-as-value map — can add its own implementations.
package value

import (
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
)

// Kind identifies which of the three value shapes a Value carries.
type Kind int

const (
	ScalarKind Kind = iota
	ArrayKind
	MapKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case ArrayKind:
		return "array"
	case MapKind:
		return "map"
	default:
		return "unknown"
	}
}

// Context is what a Scalar evaluates against: something that can
// resolve a dotted variable name to a string. An Env satisfies this
// directly, which is how an env "nests" inside another env's
// interpolation (spec §4.3, "Env-as-value"); per the single-context
// design note in spec §9, this is the only context type used anywhere
// in the engine.
type Context interface {
	Get(name string) (string, bool, error)
}

// Value is the base interface implemented by Scalar, Array, and Map.
type Value interface {
	Kind() Kind
	// BasePath is used to resolve relative path values nested under
	// this value (spec §3). It defaults to the empty string, meaning
	// "the current working directory", exactly like the C engine.
	BasePath() string
	SetBasePath(path string)
}

// Scalar is a Value that evaluates to a string, possibly by reading
// other variables through ctx (spec §3).
type Scalar interface {
	Value
	Get(ctx Context) (string, error)
}

// Array is a Value that holds an ordered, indexable list of child
// Values (spec §3).
type Array interface {
	Value
	Count() int
	Get(i int) Value
}

// Map is a Value that holds named child Values (spec §3). Add inserts
// or overwrites a child; overwrite=false preserves any existing entry.
type Map interface {
	Value
	Get(key string) (Value, bool)
	Add(key string, v Value, overwrite bool) error
	Keys() []string
}

// base is embedded by every concrete Value implementation in this
// package to provide the shared BasePath bookkeeping.
type base struct {
	basePath string
}

func (b *base) BasePath() string     { return b.basePath }
func (b *base) SetBasePath(p string) { b.basePath = p }

// GetNested walks successive Map children of v along a dotted path
// ("a.b.c"), per spec §4.3. It fails with BadConfig if an intermediate
// segment exists but isn't a Map.
func GetNested(v Value, path string) (Value, bool, error) {
	cur := v
	for _, seg := range splitDotted(path) {
		m, ok := cur.(Map)
		if !ok {
			return nil, false, errs.New(errs.BadConfig,
				"cannot look up %q: %q is a %s, not a map", path, seg, cur.Kind())
		}
		next, ok := m.Get(seg)
		if !ok {
			return nil, false, nil
		}
		cur = next
	}
	return cur, true, nil
}

// SetNested sets a value at a dotted path, interposing empty maps for
// any missing intermediate segment (spec §4.3).
func SetNested(root Map, path string, v Value, overwrite bool) error {
	segs := splitDotted(path)
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.Get(seg)
		if !ok {
			child := NewMap()
			if err := cur.Add(seg, child, true); err != nil {
				return err
			}
			cur = child
			continue
		}
		childMap, ok := next.(Map)
		if !ok {
			return errs.New(errs.BadConfig,
				"cannot set %q: %q is a %s, not a map", path, seg, next.Kind())
		}
		cur = childMap
	}
	return cur.Add(segs[len(segs)-1], v, overwrite)
}

func splitDotted(path string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}
