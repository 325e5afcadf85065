package value

import (
	"fmt"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	toml "github.com/pelletier/go-toml"
)

// FromTOML converts a parsed *toml.Tree (as produced by reading a
// package.yaml-equivalent .buzzy/*.toml config file) into a Map,
// recursively converting nested tables and arrays. Scalars are
// wrapped with NewInterpolated so "${...}" references in config files
// are honored, matching the original engine's "every string in a
// config file may reference an env variable" behavior (spec §4.3).
func FromTOML(tree *toml.Tree) (Map, error) {
	m := NewMap()
	for _, key := range tree.Keys() {
		v, err := fromTOMLAny(tree.Get(key))
		if err != nil {
			return nil, errs.Wrap(err, errs.BadConfig, "loading key %q", key)
		}
		if err := m.Add(key, v, true); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func fromTOMLAny(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case *toml.Tree:
		return FromTOML(t)
	case []*toml.Tree:
		arr := NewArray().(*arrayValue)
		for _, sub := range t {
			m, err := FromTOML(sub)
			if err != nil {
				return nil, err
			}
			arr.Append(m)
		}
		return arr, nil
	case []interface{}:
		arr := NewArray().(*arrayValue)
		for _, elem := range t {
			v, err := fromTOMLAny(elem)
			if err != nil {
				return nil, err
			}
			arr.Append(v)
		}
		return arr, nil
	case string:
		return NewInterpolated(t)
	case bool:
		return NewString(fmt.Sprintf("%t", t)), nil
	case int64:
		return NewString(fmt.Sprintf("%d", t)), nil
	case float64:
		return NewString(fmt.Sprintf("%g", t)), nil
	default:
		return NewString(fmt.Sprintf("%v", t)), nil
	}
}
