// Package env implements Buzzy's layered environment: the lookup
// chain of override/primary/backup/backup-override value sets that
// backs every variable reference in a package's configuration
// (spec §4.3).
package env

import (
	"strconv"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// Env is a layered, mutable variable scope. Zero value is not usable;
// construct with New.
type Env struct {
	basePath        string
	overrides       []value.Map
	primary         []value.Map
	backup          []value.Map
	backupOverrides []value.Map
}

// New constructs an Env rooted at basePath, with the process-wide
// global defaults attached as its last backup set (spec §4.3).
func New(basePath string) *Env {
	e := &Env{basePath: basePath}
	e.backup = append(e.backup, snapshotDefaults())
	return e
}

// BasePath returns the directory relative paths resolve against.
func (e *Env) BasePath() string { return e.basePath }

// SetBasePath changes the env's base path.
func (e *Env) SetBasePath(p string) { e.basePath = p }

// AddOverride adds a highest-priority set, consulted before every
// primary set.
func (e *Env) AddOverride(m value.Map) { e.overrides = append(e.overrides, m) }

// AddPrimary adds a primary set, consulted after overrides and before
// backup sets.
func (e *Env) AddPrimary(m value.Map) { e.primary = append(e.primary, m) }

// AddBackup adds a backup set, consulted after every primary set. The
// global-defaults set added by New always remains last among these.
func (e *Env) AddBackup(m value.Map) {
	if len(e.backup) == 0 {
		e.backup = append(e.backup, m)
		return
	}
	last := e.backup[len(e.backup)-1]
	e.backup[len(e.backup)-1] = m
	e.backup = append(e.backup, last)
}

// AddBackupOverride adds a lowest-priority set, consulted only after
// every override, primary, and backup set has missed.
func (e *Env) AddBackupOverride(m value.Map) {
	e.backupOverrides = append(e.backupOverrides, m)
}

func (e *Env) orderedLayers() []value.Map {
	all := make([]value.Map, 0, len(e.overrides)+len(e.primary)+len(e.backup)+len(e.backupOverrides))
	all = append(all, e.overrides...)
	all = append(all, e.primary...)
	all = append(all, e.backup...)
	all = append(all, e.backupOverrides...)
	return all
}

// GetValue resolves key (a dotted path) against the env's lookup
// order, per spec §4.3, without evaluating a Scalar result. Callers
// that just want the final string should use Get instead.
func (e *Env) GetValue(key string) (value.Value, bool, error) {
	return lookupNested(e.orderedLayers(), splitDotted(key))
}

// Get implements value.Context: it resolves key and, if the result is
// a Scalar, evaluates it with this Env as context (so interpolated
// values can reference other keys in the same env). Looking up a
// Map/Array-kind key is a BadConfig error, since Get only ever returns
// a string.
func (e *Env) Get(key string) (string, bool, error) {
	v, ok, err := e.GetValue(key)
	if err != nil || !ok {
		return "", ok, err
	}
	s, ok := v.(value.Scalar)
	if !ok {
		return "", false, errs.New(errs.BadConfig, "key %q is a %s, not a scalar", key, v.Kind())
	}
	out, err := s.Get(e)
	return out, err == nil, err
}

// Bool is the `bool` typed accessor (spec §4.3): accepts
// {1,true,yes}/{0,false,no} case-insensitively.
func (e *Env) Bool(name string, required bool) (bool, bool, error) {
	s, ok, err := e.stringOrMissing(name, required)
	if err != nil || !ok {
		return false, ok, err
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true, true, nil
	case "0", "false", "no":
		return false, true, nil
	default:
		return false, false, errs.New(errs.BadConfig, "%q is not a valid bool: %q", name, s)
	}
}

// Long is the `long` typed accessor (spec §4.3): digits only, with an
// optional base prefix (0x/0/0b), requiring full-string consumption.
func (e *Env) Long(name string, required bool) (int64, bool, error) {
	s, ok, err := e.stringOrMissing(name, required)
	if err != nil || !ok {
		return 0, ok, err
	}
	if strings.ContainsAny(s, "+-_") {
		return 0, false, errs.New(errs.BadConfig, "%q is not a valid integer: %q", name, s)
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, false, errs.New(errs.BadConfig, "%q is not a valid integer: %q", name, s)
	}
	return n, true, nil
}

// Path is the `path` typed accessor (spec §4.3): resolves a relative
// scalar value against the env's base path; absolute values pass
// through unchanged.
func (e *Env) Path(name string, required bool) (string, bool, error) {
	s, ok, err := e.stringOrMissing(name, required)
	if err != nil || !ok {
		return "", ok, err
	}
	p := value.NewPath(s)
	p.SetBasePath(e.basePath)
	out, err := p.Get(e)
	return out, err == nil, err
}

// String is the `string` typed accessor (spec §4.3).
func (e *Env) String(name string, required bool) (string, bool, error) {
	return e.stringOrMissing(name, required)
}

// Version is the `version` typed accessor (spec §4.3).
func (e *Env) Version(name string, required bool) (version.Version, bool, error) {
	s, ok, err := e.stringOrMissing(name, required)
	if err != nil || !ok {
		return version.Version{}, ok, err
	}
	v, err := version.Parse(s)
	if err != nil {
		return version.Version{}, false, errs.Wrap(err, errs.BadConfig, "%q is not a valid version", name)
	}
	return v, true, nil
}

func (e *Env) stringOrMissing(name string, required bool) (string, bool, error) {
	s, ok, err := e.Get(name)
	if err != nil {
		return "", false, err
	}
	if !ok {
		if required {
			return "", false, errs.New(errs.BadConfig, "missing required variable %q", name)
		}
		return "", false, nil
	}
	return s, true, nil
}

// AsValue exposes this Env as a map-kind Value: reading key delegates
// to e.Get. This is how an env nests itself as the interpolation
// context when it is embedded as a value inside another env
// (spec §4.3 "Env-as-value").
func (e *Env) AsValue() value.Map {
	return envAsValue{e}
}

type envAsValue struct{ env *Env }

func (envAsValue) isValue()             {}
func (envAsValue) Kind() value.Kind     { return value.MapKind }
func (v envAsValue) BasePath() string   { return v.env.basePath }
func (v envAsValue) SetBasePath(string) {}

func (v envAsValue) Get(key string) (value.Value, bool) {
	s, ok, err := v.env.Get(key)
	if err != nil || !ok {
		return nil, false
	}
	return value.NewString(s), true
}

func (v envAsValue) Add(string, value.Value, bool) error {
	return errs.New(errs.SystemError, "cannot add to an env exposed as a value")
}

func (v envAsValue) Keys() []string {
	seen := map[string]bool{}
	var keys []string
	for _, layer := range v.env.orderedLayers() {
		for _, k := range layer.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// lookupNested walks path across layers, merging Map hits across
// layers at every level and erroring if a Map and a non-Map value are
// both present for the same key (spec §4.3 "Union maps").
func lookupNested(layers []value.Map, path []string) (value.Value, bool, error) {
	if len(layers) == 0 || len(path) == 0 {
		return nil, false, nil
	}
	seg := path[0]
	var hits []value.Value
	for _, l := range layers {
		if v, ok := l.Get(seg); ok {
			hits = append(hits, v)
		}
	}
	if len(hits) == 0 {
		return nil, false, nil
	}
	if len(path) == 1 {
		return resolveHits(hits, strings.Join(path, "."))
	}
	var nextLayers []value.Map
	for _, h := range hits {
		m, ok := h.(value.Map)
		if !ok {
			return nil, false, errs.New(errs.BadConfig,
				"cannot look up %q: %q is a %s, not a map", seg, seg, h.Kind())
		}
		nextLayers = append(nextLayers, m)
	}
	return lookupNested(nextLayers, path[1:])
}

func resolveHits(hits []value.Value, key string) (value.Value, bool, error) {
	allMap := true
	anyMap := false
	for _, h := range hits {
		if h.Kind() == value.MapKind {
			anyMap = true
		} else {
			allMap = false
		}
	}
	if anyMap && !allMap {
		return nil, false, errs.New(errs.BadConfig,
			"conflicting map and scalar/array values for key %q", key)
	}
	if allMap {
		if len(hits) == 1 {
			return hits[0], true, nil
		}
		maps := make([]value.Map, len(hits))
		for i, h := range hits {
			maps[i] = h.(value.Map)
		}
		return value.NewUnionMap(maps...), true, nil
	}
	return hits[0], true, nil
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
