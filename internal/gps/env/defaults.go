package env

import (
	"sort"
	"sync"

	"github.com/dcreager/buzzy-sub000/internal/gps/value"
)

// Description documents a single registered global default, surfaced
// by the `buzzy doc`/`buzzy info` commands (SPEC_FULL.md "supplemented
// features").
type Description struct {
	Name    string
	Default string
	Short   string
	Long    string
}

var (
	defaultsMu   sync.RWMutex
	defaultsMap  = value.NewMap()
	descriptions = map[string]Description{}
)

// RegisterDefault records a process-wide default value for name,
// along with its documentation, per spec §4.3 "Global defaults". Later
// calls for the same name overwrite the earlier registration, the way
// package loading order determines which default wins.
func RegisterDefault(name, defaultValue, shortDesc, longDesc string) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	_ = defaultsMap.Add(name, value.NewString(defaultValue), true)
	descriptions[name] = Description{
		Name: name, Default: defaultValue, Short: shortDesc, Long: longDesc,
	}
}

// ResetDefaults clears every registered global default. Tests use this
// to isolate themselves from defaults registered by other packages'
// init functions.
func ResetDefaults() {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultsMap = value.NewMap()
	descriptions = map[string]Description{}
}

// Describe returns the documentation for every registered default,
// sorted by name, for `buzzy doc`.
func Describe() []Description {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	out := make([]Description, 0, len(descriptions))
	for _, d := range descriptions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// snapshotDefaults returns the current global-defaults map. Envs
// attach this map by reference as their last backup set, so later
// RegisterDefault calls are visible to already-constructed Envs;
// ResetDefaults instead swaps in a fresh map, which only affects Envs
// constructed after the reset.
func snapshotDefaults() value.Map {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultsMap
}
