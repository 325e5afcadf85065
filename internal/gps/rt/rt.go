// Package rt defines the single context type threaded through every
// stage of the engine — Builder, Packager, PDB, Package — per spec §9
// design note (c): "use one context type (an env handle) throughout."
package rt

import (
	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/log"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
)

// Context bundles a package's env with the OS façade and logger used
// to carry out a step. EnsureInstalled is how a Builder (autotools
// needing autoconf/automake) reaches the PDB registry without this
// package importing it directly, which would otherwise cycle back
// through pkgmodel.Package: the caller that owns the registry (the PDB
// package, wired up in cmd/buzzy) supplies the closure at construction
// time. A nil EnsureInstalled is a no-op success, which is adequate
// for tests that never need the dependency actually present.
type Context struct {
	Env             *env.Env
	OS              osfacade.VTable
	Log             *log.Logger
	EnsureInstalled func(dep string) error

	// TranslateDependency maps a Buzzy dependency name to the native
	// package name the host's native PDB adapter would use for it (the
	// same pattern-matching §4.7 uses), so a Packager can render a
	// Depends:/Requires:/depends= line without installing anything. A
	// nil value passes the name through unchanged, which is adequate
	// for tests and for the noop packager.
	TranslateDependency func(name string) (string, error)
}

// Ensure calls ctx.EnsureInstalled if set, otherwise succeeds trivially.
func (c Context) Ensure(dep string) error {
	if c.EnsureInstalled == nil {
		return nil
	}
	return c.EnsureInstalled(dep)
}

// Translate calls ctx.TranslateDependency if set, otherwise returns name
// unchanged.
func (c Context) Translate(name string) (string, error) {
	if c.TranslateDependency == nil {
		return name, nil
	}
	return c.TranslateDependency(name)
}
