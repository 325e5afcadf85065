// Package pdb implements Buzzy's PDB stack (spec §4.6): the
// single-package and cached PDB wrappers, plus the process-wide
// registry that ties a Dependency to a concrete pkgmodel.Package.
package pdb

import (
	"github.com/dcreager/buzzy-sub000/internal/gps/dependency"
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/pkgmodel"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
)

// PDB resolves a dependency to a package, or reports not-found. It
// returns (nil, false, nil) when the dependency isn't satisfied by
// this PDB, matching native.Adapter's Satisfy method, which already
// has this exact shape and so satisfies PDB structurally.
type PDB interface {
	Satisfy(ctx rt.Context, dep dependency.Dependency) (*pkgmodel.Package, bool, error)
}

// Single is the single-package PDB of spec §4.6: it holds exactly one
// package and answers Satisfy iff the dependency's name matches and
// (when present) its version floor is met.
type Single struct {
	pkg *pkgmodel.Package
}

// NewSingle wraps pkg as a single-package PDB.
func NewSingle(pkg *pkgmodel.Package) *Single {
	return &Single{pkg: pkg}
}

func (s *Single) Satisfy(ctx rt.Context, dep dependency.Dependency) (*pkgmodel.Package, bool, error) {
	if dep.Name() != s.pkg.Name {
		return nil, false, nil
	}
	ok, err := dep.Satisfies(s.pkg.Version)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return s.pkg, true, nil
}

// Cached wraps an inner PDB, memoizing both hits and misses by
// dep.String() (spec §4.6: "caches both hits and misses"). A second
// Satisfy for an equal dependency string returns the very same Package
// instance without consulting the inner PDB again — the "cache
// identity" property spec §8 calls out.
type Cached struct {
	inner PDB
	cache map[string]cacheEntry
}

type cacheEntry struct {
	pkg   *pkgmodel.Package
	found bool
}

// NewCached wraps inner in a memoizing cache.
func NewCached(inner PDB) *Cached {
	return &Cached{inner: inner, cache: map[string]cacheEntry{}}
}

func (c *Cached) Satisfy(ctx rt.Context, dep dependency.Dependency) (*pkgmodel.Package, bool, error) {
	key := dep.String()
	if e, ok := c.cache[key]; ok {
		return e.pkg, e.found, nil
	}
	pkg, found, err := c.inner.Satisfy(ctx, dep)
	if err != nil {
		// Errors are not cached: a transient failure (a subprocess
		// error probing a distro tool) shouldn't permanently poison
		// the cache for a dependency that might resolve later.
		return nil, false, err
	}
	c.cache[key] = cacheEntry{pkg: pkg, found: found}
	return pkg, found, nil
}

// Registry is the process-wide ordered list of registered PDBs (spec
// §4.6 "Registry"). The zero value is ready to use; the package-level
// Register/Reset/SatisfyDependency functions operate on a single
// global instance, matching the "process-wide, explicitly reset by
// tests" shared-state model of spec §5.
type Registry struct {
	pdbs []PDB
}

var global = &Registry{}

// Register appends p to the global registry. Later registrations are
// checked later, so earlier-registered PDBs win ties.
func Register(p PDB) {
	global.Register(p)
}

// Reset clears the global registry. Tests call this to isolate PDB
// state between cases.
func Reset() {
	global.Reset()
}

// SatisfyDependency iterates the global registry in registration
// order, returning the first package any PDB resolves dep to. An error
// from any PDB aborts immediately; if none match, it fails with
// CannotSatisfy.
func SatisfyDependency(ctx rt.Context, dep dependency.Dependency) (*pkgmodel.Package, error) {
	return global.SatisfyDependency(ctx, dep)
}

// InstallDependency resolves dep and installs the resulting package.
func InstallDependency(ctx rt.Context, dep dependency.Dependency) error {
	return global.InstallDependency(ctx, dep)
}

// InstallDependencyString parses s as a dependency before installing
// it, per spec §4.6's "string form parses the dep first".
func InstallDependencyString(ctx rt.Context, s string) error {
	return global.InstallDependencyString(ctx, s)
}

// Register appends p to r.
func (r *Registry) Register(p PDB) {
	r.pdbs = append(r.pdbs, p)
}

// Reset clears r's registered PDBs.
func (r *Registry) Reset() {
	r.pdbs = nil
}

// SatisfyDependency is the instance-method form of the package-level
// function of the same name, usable by callers (tests, a future
// non-global wiring) that want their own registry rather than the
// process-wide one.
func (r *Registry) SatisfyDependency(ctx rt.Context, dep dependency.Dependency) (*pkgmodel.Package, error) {
	for _, p := range r.pdbs {
		pkg, ok, err := p.Satisfy(ctx, dep)
		if err != nil {
			return nil, err
		}
		if ok {
			return pkg, nil
		}
	}
	return nil, errs.New(errs.CannotSatisfy, "cannot satisfy dependency %q", dep.String())
}

// InstallDependency is the instance-method form of the package-level
// function of the same name.
func (r *Registry) InstallDependency(ctx rt.Context, dep dependency.Dependency) error {
	pkg, err := r.SatisfyDependency(ctx, dep)
	if err != nil {
		return err
	}
	return pkg.Install(ctx)
}

// InstallDependencyString is the instance-method form of the
// package-level function of the same name.
func (r *Registry) InstallDependencyString(ctx rt.Context, s string) error {
	dep, err := dependency.Parse(s)
	if err != nil {
		return err
	}
	return r.InstallDependency(ctx, dep)
}

// EnsureInstalled builds the `rt.Context.EnsureInstalled` closure a
// Builder uses to reach this registry (spec §9 design note (c)) without
// this package's callers needing to import both pdb and rt at every
// call site. cmd/buzzy wires this into the rt.Context it constructs for
// top-level requests.
func (r *Registry) EnsureInstalled(ctx rt.Context) func(name string) error {
	return func(name string) error {
		return r.InstallDependencyString(ctx, name)
	}
}

// TranslateDependency builds the `rt.Context.TranslateDependency`
// closure a Packager uses to render a dependency's native package name
// (spec §4.9's "translated dependencies") by resolving it against this
// registry: a dependency satisfied through a native.Adapter-backed PDB
// already carries the distro's own package name as pkg.Name.
func (r *Registry) TranslateDependency(ctx rt.Context) func(name string) (string, error) {
	return func(name string) (string, error) {
		pkg, err := r.SatisfyDependency(ctx, dependency.New(name, nil))
		if err != nil {
			return "", err
		}
		return pkg.Name, nil
	}
}

// Global returns the process-wide registry, for callers (cmd/buzzy)
// that need to wire EnsureInstalled or TranslateDependency closures
// against it directly.
func Global() *Registry {
	return global
}
