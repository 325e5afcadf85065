// Package pkgmodel implements the Package type (spec §4.5): the
// latch-guarded build/test/install/uninstall surface shared by every
// package in the system, whether it comes from source (a Builder plus
// a Packager, both constructed lazily from the env) or from a native
// distro PDB (a direct install/uninstall action).
package pkgmodel

import (
	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// Builder is the subset of builder.Orchestrator's surface a Package
// needs. builder.Orchestrator satisfies this structurally.
type Builder interface {
	Build(ctx rt.Context) error
	Test(ctx rt.Context) error
	Stage(ctx rt.Context) error
}

// Packager is the subset of packager.Orchestrator's surface a Package
// needs. packager.Orchestrator satisfies this structurally.
type Packager interface {
	Package(ctx rt.Context) error
	Install(ctx rt.Context) error
	Uninstall(ctx rt.Context) error
}

// BuilderFactory lazily constructs the Builder for a built package,
// given its env (spec §4.5: "constructed lazily from the env on first
// demand").
type BuilderFactory func(ctx rt.Context) (Builder, error)

// PackagerFactory lazily constructs the Packager for a built package.
type PackagerFactory func(ctx rt.Context) (Packager, error)

// Package is a single resolved package: a name, a version, an env, and
// either (a) a Builder+Packager pair for a package built from source,
// or (b) direct install/uninstall actions for a package that is
// already provided by the host (a native PDB package). Every step is
// latched: the first call performs the action, every later call
// returns success immediately (spec §4.5, §8 "Latch idempotence").
type Package struct {
	Name    string
	Version version.Version
	Env     *env.Env

	builderFactory  BuilderFactory
	packagerFactory PackagerFactory
	builder         Builder
	packager        Packager

	installFn   func(ctx rt.Context) error
	uninstallFn func(ctx rt.Context) error

	builtOnce       bool
	testedOnce      bool
	installedOnce   bool
	uninstalledOnce bool
}

// NewBuilt constructs a package built from source: its Builder and
// Packager are constructed on first demand by the given factories.
func NewBuilt(name string, v version.Version, e *env.Env, bf BuilderFactory, pf PackagerFactory) *Package {
	return &Package{Name: name, Version: v, Env: e, builderFactory: bf, packagerFactory: pf}
}

// NewDirect constructs a package with no build step: install/uninstall
// are the given actions directly (used by native PDB adapters, whose
// "build" is simply "the distro already has it").
func NewDirect(name string, v version.Version, e *env.Env, install, uninstall func(ctx rt.Context) error) *Package {
	return &Package{Name: name, Version: v, Env: e, installFn: install, uninstallFn: uninstall}
}

func (p *Package) ensureBuilder(ctx rt.Context) (Builder, error) {
	if p.builder != nil {
		return p.builder, nil
	}
	if p.builderFactory == nil {
		return nil, nil
	}
	b, err := p.builderFactory(ctx)
	if err != nil {
		return nil, err
	}
	p.builder = b
	return b, nil
}

func (p *Package) ensurePackager(ctx rt.Context) (Packager, error) {
	if p.packager != nil {
		return p.packager, nil
	}
	if p.packagerFactory == nil {
		return nil, nil
	}
	pk, err := p.packagerFactory(ctx)
	if err != nil {
		return nil, err
	}
	p.packager = pk
	return pk, nil
}

// context builds the rt.Context for this package's own env; callers
// needing a different OS/logger construct their own rt.Context and
// call through p.Env directly instead of these convenience methods
// when that matters (the orchestration methods below always use the
// package's own env).
func (p *Package) context(os_ rt.Context) rt.Context {
	c := os_
	c.Env = p.Env
	return c
}

// Build runs the build step at most once (spec §4.5 latch). A direct
// (non-built) package has no build step and always succeeds trivially.
func (p *Package) Build(ctx rt.Context) error {
	if p.builtOnce {
		return nil
	}
	p.builtOnce = true
	b, err := p.ensureBuilder(p.context(ctx))
	if err != nil || b == nil {
		return err
	}
	return b.Build(p.context(ctx))
}

// Test runs the test step at most once.
func (p *Package) Test(ctx rt.Context) error {
	if p.testedOnce {
		return nil
	}
	p.testedOnce = true
	b, err := p.ensureBuilder(p.context(ctx))
	if err != nil || b == nil {
		return err
	}
	return b.Test(p.context(ctx))
}

// Install runs the install step at most once. A built package first
// asks its Builder to stage, then its Packager to install (which
// itself calls package internally, per spec §4.5); a direct package
// just invokes its install action.
func (p *Package) Install(ctx rt.Context) error {
	if p.installedOnce {
		return nil
	}
	p.installedOnce = true

	if p.builderFactory != nil && p.packagerFactory != nil {
		b, err := p.ensureBuilder(p.context(ctx))
		if err != nil {
			return err
		}
		if err := b.Stage(p.context(ctx)); err != nil {
			return err
		}
		pk, err := p.ensurePackager(p.context(ctx))
		if err != nil {
			return err
		}
		return pk.Install(p.context(ctx))
	}
	if p.installFn != nil {
		return p.installFn(p.context(ctx))
	}
	return errs.New(errs.BadConfig, "package %q has no install strategy", p.Name)
}

// Uninstall runs the uninstall step at most once.
func (p *Package) Uninstall(ctx rt.Context) error {
	if p.uninstalledOnce {
		return nil
	}
	p.uninstalledOnce = true

	if p.packagerFactory != nil {
		pk, err := p.ensurePackager(p.context(ctx))
		if err != nil {
			return err
		}
		return pk.Uninstall(p.context(ctx))
	}
	if p.uninstallFn != nil {
		return p.uninstallFn(p.context(ctx))
	}
	return errs.New(errs.BadConfig, "package %q has no uninstall strategy", p.Name)
}
