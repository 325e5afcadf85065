// Package native implements Buzzy's native PDB adapters (spec §4.7):
// package databases backed by the host distro's package manager
// (pacman, apt+dpkg, yum+rpm, Homebrew).
package native

import (
	"fmt"

	"github.com/dcreager/buzzy-sub000/internal/gps/dependency"
	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/pkgmodel"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// Adapter is a native PDB parameterized the way spec §4.7 describes:
// a distro name, version probes, install/uninstall actions, and an
// ordered list of printf-style name patterns (each with exactly one
// "%s") used to translate a dependency name into the distro's own
// package name.
type Adapter struct {
	ShortDistroName string
	NamePatterns    []string

	VersionAvailable func(ctx rt.Context, nativeName string) (*version.Version, error)
	VersionInstalled func(ctx rt.Context, nativeName string) (*version.Version, error)
	InstallFn        func(ctx rt.Context, nativeName string, v version.Version) error
	UninstallFn      func(ctx rt.Context, nativeName string) error
}

// Satisfy resolves dep against this adapter (spec §4.7): env overrides
// `native.<pkg>`/`native.<distro>.<pkg>` take precedence over pattern
// matching, and `preinstalled.<distro>.<pkg>` short-circuits to a
// no-op install. Otherwise, each name pattern is tried in order; the
// first that yields an available version produces a synthesized
// package. Returns (nil, false, nil) if nothing satisfies dep.
func (a *Adapter) Satisfy(ctx rt.Context, dep dependency.Dependency) (*pkgmodel.Package, bool, error) {
	if nativeName, ok, err := a.override(ctx, dep.Name()); err != nil {
		return nil, false, err
	} else if ok {
		return a.resolve(ctx, dep, nativeName)
	}

	if preinstalled, ok, err := a.preinstalled(ctx, dep.Name()); err != nil {
		return nil, false, err
	} else if ok {
		return a.noopPackage(dep, preinstalled), true, nil
	}

	for _, pattern := range a.NamePatterns {
		nativeName := fmt.Sprintf(pattern, dep.Name())
		pkg, ok, err := a.resolve(ctx, dep, nativeName)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return pkg, true, nil
		}
	}
	return nil, false, nil
}

func (a *Adapter) override(ctx rt.Context, name string) (string, bool, error) {
	if v, ok, err := ctx.Env.String("native."+a.ShortDistroName+"."+name, false); err != nil {
		return "", false, err
	} else if ok {
		return v, true, nil
	}
	if v, ok, err := ctx.Env.String("native."+name, false); err != nil {
		return "", false, err
	} else if ok {
		return v, true, nil
	}
	return "", false, nil
}

func (a *Adapter) preinstalled(ctx rt.Context, name string) (string, bool, error) {
	return ctx.Env.String("preinstalled."+a.ShortDistroName+"."+name, false)
}

func (a *Adapter) noopPackage(dep dependency.Dependency, nativeName string) *pkgmodel.Package {
	v := version.Version{}
	if dep.MinVersion() != nil {
		v = *dep.MinVersion()
	}
	return pkgmodel.NewDirect(nativeName, v, env.New(""),
		func(rt.Context) error { return nil },
		func(rt.Context) error { return nil })
}

// resolve asks the distro for nativeName's available version and, if
// it satisfies dep's floor, returns a synthesized package whose
// install/uninstall shell out to the distro tool.
func (a *Adapter) resolve(ctx rt.Context, dep dependency.Dependency, nativeName string) (*pkgmodel.Package, bool, error) {
	available, err := a.VersionAvailable(ctx, nativeName)
	if err != nil {
		return nil, false, err
	}
	if available == nil {
		return nil, false, nil
	}
	if ok, err := dep.Satisfies(*available); err != nil {
		return nil, false, err
	} else if !ok {
		return nil, false, nil
	}

	v := *available
	install := func(c rt.Context) error {
		installed, err := a.VersionInstalled(c, nativeName)
		if err != nil {
			return err
		}
		if installed != nil {
			less, err := version.Compare(*installed, v)
			if err != nil {
				return err
			}
			if less >= 0 {
				return nil
			}
		}
		c.OS.PrintAction("Install native %s package %s %s", a.ShortDistroName, nativeName, v.String())
		return a.InstallFn(c, nativeName, v)
	}
	uninstall := func(c rt.Context) error {
		return a.UninstallFn(c, nativeName)
	}
	return pkgmodel.NewDirect(nativeName, v, env.New(""), install, uninstall), true, nil
}
