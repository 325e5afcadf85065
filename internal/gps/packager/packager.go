// Package packager implements Buzzy's packaging strategies (spec
// §4.9): pacman, deb, rpm, homebrew, and noop, each wrapped by an
// Orchestrator that mirrors the builder package's latch-and-chain
// shape (package ⇒ nothing, install ⇒ package first).
package packager

import (
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/dependency"
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/native"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
)

// Strategy is what a concrete packager (pacman, deb, rpm, homebrew,
// noop) implements; Orchestrator supplies the latching and chaining
// spec §4.9 describes on top of it.
type Strategy interface {
	PackageNeeded(ctx rt.Context) (bool, error)
	Package(ctx rt.Context) error
	InstallNeeded(ctx rt.Context) (bool, error)
	Install(ctx rt.Context) error
	UninstallNeeded(ctx rt.Context) (bool, error)
	Uninstall(ctx rt.Context) error
}

// Orchestrator wraps a Strategy with the process-lifetime latch and
// the install⇒package chaining spec §4.9 requires ("install ... which
// itself calls package internally"). It satisfies pkgmodel's Packager
// interface structurally.
type Orchestrator struct {
	strategy    Strategy
	packaged    bool
	installed   bool
	uninstalled bool
}

// New wraps strategy in an Orchestrator.
func New(strategy Strategy) *Orchestrator {
	return &Orchestrator{strategy: strategy}
}

// Package runs the packaging step at most once per process lifetime.
func (o *Orchestrator) Package(ctx rt.Context) error {
	if o.packaged {
		return nil
	}
	o.packaged = true
	needed, err := o.strategy.PackageNeeded(ctx)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}
	return o.strategy.Package(ctx)
}

// Install packages first (if needed), then installs at most once.
func (o *Orchestrator) Install(ctx rt.Context) error {
	if o.installed {
		return nil
	}
	o.installed = true
	if err := o.Package(ctx); err != nil {
		return err
	}
	needed, err := o.strategy.InstallNeeded(ctx)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}
	return o.strategy.Install(ctx)
}

// Uninstall runs the uninstall step at most once. It does not chain
// through Package: an uninstall only makes sense for something already
// installed.
func (o *Orchestrator) Uninstall(ctx rt.Context) error {
	if o.uninstalled {
		return nil
	}
	o.uninstalled = true
	needed, err := o.strategy.UninstallNeeded(ctx)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}
	return o.strategy.Uninstall(ctx)
}

// Detect is the packager auto-detector scalar of spec §4.9: it reuses
// the same filesystem markers the native.Detect* platform probes check,
// returning the first matching distro's packager name.
func Detect(ctx rt.Context) (string, error) {
	switch {
	case native.DetectArch(ctx.OS):
		return "pacman", nil
	case native.DetectDebian(ctx.OS):
		return "deb", nil
	case native.DetectRedHat(ctx.OS):
		return "rpm", nil
	case native.DetectHomebrew(ctx.OS):
		return "homebrew", nil
	default:
		return "", errs.New(errs.BadConfig, "cannot detect a packager: no distro marker file found")
	}
}

// ForName returns the Strategy for the names Detect (and the env's
// `packager` key) can produce, plus "noop".
func ForName(name string) (Strategy, error) {
	switch name {
	case "pacman":
		return &Pacman{}, nil
	case "deb":
		return &Deb{}, nil
	case "rpm":
		return &RPM{}, nil
	case "homebrew":
		return &Homebrew{}, nil
	case "noop":
		return &Noop{}, nil
	default:
		return nil, errs.New(errs.BadConfig, "unknown packager %q", name)
	}
}

// force reads the `force` env override; a missing value defaults to
// false.
func force(ctx rt.Context) (bool, error) {
	f, ok, err := ctx.Env.Bool("force", false)
	if err != nil {
		return false, err
	}
	return ok && f, nil
}

// license reads `license`, defaulting to "unknown" per spec §4.9.
func license(ctx rt.Context) (string, error) {
	l, ok, err := ctx.Env.String("license", false)
	if err != nil {
		return "", err
	}
	if !ok {
		return "unknown", nil
	}
	return l, nil
}

// architecture reads `architecture`, defaulting to "amd64".
func architecture(ctx rt.Context) (string, error) {
	a, ok, err := ctx.Env.String("architecture", false)
	if err != nil {
		return "", err
	}
	if !ok {
		return "amd64", nil
	}
	return a, nil
}

// stagingDir resolves and validates `staging_dir`, failing with
// BadConfig (spec §4.9 step 1) if it isn't present on disk.
func stagingDir(ctx rt.Context) (string, error) {
	dir, ok, err := ctx.Env.Path("staging_dir", true)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.New(errs.BadConfig, "missing required variable \"staging_dir\"")
	}
	if !ctx.OS.FileExists(dir) {
		return "", errs.New(errs.BadConfig, "staging directory %q does not exist", dir)
	}
	return dir, nil
}

// outputDir resolves `binary_package_dir`, defaulting to "." (the
// current directory) without resolving it against the env's base
// path, matching the literal "./name_version_arch.ext" artifact paths
// spec §8 scenario 5 expects.
func outputDir(ctx rt.Context) (string, error) {
	dir, ok, err := ctx.Env.String("binary_package_dir", false)
	if err != nil {
		return "", err
	}
	if !ok {
		return ".", nil
	}
	return dir, nil
}

// artifactPath joins outputDir and filename the way spec §8 scenario 5
// expects: plain string concatenation, not filepath.Join, so a "."
// output dir renders as "./filename" rather than being cleaned away.
func artifactPath(dir, filename string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + filename
	}
	return dir + "/" + filename
}

// translatedDependencies reads a dependency-list env key (`dependencies`
// or `build_dependencies`, each a scalar or array of scalars per
// dependency.Parse's grammar) and translates each to its native
// package name, via ctx.Translate if the caller wired a real PDB-backed
// resolver, else by applying pattern (a printf-style "%s..." template,
// mirroring the native adapters' own name-pattern convention).
func translatedDependencies(ctx rt.Context, key, pattern string) ([]nativeDependency, error) {
	deps, err := readDependencyList(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]nativeDependency, 0, len(deps))
	for _, d := range deps {
		var name string
		if ctx.TranslateDependency != nil {
			name, err = ctx.Translate(d.Name())
			if err != nil {
				return nil, err
			}
		} else {
			name = sprintfPattern(pattern, d.Name())
		}
		out = append(out, nativeDependency{nativeName: name, dep: d})
	}
	return out, nil
}

type nativeDependency struct {
	nativeName string
	dep        dependency.Dependency
}

func sprintfPattern(pattern, name string) string {
	if !strings.Contains(pattern, "%s") {
		return pattern
	}
	return strings.Replace(pattern, "%s", name, 1)
}

// readDependencyList accepts a missing key (empty result), a single
// scalar, or an array of scalars; anything else is BadConfig.
func readDependencyList(ctx rt.Context, key string) ([]dependency.Dependency, error) {
	v, ok, err := ctx.Env.GetValue(key)
	if err != nil || !ok {
		return nil, err
	}
	var texts []string
	switch t := v.(type) {
	case value.Scalar:
		s, err := t.Get(ctx.Env)
		if err != nil {
			return nil, err
		}
		texts = append(texts, s)
	case value.Array:
		for i := 0; i < t.Count(); i++ {
			elem := t.Get(i)
			s, ok := elem.(value.Scalar)
			if !ok {
				return nil, errs.New(errs.BadConfig, "%q must be a scalar or an array of scalars, not a map", key)
			}
			rendered, err := s.Get(ctx.Env)
			if err != nil {
				return nil, err
			}
			texts = append(texts, rendered)
		}
	default:
		return nil, errs.New(errs.BadConfig, "%q must be a scalar or an array of scalars, not a map", key)
	}

	deps := make([]dependency.Dependency, 0, len(texts))
	for _, text := range texts {
		d, err := dependency.Parse(text)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// scriptSet holds the contents of the four optional script-path env
// keys (spec §4.9 step 4), as read by loadScripts; a missing key
// yields nil content.
type scriptSet struct {
	preInstall  []byte
	postInstall []byte
	preRemove   []byte
	postRemove  []byte
}

func loadScripts(ctx rt.Context) (scriptSet, error) {
	var s scriptSet
	var err error
	if s.preInstall, err = loadScriptIfPresent(ctx, "pre_install_script"); err != nil {
		return scriptSet{}, err
	}
	if s.postInstall, err = loadScriptIfPresent(ctx, "post_install_script"); err != nil {
		return scriptSet{}, err
	}
	if s.preRemove, err = loadScriptIfPresent(ctx, "pre_remove_script"); err != nil {
		return scriptSet{}, err
	}
	if s.postRemove, err = loadScriptIfPresent(ctx, "post_remove_script"); err != nil {
		return scriptSet{}, err
	}
	return s, nil
}

func loadScriptIfPresent(ctx rt.Context, key string) ([]byte, error) {
	path, ok, err := ctx.Env.Path(key, false)
	if err != nil || !ok {
		return nil, err
	}
	return ctx.OS.LoadFile(path)
}

// withLdconfig prepends an `/sbin/ldconfig` line to content (deb and
// rpm always do this for post-install/post-remove scripts, spec §4.9
// step 4, for shared-library correctness).
func withLdconfig(content []byte) []byte {
	prefix := "#!/bin/sh\nset -e\n/sbin/ldconfig\n"
	if len(content) == 0 {
		return []byte(prefix)
	}
	return append([]byte(prefix), content...)
}
