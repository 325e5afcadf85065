// Package repo implements Buzzy's repository abstraction (spec
// §4.10): a filesystem or git-backed source of package definitions
// that loads a `.buzzy/repo.toml`-shaped config file into a layered
// env, optionally backs up `version` from `git describe`, and, when a
// `.buzzy/package.toml` is present, builds a default built-package env
// from it and registers a single-package PDB for it.
//
// The spec's `.buzzy/repo.yaml`/`package.yaml` files are read here as
// TOML: spec.md treats YAML loading as an external collaborator ("we
// assume a function that produces generic value trees"), and the
// teacher's stack supplies `github.com/pelletier/go-toml` as that
// concrete parser, already wired as value.FromTOML.
package repo

import (
	"bytes"
	"strings"

	toml "github.com/pelletier/go-toml"

	"github.com/dcreager/buzzy-sub000/internal/gps/builder"
	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/packager"
	"github.com/dcreager/buzzy-sub000/internal/gps/pkgmodel"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

const (
	repoDirName        = ".buzzy"
	repoConfigName     = "repo.toml"
	packageConfigName  = "package.toml"
	gitDirName         = ".git"
)

// Repo is a single repository: an env (carrying at least
// `repo.base_dir`), a `Load` action, and an `Update` action. Load is
// idempotent (spec §4.10); Update is not, since a repository may be
// updated more than once during a process's lifetime (e.g. by a CLI
// `update` subcommand run repeatedly).
type Repo struct {
	Env *env.Env

	// DefaultPackage is the package built from `.buzzy/package.toml`,
	// if the repository has one.
	DefaultPackage *pkgmodel.Package

	loadFn   func(ctx rt.Context) error
	updateFn func(ctx rt.Context) error
	loaded   bool
}

// Load runs this repository's load action at most once per Repo value.
func (r *Repo) Load(ctx rt.Context) error {
	if r.loaded {
		return nil
	}
	r.loaded = true
	if r.loadFn == nil {
		return nil
	}
	return r.loadFn(rt.Context{Env: r.Env, OS: ctx.OS, Log: ctx.Log, EnsureInstalled: ctx.EnsureInstalled, TranslateDependency: ctx.TranslateDependency})
}

// Update runs this repository's update action. Unlike Load, Update is
// not latched: a git-backed repo re-fetches and re-checks-out each
// time it's called.
func (r *Repo) Update(ctx rt.Context) error {
	if r.updateFn == nil {
		return nil
	}
	return r.updateFn(rt.Context{Env: r.Env, OS: ctx.OS, Log: ctx.Log, EnsureInstalled: ctx.EnsureInstalled, TranslateDependency: ctx.TranslateDependency})
}

// loadTOMLMap reads path (through the OS façade) and parses it as a
// TOML value tree, per this package's doc comment.
func loadTOMLMap(ctx rt.Context, path string) (value.Map, error) {
	contents, err := ctx.OS.LoadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.BadConfig, "failed to read %q", path)
	}
	tree, err := toml.LoadBytes(contents)
	if err != nil {
		return nil, errs.Wrap(err, errs.BadConfig, "failed to parse %q", path)
	}
	return value.FromTOML(tree)
}

// gitDescribeVersion runs `git describe --tags --dirty` in dir and
// translates the result via version.FromGitDescribe, per spec §4.1.
func gitDescribeVersion(ctx rt.Context, dir, pkgName string) (version.Version, error) {
	var out, errOut bytes.Buffer
	cmd := osfacade.Cmd{Argv: []string{"git", "describe", "--tags", "--dirty"}, Dir: dir}
	if err := osfacade.GetOutput(ctx.OS, cmd, &out, &errOut, nil); err != nil {
		return version.Version{}, err
	}
	describe := strings.TrimSpace(strings.SplitN(out.String(), "\n", 2)[0])
	return version.FromGitDescribe(describe, pkgName)
}

// buildDefaultPackage constructs the package.toml-derived built
// package: its env backs up to the repository's own env (so e.g.
// `repo.base_dir` and any repo-level overrides are visible to
// interpolated package values), and its Builder/Packager are resolved
// lazily from the `builder`/`packager` keys, falling back to
// auto-detection (spec §4.8, §4.9).
func buildDefaultPackage(ctx rt.Context, repoEnv *env.Env, pkgConfigPath string) (*pkgmodel.Package, error) {
	pkgMap, err := loadTOMLMap(ctx, pkgConfigPath)
	if err != nil {
		return nil, err
	}

	pkgEnv := env.New(repoEnv.BasePath())
	pkgEnv.AddPrimary(pkgMap)
	pkgEnv.AddBackup(repoEnv.AsValue())

	name, _, err := pkgEnv.String("name", true)
	if err != nil {
		return nil, err
	}
	pkgVersion, _, err := pkgEnv.Version("version", true)
	if err != nil {
		return nil, err
	}

	bf := func(ctx rt.Context) (pkgmodel.Builder, error) {
		strategyName, _, err := ctx.Env.String("builder", false)
		if err != nil {
			return nil, err
		}
		if strategyName == "" {
			strategyName, err = builder.Detect(ctx)
			if err != nil {
				return nil, err
			}
		}
		strategy, err := builder.ForName(strategyName)
		if err != nil {
			return nil, err
		}
		return builder.New(strategy), nil
	}
	pf := func(ctx rt.Context) (pkgmodel.Packager, error) {
		strategyName, _, err := ctx.Env.String("packager", false)
		if err != nil {
			return nil, err
		}
		if strategyName == "" {
			strategyName, err = packager.Detect(ctx)
			if err != nil {
				return nil, err
			}
		}
		strategy, err := packager.ForName(strategyName)
		if err != nil {
			return nil, err
		}
		return packager.New(strategy), nil
	}

	return pkgmodel.NewBuilt(name, pkgVersion, pkgEnv, bf, pf), nil
}

// NewRawEnv builds a package env directly from baseDir without going
// through `.buzzy/repo.toml`/`package.toml` (SUPPLEMENTED FEATURES:
// `raw build`/`raw pkg`, src/buzzy/raw-build.c and raw-pkg.c): baseDir
// itself is both the env's base path and its source_dir/staging
// anchor, and name/version/builder/packager are taken directly from
// the overrides the caller supplies (typically parsed from CLI flags).
func NewRawEnv(baseDir string, overrides value.Map) *env.Env {
	e := env.New(baseDir)
	e.AddOverride(overrides)
	return e
}
