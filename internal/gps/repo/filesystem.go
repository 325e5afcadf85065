package repo

import (
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/pdb"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
)

// NewFilesystem constructs a local-filesystem repository rooted at
// basePath (spec §4.10): it reads `<basePath>/.buzzy/repo.toml` into a
// value set layered on the repo's env, backs up `version` with a `git
// describe`-derived scalar if `<basePath>/.git` exists, and, if
// `<basePath>/.buzzy/package.toml` exists, builds a default package
// from it and registers a single-package PDB for it in the global
// registry.
func NewFilesystem(ctx rt.Context, basePath string) (*Repo, error) {
	if !ctx.OS.FileExists(basePath) {
		return nil, errs.New(errs.BadConfig, "repository directory %q doesn't exist", basePath)
	}

	e := env.New(basePath)
	base := value.NewMap()
	if err := value.SetNested(base, "repo.base_dir", value.NewString(basePath), true); err != nil {
		return nil, err
	}
	e.AddOverride(base)

	configPath := basePath + "/" + repoDirName + "/" + repoConfigName
	repoCtx := ctx
	repoCtx.Env = e
	if ctx.OS.FileExists(configPath) {
		repoMap, err := loadTOMLMap(repoCtx, configPath)
		if err != nil {
			return nil, err
		}
		e.AddPrimary(repoMap)
	}

	gitDir := basePath + "/" + gitDirName
	if ctx.OS.FileExists(gitDir) {
		name, _, err := e.String("name", false)
		if err != nil {
			return nil, err
		}
		if v, err := gitDescribeVersion(repoCtx, basePath, name); err == nil {
			backup := value.NewMap()
			if err := backup.Add("version", value.NewString(v.String()), true); err != nil {
				return nil, err
			}
			e.AddBackup(backup)
		}
	}

	r := &Repo{
		Env:      e,
		loadFn:   func(rt.Context) error { return nil },
		updateFn: func(rt.Context) error { return nil },
	}

	pkgConfigPath := basePath + "/" + repoDirName + "/" + packageConfigName
	if ctx.OS.FileExists(pkgConfigPath) {
		pkgCtx := ctx
		pkgCtx.Env = e
		pkg, err := buildDefaultPackage(pkgCtx, e, pkgConfigPath)
		if err != nil {
			return nil, err
		}
		r.DefaultPackage = pkg
		pdb.Register(pdb.NewSingle(pkg))
	}

	return r, nil
}

// Find walks upward from startPath looking for a `.buzzy` directory,
// the way both the original engine's filesystem and local-repo finders
// do (repo.c's bz_filesystem_repo_find, repos/local.c's
// bz_local_filesystem_repo_find): each ancestor directory is checked in
// turn, stopping at "" or "/". Returns (nil, nil) if none is found.
func Find(ctx rt.Context, startPath string) (*Repo, error) {
	path := strings.TrimSuffix(startPath, "/")
	for {
		candidate := path + "/" + repoDirName
		if ctx.OS.FileExists(candidate) {
			return NewFilesystem(ctx, path)
		}
		if path == "" || path == "/" {
			return nil, nil
		}
		idx := strings.LastIndex(path, "/")
		if idx < 0 {
			return nil, nil
		}
		path = path[:idx]
	}
}
