package repo

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/pdb"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
)

// NewGit constructs a git-backed repository (spec §4.10): url at
// commit is cloned into `<cacheRoot>/<slug>`, where slug is
// `basename(url stripped of .git) + '-' + 8 hex digits of
// stable-hash(url,commit)`; Load then clones (if the cache directory is
// missing) and delegates to NewFilesystem, and Update re-fetches and
// re-checks-out commit.
func NewGit(cacheRoot, url, commit string) *Repo {
	slug := gitSlug(url, commit)
	baseDir := cacheRoot + "/" + slug

	e := env.New(baseDir)
	m := value.NewMap()
	_ = value.SetNested(m, "repo.git.url", value.NewString(url), true)
	_ = value.SetNested(m, "repo.git.commit", value.NewString(commit), true)
	_ = value.SetNested(m, "repo.slug", value.NewString(slug), true)
	_ = value.SetNested(m, "repo.base_dir", value.NewString(baseDir), true)
	_ = value.SetNested(m, "repo.git_dir", value.NewString(baseDir+"/"+gitDirName), true)
	e.AddOverride(m)

	r := &Repo{Env: e}
	r.loadFn = func(ctx rt.Context) error {
		if !ctx.OS.FileExists(baseDir) {
			if err := ctx.OS.CreateDir(baseDir); err != nil {
				return err
			}
			if err := osfacade.Run(ctx.OS, osfacade.Cmd{
				Argv: []string{"git", "clone", url, baseDir},
			}, nil, nil, nil); err != nil {
				return err
			}
			if err := osfacade.Run(ctx.OS, osfacade.Cmd{
				Argv: []string{"git", "checkout", commit},
				Dir:  baseDir,
			}, nil, nil, nil); err != nil {
				return err
			}
		}
		inner, err := NewFilesystem(ctx, baseDir)
		if err != nil {
			return err
		}
		if err := inner.Load(ctx); err != nil {
			return err
		}
		if inner.DefaultPackage != nil {
			r.DefaultPackage = inner.DefaultPackage
			pdb.Register(pdb.NewSingle(inner.DefaultPackage))
		}
		return nil
	}
	r.updateFn = func(ctx rt.Context) error {
		if err := osfacade.Run(ctx.OS, osfacade.Cmd{
			Argv: []string{"git", "fetch", "--tags", "--prune", url},
			Dir:  baseDir,
		}, nil, nil, nil); err != nil {
			return err
		}
		return osfacade.Run(ctx.OS, osfacade.Cmd{
			Argv: []string{"git", "checkout", commit},
			Dir:  baseDir,
		}, nil, nil, nil)
	}
	return r
}

// gitSlug renders the cache-directory slug for a (url, commit) pair
// (spec §4.10): the URL's basename with any trailing ".git" stripped,
// plus a stable 8-hex-digit suffix so distinct commits of the same URL
// (or same-named repos from different hosts) never collide.
//
// The original engine hashes with a fixed libcork seed; there is no
// equivalent constant worth reproducing here; fnv-1a over "url\x00commit"
// gives the same stability property (same inputs always produce the
// same slug) without depending on a C hash implementation.
func gitSlug(url, commit string) string {
	base := url
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".git")

	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(commit))
	return fmt.Sprintf("%s-%08x", base, h.Sum32())
}
