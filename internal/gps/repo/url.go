package repo

import (
	"strings"
	"sync"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
)

var (
	urlReposMu sync.Mutex
	urlRepos   = map[string]*Repo{}
)

// ResetURLCache clears the process-wide URL-repo cache. Tests call this
// to isolate themselves from repos registered by earlier cases.
func ResetURLCache() {
	urlReposMu.Lock()
	defer urlReposMu.Unlock()
	urlRepos = map[string]*Repo{}
}

// ResolveURL returns the repository for url, constructing (and caching,
// process-wide, keyed by url) a new one on first access, per spec
// §4.10 "URL repos are cached process-wide keyed by URL".
//
// A URL without a "://" is treated as a local filesystem path, built
// immediately (a filesystem repo's config is cheap to read up front,
// exactly as NewFilesystem already does). A "file://" URL strips the
// scheme and is likewise a local path. A "git://" or "git+"-prefixed
// URL is cloned at "master", deferring the actual clone to Load.
// Anything else is a BadConfig error.
func ResolveURL(ctx rt.Context, cacheRoot, url string) (*Repo, error) {
	urlReposMu.Lock()
	if r, ok := urlRepos[url]; ok {
		urlReposMu.Unlock()
		return r, nil
	}
	urlReposMu.Unlock()

	r, err := newURLRepo(ctx, cacheRoot, url)
	if err != nil {
		return nil, err
	}

	urlReposMu.Lock()
	defer urlReposMu.Unlock()
	urlRepos[url] = r
	return r, nil
}

func newURLRepo(ctx rt.Context, cacheRoot, url string) (*Repo, error) {
	if !strings.Contains(url, "://") {
		return NewFilesystem(ctx, url)
	}
	if strings.HasPrefix(url, "file://") {
		return NewFilesystem(ctx, strings.TrimPrefix(url, "file://"))
	}
	if strings.HasPrefix(url, "git://") || strings.HasPrefix(url, "git+") {
		return NewGit(cacheRoot, url, "master"), nil
	}
	return nil, errs.New(errs.BadConfig, "unknown repository URL %q", url)
}

// ResolveLink dispatches a single entry of a repository's links list
// (spec §4.10 "YAML repos (`!git`, plain-string) dispatch to these
// two"). A plain string scalar is a URL; a map with `url`/`commit` keys
// stands in for the `!git` tag, since the value tree produced by the
// external config loader carries no tag information, only shape.
func ResolveLink(ctx rt.Context, cacheRoot string, v value.Value, valueCtx value.Context) (*Repo, error) {
	switch t := v.(type) {
	case value.Map:
		urlVal, ok := t.Get("url")
		if !ok {
			return nil, errs.New(errs.BadConfig, "repo link map is missing \"url\"")
		}
		commitVal, ok := t.Get("commit")
		if !ok {
			return nil, errs.New(errs.BadConfig, "repo link map is missing \"commit\"")
		}
		url, err := scalarString(urlVal, valueCtx)
		if err != nil {
			return nil, err
		}
		commit, err := scalarString(commitVal, valueCtx)
		if err != nil {
			return nil, err
		}

		urlReposMu.Lock()
		if r, ok := urlRepos[url]; ok {
			urlReposMu.Unlock()
			return r, nil
		}
		urlReposMu.Unlock()

		r := NewGit(cacheRoot, url, commit)
		urlReposMu.Lock()
		urlRepos[url] = r
		urlReposMu.Unlock()
		return r, nil
	default:
		url, err := scalarString(v, valueCtx)
		if err != nil {
			return nil, err
		}
		return ResolveURL(ctx, cacheRoot, url)
	}
}

func scalarString(v value.Value, ctx value.Context) (string, error) {
	s, ok := v.(value.Scalar)
	if !ok {
		return "", errs.New(errs.BadConfig, "expected a scalar, got a %s", v.Kind())
	}
	return s.Get(ctx)
}
