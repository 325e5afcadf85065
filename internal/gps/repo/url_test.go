package repo

import (
	"testing"

	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/pdb"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURLLocalPathBuildsImmediately(t *testing.T) {
	ResetURLCache()
	t.Cleanup(ResetURLCache)

	m := osfacade.NewMock()
	m.Files["/repo"] = nil
	m.Files["/repo/.buzzy/repo.toml"] = []byte("name = \"jansson\"\n")
	ctx := rt.Context{OS: m}

	r, err := ResolveURL(ctx, "/cache", "/repo")
	require.NoError(t, err)
	require.NotNil(t, r.Env)

	name, ok, err := r.Env.String("name", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jansson", name)
}

func TestResolveURLFileSchemeStripsPrefix(t *testing.T) {
	ResetURLCache()
	t.Cleanup(ResetURLCache)

	m := osfacade.NewMock()
	m.Files["/repo"] = nil
	ctx := rt.Context{OS: m}

	r, err := ResolveURL(ctx, "/cache", "file:///repo")
	require.NoError(t, err)
	baseDir, _, err := r.Env.String("repo.base_dir", false)
	require.NoError(t, err)
	assert.Equal(t, "/repo", baseDir)
}

func TestResolveURLGitSchemeDefersClone(t *testing.T) {
	ResetURLCache()
	t.Cleanup(ResetURLCache)

	m := osfacade.NewMock()
	ctx := rt.Context{OS: m}

	r, err := ResolveURL(ctx, "/cache", "git://example.com/jansson.git")
	require.NoError(t, err)
	commit, _, err := r.Env.String("repo.git.commit", false)
	require.NoError(t, err)
	assert.Equal(t, "master", commit)
	assert.Empty(t, m.Commands, "git clone must be deferred to Load")
}

func TestResolveURLUnknownSchemeIsBadConfig(t *testing.T) {
	ResetURLCache()
	t.Cleanup(ResetURLCache)

	m := osfacade.NewMock()
	ctx := rt.Context{OS: m}

	_, err := ResolveURL(ctx, "/cache", "ftp://example.com/jansson")
	require.Error(t, err)
}

func TestResolveURLCachesByURL(t *testing.T) {
	ResetURLCache()
	t.Cleanup(ResetURLCache)

	m := osfacade.NewMock()
	ctx := rt.Context{OS: m}

	a, err := ResolveURL(ctx, "/cache", "git://example.com/jansson.git")
	require.NoError(t, err)
	b, err := ResolveURL(ctx, "/cache", "git://example.com/jansson.git")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolveLinkScalarResolvesAsURL(t *testing.T) {
	ResetURLCache()
	t.Cleanup(ResetURLCache)
	pdb.Reset()
	t.Cleanup(pdb.Reset)

	m := osfacade.NewMock()
	ctx := rt.Context{OS: m}

	scalar := value.NewString("git://example.com/jansson.git")
	r, err := ResolveLink(ctx, "/cache", scalar, emptyValueContext{})
	require.NoError(t, err)
	commit, _, err := r.Env.String("repo.git.commit", false)
	require.NoError(t, err)
	assert.Equal(t, "master", commit)
}

func TestResolveLinkMapDispatchesToGitWithExplicitCommit(t *testing.T) {
	ResetURLCache()
	t.Cleanup(ResetURLCache)

	m := osfacade.NewMock()
	ctx := rt.Context{OS: m}

	link := value.NewMap()
	require.NoError(t, link.Add("url", value.NewString("git://example.com/jansson.git"), true))
	require.NoError(t, link.Add("commit", value.NewString("v2.4"), true))

	r, err := ResolveLink(ctx, "/cache", link, emptyValueContext{})
	require.NoError(t, err)
	commit, _, err := r.Env.String("repo.git.commit", false)
	require.NoError(t, err)
	assert.Equal(t, "v2.4", commit)
}

func TestResolveLinkMapMissingURLIsBadConfig(t *testing.T) {
	ResetURLCache()
	t.Cleanup(ResetURLCache)

	m := osfacade.NewMock()
	ctx := rt.Context{OS: m}

	link := value.NewMap()
	require.NoError(t, link.Add("commit", value.NewString("v2.4"), true))

	_, err := ResolveLink(ctx, "/cache", link, emptyValueContext{})
	require.Error(t, err)
}

// emptyValueContext is a value.Context that never resolves anything;
// the scalars used in these tests are plain strings that don't
// interpolate other variables.
type emptyValueContext struct{}

func (emptyValueContext) Get(name string) (string, bool, error) { return "", false, nil }
