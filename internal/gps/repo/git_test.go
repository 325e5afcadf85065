package repo

import (
	"testing"

	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/pdb"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitSlugIsDeterministic(t *testing.T) {
	a := gitSlug("https://github.com/jansson/jansson.git", "v2.4")
	b := gitSlug("https://github.com/jansson/jansson.git", "v2.4")
	assert.Equal(t, a, b)
	assert.Regexp(t, `^jansson-[0-9a-f]{8}$`, a)
}

func TestGitSlugDistinguishesCommits(t *testing.T) {
	a := gitSlug("https://github.com/jansson/jansson.git", "v2.4")
	b := gitSlug("https://github.com/jansson/jansson.git", "v2.5")
	assert.NotEqual(t, a, b)
}

func TestGitSlugDistinguishesURLs(t *testing.T) {
	a := gitSlug("https://github.com/jansson/jansson.git", "v2.4")
	b := gitSlug("https://example.com/other/jansson.git", "v2.4")
	assert.NotEqual(t, a, b)
}

func TestNewGitOverridesAreVisibleOnEnv(t *testing.T) {
	r := NewGit("/cache", "https://example.com/jansson.git", "v2.4")
	url, ok, err := r.Env.String("repo.git.url", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/jansson.git", url)

	slug := gitSlug("https://example.com/jansson.git", "v2.4")
	baseDir, _, err := r.Env.String("repo.base_dir", false)
	require.NoError(t, err)
	assert.Equal(t, "/cache/"+slug, baseDir)
}

func TestGitLoadClonesWhenCacheDirMissing(t *testing.T) {
	pdb.Reset()
	t.Cleanup(pdb.Reset)

	slug := gitSlug("https://example.com/jansson.git", "v2.4")
	baseDir := "/cache/" + slug

	m := osfacade.NewMock()
	m.Expect("git clone https://example.com/jansson.git "+baseDir, osfacade.MockResponse{})
	m.Expect("git checkout v2.4", osfacade.MockResponse{})

	r := NewGit("/cache", "https://example.com/jansson.git", "v2.4")
	ctx := rt.Context{OS: m}
	require.NoError(t, r.Load(ctx))

	assert.Contains(t, m.Commands, "git clone https://example.com/jansson.git "+baseDir)
	assert.Contains(t, m.Commands, "git checkout v2.4")
}

func TestGitLoadSkipsCloneWhenCacheDirExists(t *testing.T) {
	pdb.Reset()
	t.Cleanup(pdb.Reset)

	slug := gitSlug("https://example.com/jansson.git", "v2.4")
	baseDir := "/cache/" + slug

	m := osfacade.NewMock()
	m.Files[baseDir] = nil

	r := NewGit("/cache", "https://example.com/jansson.git", "v2.4")
	ctx := rt.Context{OS: m}
	require.NoError(t, r.Load(ctx))

	for _, c := range m.Commands {
		assert.NotContains(t, c, "git clone")
	}
}

func TestGitUpdateFetchesAndChecksOutEveryCall(t *testing.T) {
	slug := gitSlug("https://example.com/jansson.git", "v2.4")
	baseDir := "/cache/" + slug

	m := osfacade.NewMock()
	m.Expect("git fetch --tags --prune https://example.com/jansson.git", osfacade.MockResponse{})
	m.Expect("git checkout v2.4", osfacade.MockResponse{})

	r := NewGit("/cache", "https://example.com/jansson.git", "v2.4")
	ctx := rt.Context{OS: m}

	require.NoError(t, r.Update(ctx))
	require.NoError(t, r.Update(ctx))

	fetchCount := 0
	for _, c := range m.Commands {
		if c == "git fetch --tags --prune https://example.com/jansson.git" {
			fetchCount++
		}
	}
	assert.Equal(t, 2, fetchCount)
}
