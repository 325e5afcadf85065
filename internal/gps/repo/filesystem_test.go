package repo

import (
	"testing"

	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/pdb"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMock() *osfacade.Mock {
	m := osfacade.NewMock()
	return m
}

func TestNewFilesystemRejectsMissingDirectory(t *testing.T) {
	m := newTestMock()
	ctx := rt.Context{OS: m}
	_, err := NewFilesystem(ctx, "/nope")
	require.Error(t, err)
}

func TestNewFilesystemReadsRepoConfig(t *testing.T) {
	m := newTestMock()
	m.Dirs["/repo"] = true
	m.Files["/repo"] = nil
	m.Files["/repo/.buzzy/repo.toml"] = []byte("name = \"jansson\"\n")
	ctx := rt.Context{OS: m}

	r, err := NewFilesystem(ctx, "/repo")
	require.NoError(t, err)
	require.NotNil(t, r.Env)

	name, ok, err := r.Env.String("name", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jansson", name)
}

func TestNewFilesystemWithoutRepoConfigStillWorks(t *testing.T) {
	m := newTestMock()
	m.Files["/repo"] = nil
	ctx := rt.Context{OS: m}

	r, err := NewFilesystem(ctx, "/repo")
	require.NoError(t, err)
	baseDir, ok, err := r.Env.String("repo.base_dir", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/repo", baseDir)
}

func TestNewFilesystemBacksUpVersionFromGitDescribe(t *testing.T) {
	m := newTestMock()
	m.Files["/repo"] = nil
	m.Files["/repo/.git"] = nil
	m.Files["/repo/.buzzy/repo.toml"] = []byte("name = \"jansson\"\n")
	m.Expect("git describe --tags --dirty", osfacade.MockResponse{Stdout: "v2.4-0-gdeadbee\n"})
	ctx := rt.Context{OS: m}

	r, err := NewFilesystem(ctx, "/repo")
	require.NoError(t, err)
	v, ok, err := r.Env.Version("version", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2.4+0+gitdeadbee", v.String())
}

func TestNewFilesystemGitDescribeFailureLeavesVersionUnset(t *testing.T) {
	m := newTestMock()
	m.Files["/repo"] = nil
	m.Files["/repo/.git"] = nil
	m.Expect("git describe --tags --dirty", osfacade.MockResponse{ExitCode: 128})
	ctx := rt.Context{OS: m}

	r, err := NewFilesystem(ctx, "/repo")
	require.NoError(t, err)
	_, ok, err := r.Env.Version("version", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewFilesystemBuildsAndRegistersDefaultPackage(t *testing.T) {
	pdb.Reset()
	t.Cleanup(pdb.Reset)

	m := newTestMock()
	m.Files["/repo"] = nil
	m.Files["/repo/.buzzy/repo.toml"] = []byte("name = \"jansson\"\n")
	m.Files["/repo/.buzzy/package.toml"] = []byte("name = \"jansson\"\nversion = \"2.4\"\nbuilder = \"noop\"\npackager = \"noop\"\n")
	ctx := rt.Context{OS: m}

	r, err := NewFilesystem(ctx, "/repo")
	require.NoError(t, err)
	require.NotNil(t, r.DefaultPackage)
	assert.Equal(t, "jansson", r.DefaultPackage.Name)
}

func TestFindWalksUpToNearestBuzzyDirectory(t *testing.T) {
	m := newTestMock()
	m.Files["/root"] = nil
	m.Files["/root/project"] = nil
	m.Files["/root/project/src"] = nil
	m.Dirs["/root/project/.buzzy"] = true
	m.Files["/root/project/.buzzy"] = nil
	ctx := rt.Context{OS: m}

	r, err := Find(ctx, "/root/project/src")
	require.NoError(t, err)
	require.NotNil(t, r)
	baseDir, _, err := r.Env.String("repo.base_dir", false)
	require.NoError(t, err)
	assert.Equal(t, "/root/project", baseDir)
}

func TestFindReturnsNilWhenNoBuzzyDirectoryExists(t *testing.T) {
	m := newTestMock()
	ctx := rt.Context{OS: m}

	r, err := Find(ctx, "/root/project/src")
	require.NoError(t, err)
	assert.Nil(t, r)
}
