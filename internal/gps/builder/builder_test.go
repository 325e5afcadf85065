package builder

import (
	"testing"

	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/log"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func janssonEnv(t *testing.T) *env.Env {
	t.Helper()
	e := env.New("/home/test")
	m := value.NewMap()
	set := func(k, v string) {
		require.NoError(t, m.Add(k, value.NewString(v), true))
	}
	set("source_dir", "/home/test/src/jansson")
	set("build_dir", "/home/test/src/jansson")
	set("staging_dir", "/home/test/.cache/buzzy/build/jansson/2.4/stage")
	set("prefix", "/usr")
	set("exec_prefix", "/usr")
	set("bin_dir", "/usr/bin")
	set("sbin_dir", "/usr/sbin")
	set("lib_dir", "/usr/lib")
	set("libexec_dir", "/usr/lib")
	set("share_dir", "/usr/share")
	set("man_dir", "/usr/share/man")
	e.AddPrimary(m)
	return e
}

// TestAutotoolsBuildAndStageSequence matches spec scenario 4.
func TestAutotoolsBuildAndStageSequence(t *testing.T) {
	e := janssonEnv(t)
	mock := osfacade.NewMock()
	mock.ExpectFileExists("/home/test/src/jansson/configure", false)
	mock.Expect("autoreconf -i", osfacade.MockResponse{})
	mock.Expect(
		"/home/test/src/jansson/configure --prefix=/usr --exec-prefix=/usr "+
			"--bindir=/usr/bin --sbindir=/usr/sbin --libdir=/usr/lib --libexecdir=/usr/lib "+
			"--datadir=/usr/share --mandir=/usr/share/man",
		osfacade.MockResponse{})
	mock.Expect("make", osfacade.MockResponse{})
	mock.Expect("make install", osfacade.MockResponse{})

	ctx := rt.Context{Env: e, OS: mock, Log: log.Discard()}
	o := New(&Autotools{})
	require.NoError(t, o.Stage(ctx))

	assert.Contains(t, mock.Commands, "autoreconf -i")
	assert.Contains(t, mock.Commands, "make")
	assert.Contains(t, mock.Commands, "make install")
}

func TestAutotoolsSkipsAutoreconfWhenConfigureExists(t *testing.T) {
	e := janssonEnv(t)
	mock := osfacade.NewMock()
	mock.ExpectFileExists("/home/test/src/jansson/configure", true)
	mock.Expect(
		"/home/test/src/jansson/configure --prefix=/usr --exec-prefix=/usr "+
			"--bindir=/usr/bin --sbindir=/usr/sbin --libdir=/usr/lib --libexecdir=/usr/lib "+
			"--datadir=/usr/share --mandir=/usr/share/man",
		osfacade.MockResponse{})
	mock.Expect("make", osfacade.MockResponse{})

	ctx := rt.Context{Env: e, OS: mock, Log: log.Discard()}
	o := New(&Autotools{})
	require.NoError(t, o.Build(ctx))
	assert.NotContains(t, mock.Commands, "autoreconf -i")
}

func TestOrchestratorLatchesBuild(t *testing.T) {
	e := janssonEnv(t)
	mock := osfacade.NewMock()
	mock.ExpectFileExists("/home/test/src/jansson/configure", true)
	mock.Expect(
		"/home/test/src/jansson/configure --prefix=/usr --exec-prefix=/usr "+
			"--bindir=/usr/bin --sbindir=/usr/sbin --libdir=/usr/lib --libexecdir=/usr/lib "+
			"--datadir=/usr/share --mandir=/usr/share/man",
		osfacade.MockResponse{})
	mock.Expect("make", osfacade.MockResponse{})

	ctx := rt.Context{Env: e, OS: mock, Log: log.Discard()}
	o := New(&Autotools{})
	require.NoError(t, o.Build(ctx))
	firstCount := len(mock.Commands)
	require.NoError(t, o.Build(ctx))
	assert.Equal(t, firstCount, len(mock.Commands))
}

func TestNoopStageCreatesDirOnly(t *testing.T) {
	e := janssonEnv(t)
	mock := osfacade.NewMock()
	ctx := rt.Context{Env: e, OS: mock, Log: log.Discard()}
	o := New(&Noop{})
	require.NoError(t, o.Stage(ctx))
	assert.True(t, mock.Dirs["/home/test/.cache/buzzy/build/jansson/2.4/stage"])
	assert.Empty(t, mock.Commands)
}

func TestDetectPrefersCMake(t *testing.T) {
	e := janssonEnv(t)
	mock := osfacade.NewMock()
	mock.ExpectFileExists("/home/test/src/jansson/CMakeLists.txt", true)
	ctx := rt.Context{Env: e, OS: mock}
	name, err := Detect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cmake", name)
}

func TestDetectFallsBackToAutotools(t *testing.T) {
	e := janssonEnv(t)
	mock := osfacade.NewMock()
	mock.ExpectFileExists("/home/test/src/jansson/CMakeLists.txt", false)
	mock.ExpectFileExists("/home/test/src/jansson/configure.ac", true)
	ctx := rt.Context{Env: e, OS: mock}
	name, err := Detect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "autotools", name)
}

func TestDetectFailsWithNeither(t *testing.T) {
	e := janssonEnv(t)
	mock := osfacade.NewMock()
	mock.ExpectFileExists("/home/test/src/jansson/CMakeLists.txt", false)
	mock.ExpectFileExists("/home/test/src/jansson/configure.ac", false)
	ctx := rt.Context{Env: e, OS: mock}
	_, err := Detect(ctx)
	require.Error(t, err)
}

func TestConfigureArgsArrayIsAppended(t *testing.T) {
	e := janssonEnv(t)
	m := value.NewArray(value.NewString("--disable-static"), value.NewString("--enable-shared"))
	root := value.NewMap()
	require.NoError(t, root.Add("autotools", mustMap(t, "configure", mustMap(t, "args", m)), true))
	e.AddPrimary(root)

	mock := osfacade.NewMock()
	mock.ExpectFileExists("/home/test/src/jansson/configure", true)
	mock.Expect(
		"/home/test/src/jansson/configure --prefix=/usr --exec-prefix=/usr "+
			"--bindir=/usr/bin --sbindir=/usr/sbin --libdir=/usr/lib --libexecdir=/usr/lib "+
			"--datadir=/usr/share --mandir=/usr/share/man --disable-static --enable-shared",
		osfacade.MockResponse{})
	mock.Expect("make", osfacade.MockResponse{})

	ctx := rt.Context{Env: e, OS: mock, Log: log.Discard()}
	o := New(&Autotools{})
	require.NoError(t, o.Build(ctx))
}

func mustMap(t *testing.T, key string, v value.Value) value.Map {
	t.Helper()
	m := value.NewMap()
	require.NoError(t, m.Add(key, v, true))
	return m
}
