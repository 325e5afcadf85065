package pkgmodel

import (
	"testing"

	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuilder struct {
	buildCalls, testCalls, stageCalls int
}

func (f *fakeBuilder) Build(rt.Context) error { f.buildCalls++; return nil }
func (f *fakeBuilder) Test(rt.Context) error  { f.testCalls++; return nil }
func (f *fakeBuilder) Stage(rt.Context) error { f.stageCalls++; return nil }

type fakePackager struct {
	packageCalls, installCalls, uninstallCalls int
}

func (f *fakePackager) Package(rt.Context) error   { f.packageCalls++; return nil }
func (f *fakePackager) Install(rt.Context) error   { f.installCalls++; return nil }
func (f *fakePackager) Uninstall(rt.Context) error { f.uninstallCalls++; return nil }

func TestBuiltPackageInstallStagesThenInstalls(t *testing.T) {
	b := &fakeBuilder{}
	pk := &fakePackager{}
	p := NewBuilt("jansson", version.MustParse("2.4"), env.New(""),
		func(rt.Context) (Builder, error) { return b, nil },
		func(rt.Context) (Packager, error) { return pk, nil })

	require.NoError(t, p.Install(rt.Context{}))
	assert.Equal(t, 1, b.stageCalls)
	assert.Equal(t, 1, pk.installCalls)
}

func TestInstallTwiceIsLatchedNoOp(t *testing.T) {
	b := &fakeBuilder{}
	pk := &fakePackager{}
	p := NewBuilt("jansson", version.MustParse("2.4"), env.New(""),
		func(rt.Context) (Builder, error) { return b, nil },
		func(rt.Context) (Packager, error) { return pk, nil })

	require.NoError(t, p.Install(rt.Context{}))
	require.NoError(t, p.Install(rt.Context{}))
	assert.Equal(t, 1, b.stageCalls)
	assert.Equal(t, 1, pk.installCalls)
}

func TestBuilderConstructedOnlyOnce(t *testing.T) {
	calls := 0
	p := NewBuilt("jansson", version.MustParse("2.4"), env.New(""),
		func(rt.Context) (Builder, error) { calls++; return &fakeBuilder{}, nil },
		func(rt.Context) (Packager, error) { return &fakePackager{}, nil })

	require.NoError(t, p.Build(rt.Context{}))
	require.NoError(t, p.Test(rt.Context{}))
	assert.Equal(t, 1, calls)
}

func TestDirectPackageInstallUninstall(t *testing.T) {
	var installed, uninstalled int
	p := NewDirect("jansson", version.MustParse("2.4"), env.New(""),
		func(rt.Context) error { installed++; return nil },
		func(rt.Context) error { uninstalled++; return nil },
	)
	require.NoError(t, p.Install(rt.Context{}))
	require.NoError(t, p.Install(rt.Context{}))
	assert.Equal(t, 1, installed)

	require.NoError(t, p.Uninstall(rt.Context{}))
	require.NoError(t, p.Uninstall(rt.Context{}))
	assert.Equal(t, 1, uninstalled)
}

func TestDirectPackageWithNoActionsErrors(t *testing.T) {
	p := NewDirect("jansson", version.MustParse("2.4"), env.New(""), nil, nil)
	err := p.Install(rt.Context{})
	require.Error(t, err)
}
