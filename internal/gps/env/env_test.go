package env

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapOf(kv ...string) value.Map {
	m := value.NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		_ = m.Add(kv[i], value.NewString(kv[i+1]), true)
	}
	return m
}

func TestLookupOrderOverridesWinOverPrimary(t *testing.T) {
	e := New("")
	e.AddPrimary(mapOf("k", "primary"))
	e.AddOverride(mapOf("k", "override"))
	v, ok, err := e.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "override", v)
}

func TestLookupOrderPrimaryWinsOverBackup(t *testing.T) {
	e := New("")
	e.AddBackup(mapOf("k", "backup"))
	e.AddPrimary(mapOf("k", "primary"))
	v, ok, err := e.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "primary", v)
}

func TestLookupOrderBackupOverrideIsLast(t *testing.T) {
	e := New("")
	e.AddBackupOverride(mapOf("k", "backup-override"))
	e.AddBackup(mapOf("k", "backup"))
	v, ok, err := e.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "backup", v)

	e2 := New("")
	e2.AddBackupOverride(mapOf("k", "backup-override"))
	v, ok, err = e2.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "backup-override", v)
}

func TestGetMissingReturnsNotOk(t *testing.T) {
	e := New("")
	_, ok, err := e.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGlobalDefaultsAttachedAsLastBackup(t *testing.T) {
	ResetDefaults()
	defer ResetDefaults()
	RegisterDefault("greeting", "hello", "short", "long")

	e := New("")
	v, ok, err := e.Get("greeting")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	e.AddPrimary(mapOf("greeting", "overridden"))
	v, ok, err = e.Get("greeting")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "overridden", v)
}

func TestTypedAccessors(t *testing.T) {
	e := New("/base")
	e.AddPrimary(mapOf(
		"flag", "yes",
		"count", "0x10",
		"name", "widget",
		"ver", "1.2.3",
	))
	pm := value.NewMap()
	_ = pm.Add("rel", value.NewString("sub/path"), true)
	e.AddPrimary(pm)

	b, ok, err := e.Bool("flag", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, b)

	n, ok, err := e.Long("count", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(16), n)

	s, ok, err := e.String("name", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "widget", s)

	v, ok, err := e.Version("ver", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", v.String())

	p, ok, err := e.Path("rel", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/base/sub/path", p)
}

func TestRequiredMissingErrors(t *testing.T) {
	e := New("")
	_, _, err := e.String("missing", true)
	require.Error(t, err)

	s, ok, err := e.String("missing", false)
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, "", s)
}

func TestInvalidBool(t *testing.T) {
	e := New("")
	e.AddPrimary(mapOf("flag", "maybe"))
	_, _, err := e.Bool("flag", true)
	require.Error(t, err)
}

func TestNestedMapMerge(t *testing.T) {
	e := New("")
	inner1 := value.NewMap()
	_ = inner1.Add("a", value.NewString("from-primary"), true)
	outer1 := value.NewMap()
	_ = outer1.Add("group", inner1, true)
	e.AddPrimary(outer1)

	inner2 := value.NewMap()
	_ = inner2.Add("b", value.NewString("from-backup"), true)
	outer2 := value.NewMap()
	_ = outer2.Add("group", inner2, true)
	e.AddBackup(outer2)

	v, ok, err := e.Get("group.a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-primary", v)

	v, ok, err = e.Get("group.b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-backup", v)
}

func TestConflictingMapAndScalarIsError(t *testing.T) {
	e := New("")
	e.AddPrimary(mapOf("k", "scalar"))
	inner := value.NewMap()
	_ = inner.Add("x", value.NewString("y"), true)
	m := value.NewMap()
	_ = m.Add("k", inner, true)
	e.AddBackup(m)

	_, _, err := e.Get("k")
	require.Error(t, err)
}

func TestInterpolationAgainstEnvContext(t *testing.T) {
	e := New("")
	e.AddPrimary(mapOf("name", "buzzy"))
	scalar, err := value.NewInterpolated("hello ${name}")
	require.NoError(t, err)
	got, err := scalar.Get(e)
	require.NoError(t, err)
	assert.Equal(t, "hello buzzy", got)
}

func TestEnvAsValueNesting(t *testing.T) {
	inner := New("")
	inner.AddPrimary(mapOf("city", "nowhere"))

	outer := New("")
	m := value.NewMap()
	_ = m.Add("inner", inner.AsValue(), true)
	outer.AddPrimary(m)

	v, ok, err := outer.Get("inner.city")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "nowhere", v)
}

func TestAsValueKeysMatchPrimaryLayer(t *testing.T) {
	e := New("")
	e.AddPrimary(mapOf("a", "1", "b", "2"))

	m := e.AsValue()
	keys := m.Keys()
	if !assert.ElementsMatch(t, []string{"a", "b"}, keys) {
		t.Logf("env contents:\n%s", spew.Sdump(e))
	}
}
