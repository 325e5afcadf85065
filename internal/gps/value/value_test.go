package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCtx map[string]string

func (c fixedCtx) Get(name string) (string, bool, error) {
	v, ok := c[name]
	return v, ok, nil
}

func TestStringValue(t *testing.T) {
	v := NewString("hello")
	got, err := v.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestPathValueRelative(t *testing.T) {
	v := NewPath("sub/dir")
	v.SetBasePath("/root")
	got, err := v.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, "/root/sub/dir", got)
}

func TestPathValueAbsolute(t *testing.T) {
	v := NewPath("/abs/path")
	v.SetBasePath("/root")
	got, err := v.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}

func TestInterpolatedSimple(t *testing.T) {
	v, err := NewInterpolated("prefix-${name}-suffix")
	require.NoError(t, err)
	got, err := v.Get(fixedCtx{"name": "foo"})
	require.NoError(t, err)
	assert.Equal(t, "prefix-foo-suffix", got)
}

func TestInterpolatedEscapedDollar(t *testing.T) {
	v, err := NewInterpolated("cost: $$5")
	require.NoError(t, err)
	got, err := v.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, "cost: $5", got)
}

func TestInterpolatedUndefinedVariable(t *testing.T) {
	v, err := NewInterpolated("${missing}")
	require.NoError(t, err)
	_, err = v.Get(fixedCtx{})
	require.Error(t, err)
}

func TestInterpolatedBareDollarIsError(t *testing.T) {
	_, err := NewInterpolated("$bad")
	require.Error(t, err)
}

func TestArray(t *testing.T) {
	a := NewArray(NewString("x"), NewString("y"))
	assert.Equal(t, 2, a.Count())
	s := a.Get(0).(Scalar)
	got, err := s.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
	assert.Nil(t, a.Get(5))
}

func TestMapAddAndGet(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.Add("a", NewString("1"), true))
	require.NoError(t, m.Add("b", NewString("2"), true))
	v, ok := m.Get("a")
	require.True(t, ok)
	s := v.(Scalar)
	got, _ := s.Get(nil)
	assert.Equal(t, "1", got)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestMapAddNoOverwrite(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.Add("a", NewString("1"), true))
	require.NoError(t, m.Add("a", NewString("2"), false))
	v, _ := m.Get("a")
	got, _ := v.(Scalar).Get(nil)
	assert.Equal(t, "1", got)
}

func TestGetNested(t *testing.T) {
	inner := NewMap()
	_ = inner.Add("leaf", NewString("deep"), true)
	outer := NewMap()
	_ = outer.Add("branch", inner, true)

	v, ok, err := GetNested(outer, "branch.leaf")
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := v.(Scalar).Get(nil)
	assert.Equal(t, "deep", got)

	_, ok, err = GetNested(outer, "branch.missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetNestedCreatesIntermediateMaps(t *testing.T) {
	root := NewMap()
	require.NoError(t, SetNested(root, "a.b.c", NewString("v"), true))
	v, ok, err := GetNested(root, "a.b.c")
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := v.(Scalar).Get(nil)
	assert.Equal(t, "v", got)
}

func TestUnionMapReadThrough(t *testing.T) {
	primary := NewMap()
	_ = primary.Add("only-primary", NewString("p"), true)
	backup := NewMap()
	_ = backup.Add("only-backup", NewString("b"), true)
	_ = backup.Add("only-primary", NewString("shadowed"), true)

	u := NewUnionMap(primary, backup)
	v, ok := u.Get("only-primary")
	require.True(t, ok)
	got, _ := v.(Scalar).Get(nil)
	assert.Equal(t, "p", got)

	v, ok = u.Get("only-backup")
	require.True(t, ok)
	got, _ = v.(Scalar).Get(nil)
	assert.Equal(t, "b", got)

	_, ok = u.Get("missing")
	assert.False(t, ok)
}

func TestUnionMapNestsMaps(t *testing.T) {
	primaryInner := NewMap()
	_ = primaryInner.Add("x", NewString("from-primary"), true)
	primary := NewMap()
	_ = primary.Add("nested", primaryInner, true)

	backupInner := NewMap()
	_ = backupInner.Add("y", NewString("from-backup"), true)
	backup := NewMap()
	_ = backup.Add("nested", backupInner, true)

	u := NewUnionMap(primary, backup)
	nested, ok := u.Get("nested")
	require.True(t, ok)
	nm := nested.(Map)

	v, ok := nm.Get("x")
	require.True(t, ok)
	got, _ := v.(Scalar).Get(nil)
	assert.Equal(t, "from-primary", got)

	v, ok = nm.Get("y")
	require.True(t, ok)
	got, _ = v.(Scalar).Get(nil)
	assert.Equal(t, "from-backup", got)
}

func TestUnionMapAddIsRejected(t *testing.T) {
	u := NewUnionMap(NewMap())
	err := u.Add("k", NewString("v"), true)
	require.Error(t, err)
}
