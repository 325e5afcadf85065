package version

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"1.0",
		"2.0.0",
		"2.0~alpha",
		"2.0+dev",
		"1.2.3~rc1+build4",
		"0",
	}
	for _, s := range cases {
		v, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, v.String())
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParseEmptyPart(t *testing.T) {
	_, err := Parse("1..2")
	require.Error(t, err)
}

func TestParsePartSequence(t *testing.T) {
	v, err := Parse("1.2~rc1+build4")
	require.NoError(t, err)

	want := []Part{
		{Kind: Release, Text: "1", Integral: true, IntValue: 1},
		{Kind: Release, Text: "2", Integral: true, IntValue: 2},
		{Kind: Prerelease, Text: "rc1", Integral: false},
		{Kind: Postrelease, Text: "build4", Integral: false},
		{Kind: Final, Text: "", Integral: false},
	}
	if diff := cmp.Diff(want, v.Parts()); diff != "" {
		t.Errorf("unexpected part sequence (-want +got):\n%s", diff)
	}
}

func TestCompareElidesTrailingZeroRelease(t *testing.T) {
	a := MustParse("2.0")
	b := MustParse("2.0.0")
	c, err := Compare(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestCompareKindOrdering(t *testing.T) {
	// 2.0~alpha < 2.0 (PRERELEASE < RELEASE's FINAL successor)
	a := MustParse("2.0~alpha")
	b := MustParse("2.0")
	c, err := Compare(a, b)
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestComparePostreleaseVsRelease(t *testing.T) {
	// 2.0+dev < 2.0.1 per spec scenario 1.
	a := MustParse("2.0+dev")
	b := MustParse("2.0.1")
	c, err := Compare(a, b)
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestCompareMismatchedIntegralIsError(t *testing.T) {
	a := MustParse("1.a")
	b := MustParse("1.2")
	_, err := Compare(a, b)
	require.Error(t, err)
}

func TestCompareShorterPrefixIsLess(t *testing.T) {
	a := MustParse("1.2")
	b := MustParse("1.2.3")
	c, err := Compare(a, b)
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestCompareTotalOrderSample(t *testing.T) {
	ordered := []string{
		"1.0~alpha",
		"1.0~beta",
		"1.0",
		"1.0+dev",
		"1.0+rev2",
		"1.1",
	}
	for i := 0; i < len(ordered)-1; i++ {
		a := MustParse(ordered[i])
		b := MustParse(ordered[i+1])
		c, err := Compare(a, b)
		require.NoErrorf(t, err, "comparing %s to %s", ordered[i], ordered[i+1])
		assert.Equalf(t, -1, c, "expected %s < %s", ordered[i], ordered[i+1])
	}
}

func TestToPacmanDigitPrerelease(t *testing.T) {
	v := MustParse("1.0~1")
	p := ToPacman(v)
	assert.Equal(t, "1.0pre1", p.Version)
	assert.Equal(t, "1", p.Release)

	back, err := FromPacman(p)
	require.NoError(t, err)
	c, err := Compare(v, back)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestToPacmanTrailingRev(t *testing.T) {
	v := MustParse("2.4+rev5")
	p := ToPacman(v)
	assert.Equal(t, "2.4", p.Version)
	assert.Equal(t, "5", p.Release)

	back, err := FromPacman(p)
	require.NoError(t, err)
	c, err := Compare(v, back)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestToPacmanRev1Dropped(t *testing.T) {
	v := MustParse("2.4+rev1")
	p := ToPacman(v)
	assert.Equal(t, "2.4", p.Version)
	assert.Equal(t, "1", p.Release)
}

func TestToDebianPreservesTilde(t *testing.T) {
	v := MustParse("2.5~alpha.1")
	d := ToDebian(v, "")
	assert.Equal(t, "2.5~alpha1", d.Version)

	back, _, err := FromDebian(d.Version)
	require.NoError(t, err)
	c, err := Compare(MustParse("2.5~alpha1"), back)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestToDebianEpoch(t *testing.T) {
	v := MustParse("1.0")
	d := ToDebian(v, "2")
	assert.Equal(t, "2", d.Epoch)
	_, epoch, err := FromDebian("2:1.0")
	require.NoError(t, err)
	assert.Equal(t, "2", epoch)
}

func TestToRPMNoPrerelease(t *testing.T) {
	v := MustParse("2.4")
	r := ToRPM(v)
	assert.Equal(t, "2.4", r.Version)
	assert.Equal(t, "1", r.Release)

	back, err := FromRPM(r)
	require.NoError(t, err)
	c, err := Compare(v, back)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestFromGitDescribe(t *testing.T) {
	v, err := FromGitDescribe("test-pkg-1.0-dev-4-g1a2b3c4", "test-pkg")
	require.NoError(t, err)
	assert.Equal(t, "1.0+dev4+git1a2b3c4", v.String())
}

func TestFromGitDescribeDirty(t *testing.T) {
	v, err := FromGitDescribe("v1.2-3-gabcdef0-dirty", "")
	require.NoError(t, err)
	assert.Equal(t, "1.2+3+gitabcdef0-dirty", v.String())
}

func TestFromGitDescribeInvalid(t *testing.T) {
	_, err := FromGitDescribe("not-a-describe-string", "")
	require.Error(t, err)
}

func TestCompareSemverOrdersByMajorMinorPatch(t *testing.T) {
	c, err := CompareSemver("1.2.3", "1.10.0")
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = CompareSemver("2.0.0", "1.9.9")
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = CompareSemver("1.2.3", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestCompareSemverRejectsNonSemver(t *testing.T) {
	_, err := CompareSemver("1.2~rc1", "1.2.3")
	require.Error(t, err)
}
