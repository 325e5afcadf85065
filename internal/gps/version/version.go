// Package version implements Buzzy's distribution-neutral version
// grammar: parsing, total ordering, and string rendering (spec §3,
// §4.1). Native (pacman/Debian/RPM/git-describe) conversions live in
// native.go.
//
// The design mirrors github.com/Masterminds/semver's split between a
// parsed representation and a constraint/ordering layer (the teacher,
// golang-dep, vendors that library for exactly this purpose), adapted
// to Buzzy's four-kind part grammar instead of semver's three dotted
// integers plus pre-release/build metadata.
package version

import (
	"strings"

	"github.com/Masterminds/semver"
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
)

// PartKind classifies a single component of a Version. The numeric
// values are significant: they define the cross-kind ordering from
// spec §4.1 (PRERELEASE < FINAL < POSTRELEASE < RELEASE).
type PartKind int

const (
	Prerelease PartKind = iota
	Final
	Postrelease
	Release
)

func (k PartKind) String() string {
	switch k {
	case Prerelease:
		return "prerelease"
	case Final:
		return "final"
	case Postrelease:
		return "postrelease"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// Part is one segment of a parsed version: a kind plus its textual
// value. If the textual value is a non-empty run of digits, Integral
// is true and IntValue holds its numeric reading.
type Part struct {
	Kind     PartKind
	Text     string
	Integral bool
	IntValue uint64
}

func (p Part) separator() string {
	switch p.Kind {
	case Release:
		return "."
	case Prerelease:
		return "~"
	case Postrelease:
		return "+"
	default:
		return ""
	}
}

// Version is an ordered sequence of parts, beginning with a RELEASE
// part and terminated by a synthetic FINAL part (spec §3).
type Version struct {
	raw   string
	parts []Part
	cmp   []Part // the elided comparison sequence, see compareParts
}

// Parse parses a version literal per the grammar in spec §4.1:
// alphanumeric runs separated by '.' (RELEASE), '~' (PRERELEASE), and
// '+' (POSTRELEASE), beginning implicitly in RELEASE kind.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, errs.New(errs.InvalidVersion, "invalid version \"\"")
	}

	var parts []Part
	kind := Release
	start := 0
	isInt := true
	var intVal uint64

	flush := func(end int) error {
		if start == end {
			return errs.New(errs.InvalidVersion, "invalid version %q", s)
		}
		text := s[start:end]
		parts = append(parts, Part{
			Kind:     kind,
			Text:     text,
			Integral: isInt,
			IntValue: intVal,
		})
		return nil
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '.':
			if err := flush(i); err != nil {
				return Version{}, err
			}
			kind = Release
			start = i + 1
			isInt = true
			intVal = 0
			continue
		case '~':
			if err := flush(i); err != nil {
				return Version{}, err
			}
			kind = Prerelease
			start = i + 1
			isInt = true
			intVal = 0
			continue
		case '+':
			if err := flush(i); err != nil {
				return Version{}, err
			}
			kind = Postrelease
			start = i + 1
			isInt = true
			intVal = 0
			continue
		}
		if isInt {
			if c >= '0' && c <= '9' {
				intVal = intVal*10 + uint64(c-'0')
			} else {
				isInt = false
				intVal = 0
			}
		}
	}
	if err := flush(len(s)); err != nil {
		return Version{}, err
	}
	parts = append(parts, Part{Kind: Final, Text: "", Integral: false})

	v := Version{raw: s, parts: parts}
	v.cmp = compareParts(parts)
	return v, nil
}

// MustParse parses s, panicking on error. Intended for tests and
// constant version literals.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// compareParts elides any trailing run of zero-valued RELEASE parts
// that is not followed by a non-zero RELEASE part, per spec §3's
// comparison-sequence invariant. It mirrors bz_version_set_compare_parts
// in the original C engine: zero release parts are queued and only
// flushed to the sequence once a non-zero release part is seen; any
// other kind of part (including the FINAL terminator) discards the
// queue before adding itself.
func compareParts(parts []Part) []Part {
	var out []Part
	var pending []Part
	for _, p := range parts {
		if p.Kind == Release {
			if p.Integral && p.IntValue == 0 {
				pending = append(pending, p)
				continue
			}
			out = append(out, pending...)
			pending = nil
			out = append(out, p)
		} else {
			pending = nil
			out = append(out, p)
		}
	}
	return out
}

// String renders the version. If the value was produced by Parse, the
// original literal is returned; otherwise the parts are rendered using
// their separators, matching the grammar they'd parse back into.
func (v Version) String() string {
	if v.raw != "" {
		return v.raw
	}
	var b strings.Builder
	for i, p := range v.parts {
		if p.Kind == Final {
			break
		}
		if i > 0 {
			b.WriteString(p.separator())
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// Parts returns the parsed parts, including the trailing FINAL
// terminator.
func (v Version) Parts() []Part {
	return v.parts
}

// IsZero reports whether v is the zero Version (never produced by
// Parse).
func (v Version) IsZero() bool {
	return v.parts == nil
}

// Compare returns -1, 0, or 1 according to the total order defined in
// spec §4.1: kinds compare first (PRERELEASE < FINAL < POSTRELEASE <
// RELEASE), then same-kind parts compare as integers or bytewise
// strings, and a shorter comparison sequence that is a prefix of a
// longer one compares less. Comparing an integral part against a
// string part of the same kind is an error.
func Compare(a, b Version) (int, error) {
	n := len(a.cmp)
	if len(b.cmp) < n {
		n = len(b.cmp)
	}
	for i := 0; i < n; i++ {
		pa, pb := a.cmp[i], b.cmp[i]
		if pa.Kind != pb.Kind {
			if pa.Kind < pb.Kind {
				return -1, nil
			}
			return 1, nil
		}
		if pa.Integral != pb.Integral {
			return 0, errs.New(errs.InvalidVersion,
				"cannot compare %q to %q: mismatched integral/string %s parts",
				a.String(), b.String(), pa.Kind)
		}
		if pa.Integral {
			switch {
			case pa.IntValue < pb.IntValue:
				return -1, nil
			case pa.IntValue > pb.IntValue:
				return 1, nil
			}
		} else {
			if c := strings.Compare(pa.Text, pb.Text); c != 0 {
				if c < 0 {
					return -1, nil
				}
				return 1, nil
			}
		}
	}
	switch {
	case len(a.cmp) < len(b.cmp):
		return -1, nil
	case len(a.cmp) > len(b.cmp):
		return 1, nil
	default:
		return 0, nil
	}
}

// Less reports whether a sorts before b, per Compare. It panics if the
// two versions cannot be compared (mismatched integral/string parts of
// the same kind) — callers that need the error should call Compare
// directly.
func Less(a, b Version) bool {
	c, err := Compare(a, b)
	if err != nil {
		panic(err)
	}
	return c < 0
}

// AtLeast reports whether v >= min.
func AtLeast(v, min Version) (bool, error) {
	c, err := Compare(v, min)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}

// CompareSemver is the `vercmp --semver` fast-path from spec §4.1's
// open question: when both literals also happen to parse as dotted
// major.minor.patch semver, comparing them through
// github.com/Masterminds/semver (the library the wider Go ecosystem
// already uses for "is this newer" checks) sidesteps Buzzy's own
// PRERELEASE/POSTRELEASE kind ordering entirely, which is the point of
// opting into this mode: callers who know their versions are plain
// semver don't pay for Buzzy's richer, slower-to-reason-about grammar.
func CompareSemver(a, b string) (int, error) {
	sa, err := semver.NewVersion(a)
	if err != nil {
		return 0, errs.New(errs.InvalidVersion, "not a semver version %q: %v", a, err)
	}
	sb, err := semver.NewVersion(b)
	if err != nil {
		return 0, errs.New(errs.InvalidVersion, "not a semver version %q: %v", b, err)
	}
	return sa.Compare(sb), nil
}
