// Package dependency implements Buzzy's dependency predicate: a
// package name plus an optional minimum version (spec §3, §4.2).
package dependency

import (
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// Dependency is immutable after construction, per spec §3.
type Dependency struct {
	name string
	min  *version.Version
}

// New constructs a Dependency directly, without parsing.
func New(name string, min *version.Version) Dependency {
	return Dependency{name: name, min: min}
}

// Name returns the dependency's package name.
func (d Dependency) Name() string {
	return d.name
}

// MinVersion returns the minimum acceptable version, or nil if the
// dependency has no version floor.
func (d Dependency) MinVersion() *version.Version {
	return d.min
}

// Satisfies reports whether v meets this dependency's version floor
// (trivially true if there is no floor).
func (d Dependency) Satisfies(v version.Version) (bool, error) {
	if d.min == nil {
		return true, nil
	}
	return version.AtLeast(v, *d.min)
}

func isNameByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') || c == '_' || c == '-'
}

// Parse parses "NAME ( WS* '>=' WS* VERSION )?" per spec §4.2, where
// NAME matches [A-Za-z0-9_-]+. Any deviation fails with
// InvalidDependency.
func Parse(s string) (Dependency, error) {
	i := 0
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	if i == 0 {
		return Dependency{}, errs.New(errs.InvalidDependency, "invalid dependency %q: missing package name", s)
	}
	name := s[:i]
	rest := strings.TrimLeft(s[i:], " \t")
	if rest == "" {
		return Dependency{name: name}, nil
	}
	if !strings.HasPrefix(rest, ">=") {
		return Dependency{}, errs.New(errs.InvalidDependency, "invalid dependency %q: expected '>=' after package name", s)
	}
	rest = strings.TrimLeft(rest[2:], " \t")
	if rest == "" {
		return Dependency{}, errs.New(errs.InvalidDependency, "invalid dependency %q: missing version after '>='", s)
	}
	v, err := version.Parse(rest)
	if err != nil {
		return Dependency{}, errs.Wrap(err, errs.InvalidDependency, "invalid dependency %q", s)
	}
	return Dependency{name: name, min: &v}, nil
}

// MustParse parses s, panicking on error. Intended for tests.
func MustParse(s string) Dependency {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the canonical form "name" or "name >= v".
func (d Dependency) String() string {
	if d.min == nil {
		return d.name
	}
	return d.name + " >= " + d.min.String()
}
