package version

import (
	"strconv"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
)

// Pacman is the pacman/makepkg view of a version: a version string
// plus a separate integer pkgrel, mirroring PKGBUILD's `pkgver` and
// `pkgrel` fields and the output of `pacman -Q`/`pacman -Sdp`.
type Pacman struct {
	Version string
	Release string // pkgrel; "1" if Buzzy's version had no trailing +revN
}

// ToPacman renders v into the pacman dialect (spec §4.1). A trailing
// "+revN" part becomes the pacman release "N" (and "+rev1" is dropped,
// defaulting the release to "1").
func ToPacman(v Version) Pacman {
	parts := nonFinalParts(v)
	var b strings.Builder
	release := "1"

	for i, p := range parts {
		switch p.Kind {
		case Release:
			if i > 0 && parts[i-1].Kind == Release {
				b.WriteString(".")
			}
			b.WriteString(p.Text)
		case Prerelease:
			if isDigitStart(p.Text) {
				b.WriteString("pre")
			}
			b.WriteString(p.Text)
		case Postrelease:
			if i == len(parts)-1 {
				if n, ok := revTag(p.Text); ok {
					release = n
					continue
				}
			}
			if isDigitStart(p.Text) {
				b.WriteString(".post")
			} else {
				b.WriteString(".")
			}
			b.WriteString(p.Text)
		}
	}
	return Pacman{Version: b.String(), Release: release}
}

// FromPacman reconstructs a Buzzy Version from a pacman version plus
// release field. Round-trips whatever ToPacman produces.
func FromPacman(p Pacman) (Version, error) {
	var b strings.Builder
	b.WriteString(p.Version)
	if p.Release != "" && p.Release != "1" {
		b.WriteString("+rev")
		b.WriteString(p.Release)
	}
	return parseNativeRendering(rewritePacmanDialect(b.String()))
}

// rewritePacmanDialect turns pacman-dialect separators ("preX",
// ".postX", a bare "." before a postrelease string) back into Buzzy's
// '~'/'+' separators so the result can go through the ordinary parser.
// Because pacman doesn't mark prerelease/postrelease boundaries
// explicitly, this only handles the exact shapes ToPacman emits.
func rewritePacmanDialect(s string) string {
	if i := strings.Index(s, "pre"); i > 0 && isAllDotsAndDigits(s[:i]) {
		return s[:i] + "~" + s[i+3:]
	}
	if i := strings.Index(s, ".post"); i >= 0 {
		return s[:i] + "+" + s[i+5:]
	}
	if i := strings.Index(s, "+rev"); i >= 0 {
		return s
	}
	return s
}

func isAllDotsAndDigits(s string) bool {
	for _, c := range s {
		if c != '.' && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Debian is the dpkg view of a version: an optional epoch, an
// upstream version, spliced into dpkg's `[epoch:]version[-revision]`
// shape by ToDebian/FromDebian.
type Debian struct {
	Epoch   string // "" if absent
	Version string
}

// ToDebian renders v into the Debian dialect (spec §4.1): '~' is
// preserved as-is, a trailing "+revN" becomes "-N", and any other
// POSTRELEASE token is prefixed with '+'. A non-empty epoch is
// rendered as the standard Debian "N:" prefix.
func ToDebian(v Version, epoch string) Debian {
	parts := nonFinalParts(v)
	var b strings.Builder
	for i, p := range parts {
		switch p.Kind {
		case Release:
			if i > 0 && parts[i-1].Kind == Release {
				b.WriteString(".")
			}
			b.WriteString(p.Text)
		case Prerelease:
			b.WriteString("~")
			b.WriteString(p.Text)
		case Postrelease:
			if i == len(parts)-1 {
				if n, ok := revTag(p.Text); ok {
					b.WriteString("-")
					b.WriteString(n)
					continue
				}
			}
			b.WriteString("+")
			b.WriteString(p.Text)
		}
	}
	return Debian{Epoch: epoch, Version: b.String()}
}

// FromDebian parses a Debian version string (optionally epoch-prefixed
// as "N:version"), trying "our dialect" first (the one ToDebian emits)
// and falling back to a more permissive parse of any well-formed
// Debian version, per spec §7(iii). Returns the version and the epoch,
// if one was present.
func FromDebian(s string) (Version, string, error) {
	epoch := ""
	rest := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		epoch = s[:i]
		rest = s[i+1:]
	}

	if v, err := parseDebianBuzzy(rest); err == nil {
		return v, epoch, nil
	}
	v, err := parseDebianGeneric(rest)
	return v, epoch, err
}

func parseDebianBuzzy(s string) (Version, error) {
	rewritten := s
	if i := strings.LastIndexByte(rewritten, '-'); i > 0 {
		rewritten = rewritten[:i] + "+rev" + rewritten[i+1:]
	}
	return parseNativeRendering(rewritten)
}

// parseDebianGeneric accepts any syntactically valid Debian version
// (upstream[-revision]) even if it does not exactly match the shape
// ToDebian produces, translating '-' to a POSTRELEASE "rev" tag and
// leaving '~'/'+' as Buzzy separators directly (Debian already uses
// '~' for prerelease the same way Buzzy does).
func parseDebianGeneric(s string) (Version, error) {
	rewritten := s
	if i := strings.LastIndexByte(rewritten, '-'); i >= 0 {
		rewritten = rewritten[:i] + "+rev" + rewritten[i+1:]
	}
	return Parse(rewritten)
}

// RPM is the rpm view of a version: a Version field (which cannot
// express prereleases) and a Release field that encodes Buzzy's
// pre/post-release structure using "0."/"1."/"2." segment prefixes so
// that RPM's native ordering matches Buzzy's (spec §4.1).
type RPM struct {
	Version string
	Release string
}

// ToRPM renders v into the RPM dialect.
func ToRPM(v Version) RPM {
	parts := nonFinalParts(v)

	// Find the first non-RELEASE part; everything up to there is the
	// Version field, everything from there on is the Release field.
	split := len(parts)
	for i, p := range parts {
		if p.Kind != Release {
			split = i
			break
		}
	}

	var ver strings.Builder
	for i := 0; i < split; i++ {
		if i > 0 {
			ver.WriteString(".")
		}
		ver.WriteString(parts[i].Text)
	}

	var rel strings.Builder
	if split == len(parts) {
		rel.WriteString("1")
	} else {
		seenPost := false
		for i := split; i < len(parts); i++ {
			p := parts[i]
			switch p.Kind {
			case Prerelease:
				rel.WriteString("0.")
				rel.WriteString(p.Text)
				rel.WriteString(".")
			case Release:
				prefix := "1."
				if seenPost {
					prefix = "2."
				}
				rel.WriteString(prefix)
				rel.WriteString(p.Text)
				rel.WriteString(".")
			case Postrelease:
				seenPost = true
				rel.WriteString("2.")
				rel.WriteString(p.Text)
				rel.WriteString(".")
			}
		}
		rel.WriteString("1")
	}
	return RPM{Version: ver.String(), Release: rel.String()}
}

// FromRPM reconstructs a Buzzy Version from an RPM Version+Release
// pair produced by ToRPM.
func FromRPM(r RPM) (Version, error) {
	var b strings.Builder
	b.WriteString(r.Version)

	rel := strings.TrimSuffix(r.Release, ".1")
	if rel == "1" || rel == "" {
		return parseNativeRendering(b.String())
	}
	segs := strings.Split(rel, ".")
	for i := 0; i+1 < len(segs); i += 2 {
		tag, val := segs[i], segs[i+1]
		switch tag {
		case "0":
			b.WriteString("~")
			b.WriteString(val)
		case "1":
			b.WriteString(".")
			b.WriteString(val)
		case "2":
			b.WriteString("+")
			b.WriteString(val)
		default:
			return Version{}, errs.New(errs.InvalidVersion,
				"invalid RPM release segment %q in %q", tag, r.Release)
		}
	}
	return parseNativeRendering(b.String())
}

// FromGitDescribe parses the output of `git describe --tags --dirty`,
// translating it to Buzzy's grammar: "<tag>-<n>-g<hash>" becomes
// "<tag>+<n>+git<hash>", and a trailing "-dirty" is appended to the
// rendered string, where it becomes part of the text of the last
// POSTRELEASE part ("git<hash>-dirty"). Tag-name prefixes consisting of letters, a leading "v",
// or "pkgname-" are stripped before parsing the tag as a Version.
func FromGitDescribe(describe, pkgName string) (Version, error) {
	s := describe
	dirty := false
	if strings.HasSuffix(s, "-dirty") {
		dirty = true
		s = strings.TrimSuffix(s, "-dirty")
	}

	// Expect "<tag>-<n>-g<hash>".
	hashIdx := strings.LastIndex(s, "-g")
	if hashIdx < 0 {
		return Version{}, errs.New(errs.InvalidVersion,
			"invalid git describe output %q", describe)
	}
	hash := s[hashIdx+2:]
	rest := s[:hashIdx]

	countIdx := strings.LastIndexByte(rest, '-')
	if countIdx < 0 {
		return Version{}, errs.New(errs.InvalidVersion,
			"invalid git describe output %q", describe)
	}
	tag := rest[:countIdx]
	count := rest[countIdx+1:]
	if _, err := strconv.Atoi(count); err != nil {
		return Version{}, errs.New(errs.InvalidVersion,
			"invalid git describe commit count %q in %q", count, describe)
	}

	tag = stripTagPrefix(tag, pkgName)
	core, qualifier := splitTagQualifier(tag)

	var rendered string
	if qualifier != "" {
		rendered = core + "+" + qualifier + count + "+git" + hash
	} else {
		rendered = core + "+" + count + "+git" + hash
	}
	if dirty {
		rendered += "-dirty"
	}
	return Parse(rendered)
}

// splitTagQualifier splits a trailing, purely-alphabetic "-qualifier"
// segment off of a tag (e.g. "1.0-dev" -> "1.0", "dev"), since git tag
// names conventionally use '-' where Buzzy versions would use '~' or
// '+'. A trailing segment containing any digit is left as part of the
// core version instead, since it isn't a qualifier.
func splitTagQualifier(tag string) (core, qualifier string) {
	i := strings.LastIndexByte(tag, '-')
	if i < 0 || i == len(tag)-1 {
		return tag, ""
	}
	suffix := tag[i+1:]
	for _, c := range suffix {
		if c < 'a' || c > 'z' {
			if c < 'A' || c > 'Z' {
				return tag, ""
			}
		}
	}
	return tag[:i], suffix
}

func stripTagPrefix(tag, pkgName string) string {
	if pkgName != "" && strings.HasPrefix(tag, pkgName+"-") {
		return strings.TrimPrefix(tag, pkgName+"-")
	}
	t := strings.TrimPrefix(tag, "v")
	i := 0
	for i < len(t) && ((t[i] >= 'a' && t[i] <= 'z') || (t[i] >= 'A' && t[i] <= 'Z') || t[i] == '-') {
		i++
	}
	// Only strip a pure-letter/'-' prefix if something numeric follows;
	// otherwise leave the tag alone (it was already the version).
	if i > 0 && i < len(t) {
		return t[i:]
	}
	return t
}

func nonFinalParts(v Version) []Part {
	parts := v.Parts()
	if len(parts) > 0 && parts[len(parts)-1].Kind == Final {
		return parts[:len(parts)-1]
	}
	return parts
}

func isDigitStart(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

// revTag recognizes a POSTRELEASE token of the form "revN" (all
// digits after the "rev" prefix) used as the trailing +revN tag that
// both pacman and Debian fold into their native release field.
func revTag(s string) (string, bool) {
	if len(s) <= 3 || !strings.HasPrefix(s, "rev") {
		return "", false
	}
	digits := s[3:]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return digits, true
}

// parseNativeRendering parses a string that was built by one of the
// To* functions above using '.'/'~'/'+' Buzzy separators directly.
func parseNativeRendering(s string) (Version, error) {
	return Parse(s)
}
