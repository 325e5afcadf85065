package value

import (
	"path/filepath"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
)

// stringValue is a literal scalar: its Get never consults ctx.
type stringValue struct {
	base
	text string
}

// NewString returns a Scalar that always evaluates to s verbatim.
func NewString(s string) Scalar {
	return &stringValue{text: s}
}

func (*stringValue) isValue()      {}
func (*stringValue) Kind() Kind    { return ScalarKind }
func (v *stringValue) Get(Context) (string, error) {
	return v.text, nil
}

// pathValue is a scalar that joins its text onto BasePath when the
// text is relative, per spec §3's path-valued scalars.
type pathValue struct {
	base
	text string
}

// NewPath returns a Scalar that resolves a relative path against its
// BasePath (set via SetBasePath) at evaluation time.
func NewPath(s string) Scalar {
	return &pathValue{text: s}
}

func (*pathValue) isValue()   {}
func (*pathValue) Kind() Kind { return ScalarKind }
func (v *pathValue) Get(Context) (string, error) {
	if filepath.IsAbs(v.text) || v.basePath == "" {
		return v.text, nil
	}
	return filepath.Join(v.basePath, v.text), nil
}

// interpTok is one token of a parsed interpolation template.
type interpTok struct {
	literal string // used when varName == ""
	varName string
}

// interpolatedValue is a scalar containing "${name}" references that
// are resolved against a Context at Get time, per spec §4.3. "$$" is
// the escape for a literal '$'.
type interpolatedValue struct {
	base
	toks []interpTok
}

// NewInterpolated parses template and returns a Scalar that expands
// "${name}" references against its Context at Get time. "$$" renders
// as a literal "$"; any other use of '$' (not followed by '{' or '$')
// is a BadConfig error.
func NewInterpolated(template string) (Scalar, error) {
	toks, err := parseTemplate(template)
	if err != nil {
		return nil, err
	}
	return &interpolatedValue{toks: toks}, nil
}

func parseTemplate(s string) ([]interpTok, error) {
	var toks []interpTok
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			toks = append(toks, interpTok{literal: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(s) {
		c := s[i]
		if c != '$' {
			lit.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return nil, errs.New(errs.BadConfig, "invalid interpolation %q: trailing '$'", s)
		}
		switch s[i+1] {
		case '$':
			lit.WriteByte('$')
			i += 2
		case '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, errs.New(errs.BadConfig, "invalid interpolation %q: unterminated '${'", s)
			}
			name := s[i+2 : i+2+end]
			if name == "" {
				return nil, errs.New(errs.BadConfig, "invalid interpolation %q: empty variable name", s)
			}
			flush()
			toks = append(toks, interpTok{varName: name})
			i += 2 + end + 1
		default:
			return nil, errs.New(errs.BadConfig, "invalid interpolation %q: bare '$' must be followed by '$' or '{'", s)
		}
	}
	flush()
	return toks, nil
}

func (*interpolatedValue) isValue()   {}
func (*interpolatedValue) Kind() Kind { return ScalarKind }

func (v *interpolatedValue) Get(ctx Context) (string, error) {
	var b strings.Builder
	for _, t := range v.toks {
		if t.varName == "" {
			b.WriteString(t.literal)
			continue
		}
		if ctx == nil {
			return "", errs.New(errs.BadConfig,
				"cannot resolve ${%s}: no context available", t.varName)
		}
		val, ok, err := ctx.Get(t.varName)
		if err != nil {
			return "", errs.Wrap(err, errs.BadConfig, "resolving ${%s}", t.varName)
		}
		if !ok {
			return "", errs.New(errs.BadConfig, "undefined variable %q", t.varName)
		}
		b.WriteString(val)
	}
	return b.String(), nil
}
