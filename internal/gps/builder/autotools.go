package builder

import (
	"fmt"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
)

// Autotools builds a package with `autoreconf`/`configure`/`make`
// (spec §4.8). It depends on autoconf and automake, installed through
// the PDB registry (via ctx.Ensure) if the env doesn't already have
// them staged.
type Autotools struct{}

func (*Autotools) BuildNeeded(rt.Context) (bool, error) { return true, nil }
func (*Autotools) TestNeeded(rt.Context) (bool, error)  { return true, nil }
func (*Autotools) StageNeeded(rt.Context) (bool, error) { return true, nil }

func (a *Autotools) Build(ctx rt.Context) error {
	if err := ctx.Ensure("autoconf"); err != nil {
		return err
	}
	if err := ctx.Ensure("automake"); err != nil {
		return err
	}

	sourceDir, _, err := ctx.Env.Path("source_dir", true)
	if err != nil {
		return err
	}
	buildDir, _, err := ctx.Env.Path("build_dir", true)
	if err != nil {
		return err
	}

	if !ctx.OS.FileExists(sourceDir + "/configure") {
		if err := runStep(ctx, []string{"autoreconf", "-i"}, sourceDir, nil); err != nil {
			return err
		}
	}

	configureArgv, err := a.configureArgv(ctx)
	if err != nil {
		return err
	}

	var extra []string
	if pcPath, ok, err := ctx.Env.String("pkgconfig.path", false); err != nil {
		return err
	} else if ok {
		extra = append(extra, "PKG_CONFIG_PATH="+pcPath)
	}

	if err := runStep(ctx, configureArgv, buildDir, extra); err != nil {
		return err
	}
	return runStep(ctx, []string{"make"}, buildDir, nil)
}

func (a *Autotools) configureArgv(ctx rt.Context) ([]string, error) {
	sourceDir, _, err := ctx.Env.Path("source_dir", true)
	if err != nil {
		return nil, err
	}
	argv := []string{sourceDir + "/configure"}
	for _, pair := range []struct{ flag, key string }{
		{"--prefix", "prefix"},
		{"--exec-prefix", "exec_prefix"},
		{"--bindir", "bin_dir"},
		{"--sbindir", "sbin_dir"},
		{"--libdir", "lib_dir"},
		{"--libexecdir", "libexec_dir"},
		{"--datadir", "share_dir"},
		{"--mandir", "man_dir"},
	} {
		v, ok, err := ctx.Env.Path(pair.key, true)
		if err != nil {
			return nil, err
		}
		if ok {
			argv = append(argv, fmt.Sprintf("%s=%s", pair.flag, v))
		}
	}

	extraArgs, ok, err := ctx.Env.GetValue("autotools.configure.args")
	if err != nil {
		return nil, err
	}
	if ok {
		args, err := renderConfigureArgs(ctx, extraArgs)
		if err != nil {
			return nil, err
		}
		argv = append(argv, args...)
	}
	return argv, nil
}

// renderConfigureArgs accepts a Scalar or Array value for
// autotools.configure.args; a Map is rejected, per spec §4.8.
func renderConfigureArgs(ctx rt.Context, v value.Value) ([]string, error) {
	switch t := v.(type) {
	case value.Scalar:
		s, err := t.Get(ctx.Env)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	case value.Array:
		var out []string
		for i := 0; i < t.Count(); i++ {
			elem := t.Get(i)
			s, ok := elem.(value.Scalar)
			if !ok {
				return nil, badConfigArrayElem()
			}
			rendered, err := s.Get(ctx.Env)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
		return out, nil
	default:
		return nil, badConfigArrayElem()
	}
}

func badConfigArrayElem() error {
	return errs.New(errs.BadConfig, "autotools.configure.args must be a scalar or an array of scalars, not a map")
}

func (a *Autotools) Test(ctx rt.Context) error {
	buildDir, _, err := ctx.Env.Path("build_dir", true)
	if err != nil {
		return err
	}
	return runStep(ctx, []string{"make", "check"}, buildDir, nil)
}

func (a *Autotools) Stage(ctx rt.Context) error {
	buildDir, _, err := ctx.Env.Path("build_dir", true)
	if err != nil {
		return err
	}
	stagingDir, _, err := ctx.Env.Path("staging_dir", true)
	if err != nil {
		return err
	}
	return runStep(ctx, []string{"make", "install"}, buildDir, []string{"DESTDIR=" + stagingDir})
}
