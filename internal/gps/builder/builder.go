// Package builder implements Buzzy's build strategies (spec §4.8):
// autotools, cmake, and noop, each wrapped by an Orchestrator that
// latches every call and chains test/stage through build.
package builder

import (
	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
)

// Strategy is what a concrete builder (autotools, cmake, noop)
// implements; Orchestrator supplies the latching and chaining spec
// §4.8 describes on top of it.
type Strategy interface {
	BuildNeeded(ctx rt.Context) (bool, error)
	Build(ctx rt.Context) error
	TestNeeded(ctx rt.Context) (bool, error)
	Test(ctx rt.Context) error
	StageNeeded(ctx rt.Context) (bool, error)
	Stage(ctx rt.Context) error
}

// Orchestrator wraps a Strategy with the process-lifetime latch and
// the test⇒build / stage⇒build chaining spec §4.8 requires. It
// satisfies pkgmodel's Builder interface structurally.
type Orchestrator struct {
	strategy Strategy
	built    bool
	tested   bool
	staged   bool
}

// New wraps strategy in an Orchestrator.
func New(strategy Strategy) *Orchestrator {
	return &Orchestrator{strategy: strategy}
}

// Build runs the build step at most once per process lifetime.
func (o *Orchestrator) Build(ctx rt.Context) error {
	if o.built {
		return nil
	}
	o.built = true
	needed, err := o.strategy.BuildNeeded(ctx)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}
	return o.strategy.Build(ctx)
}

// Test builds first (if needed), then runs the test step at most once.
func (o *Orchestrator) Test(ctx rt.Context) error {
	if o.tested {
		return nil
	}
	o.tested = true
	if err := o.Build(ctx); err != nil {
		return err
	}
	needed, err := o.strategy.TestNeeded(ctx)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}
	return o.strategy.Test(ctx)
}

// Stage builds first (if needed), then stages at most once.
func (o *Orchestrator) Stage(ctx rt.Context) error {
	if o.staged {
		return nil
	}
	o.staged = true
	if err := o.Build(ctx); err != nil {
		return err
	}
	needed, err := o.strategy.StageNeeded(ctx)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}
	return o.strategy.Stage(ctx)
}

// Detect is the builder auto-detector scalar of spec §4.8: "cmake" if
// CMakeLists.txt exists under source_dir, else "autotools" if
// configure.ac exists, else BadConfig.
func Detect(ctx rt.Context) (string, error) {
	sourceDir, _, err := ctx.Env.Path("source_dir", true)
	if err != nil {
		return "", err
	}
	if ctx.OS.FileExists(sourceDir + "/CMakeLists.txt") {
		return "cmake", nil
	}
	if ctx.OS.FileExists(sourceDir + "/configure.ac") {
		return "autotools", nil
	}
	return "", errs.New(errs.BadConfig, "cannot detect a builder for %q: no CMakeLists.txt or configure.ac", sourceDir)
}

// New builders for the names Detect (and the env's `builder` key) can
// produce, plus "noop".
func ForName(name string) (Strategy, error) {
	switch name {
	case "autotools":
		return &Autotools{}, nil
	case "cmake":
		return &CMake{}, nil
	case "noop":
		return &Noop{}, nil
	default:
		return nil, errs.New(errs.BadConfig, "unknown builder %q", name)
	}
}

func runStep(ctx rt.Context, argv []string, dir string, extra []string) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: argv, Dir: dir, Extra: extra}, nil, nil, nil)
}
