package builder

import (
	"fmt"

	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
)

// CMake builds a package with `cmake`/`cmake --build` (spec §4.8). It
// depends on cmake, installed through the PDB registry if missing.
type CMake struct{}

func (*CMake) BuildNeeded(rt.Context) (bool, error) { return true, nil }
func (*CMake) TestNeeded(rt.Context) (bool, error)  { return true, nil }
func (*CMake) StageNeeded(rt.Context) (bool, error) { return true, nil }

func (c *CMake) Build(ctx rt.Context) error {
	if err := ctx.Ensure("cmake"); err != nil {
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
	prefix, _, err := ctx.Env.Path("prefix", true)
	if err != nil {
		return err
	}
	libDir, _, err := ctx.Env.Path("lib_dir", true)
	if err != nil {
		return err
	}
	buildType, _, err := ctx.Env.String("build_type", true)
	if err != nil {
		return err
	}

	configureArgv := []string{
		"cmake", sourceDir,
		fmt.Sprintf("-DCMAKE_INSTALL_PREFIX=%s", prefix),
		fmt.Sprintf("-DCMAKE_INSTALL_LIBDIR=%s", libDir),
		fmt.Sprintf("-DCMAKE_BUILD_TYPE=%s", buildType),
	}
	if err := runStep(ctx, configureArgv, buildDir, nil); err != nil {
		return err
	}
	return runStep(ctx, []string{"cmake", "--build", buildDir}, buildDir, nil)
}

func (c *CMake) Test(ctx rt.Context) error {
	buildDir, _, err := ctx.Env.Path("build_dir", true)
	if err != nil {
		return err
	}
	return runStep(ctx, []string{"cmake", "--build", buildDir, "--target", "test"}, buildDir, nil)
}

func (c *CMake) Stage(ctx rt.Context) error {
	buildDir, _, err := ctx.Env.Path("build_dir", true)
	if err != nil {
		return err
	}
	stagingDir, _, err := ctx.Env.Path("staging_dir", true)
	if err != nil {
		return err
	}
	return runStep(ctx, []string{"cmake", "--build", buildDir, "--target", "install"}, buildDir, []string{"DESTDIR=" + stagingDir})
}
