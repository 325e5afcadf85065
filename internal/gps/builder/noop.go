package builder

import "github.com/dcreager/buzzy-sub000/internal/gps/rt"

// Noop performs no build; stage only ensures the staging directory
// exists (spec §4.8). It backs packages that ship pre-built artifacts.
type Noop struct{}

func (*Noop) BuildNeeded(rt.Context) (bool, error) { return false, nil }
func (*Noop) Build(rt.Context) error                { return nil }
func (*Noop) TestNeeded(rt.Context) (bool, error)  { return false, nil }
func (*Noop) Test(rt.Context) error                 { return nil }
func (*Noop) StageNeeded(rt.Context) (bool, error) { return true, nil }

func (*Noop) Stage(ctx rt.Context) error {
	stagingDir, _, err := ctx.Env.Path("staging_dir", true)
	if err != nil {
		return err
	}
	return ctx.OS.CreateDir(stagingDir)
}
