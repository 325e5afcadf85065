package packager

import "github.com/dcreager/buzzy-sub000/internal/gps/rt"

// Noop performs no packaging and no install/uninstall action, mirroring
// builder.Noop (spec §4.9).
type Noop struct{}

func (*Noop) PackageNeeded(rt.Context) (bool, error)   { return false, nil }
func (*Noop) Package(rt.Context) error                 { return nil }
func (*Noop) InstallNeeded(rt.Context) (bool, error)   { return false, nil }
func (*Noop) Install(rt.Context) error                 { return nil }
func (*Noop) UninstallNeeded(rt.Context) (bool, error) { return false, nil }
func (*Noop) Uninstall(rt.Context) error               { return nil }
