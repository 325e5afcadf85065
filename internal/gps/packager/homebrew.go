package packager

import (
	"fmt"

	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// Homebrew "packages" a built package by copying the staging tree
// straight into a Cellar directory (spec §4.9: "nothing" is written as
// metadata, and the distro build tool is a cellar `cp -R`).
type Homebrew struct{}

func (*Homebrew) cellarDir(ctx rt.Context) (string, error) {
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return "", err
	}
	v, _, err := ctx.Env.Version("version", true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/usr/local/Cellar/%s/%s", name, v.String()), nil
}

func (h *Homebrew) PackageNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	dir, err := h.cellarDir(ctx)
	if err != nil {
		return false, err
	}
	return !ctx.OS.FileExists(dir), nil
}

func (h *Homebrew) Package(ctx rt.Context) error {
	staging, err := stagingDir(ctx)
	if err != nil {
		return err
	}
	dir, err := h.cellarDir(ctx)
	if err != nil {
		return err
	}
	if err := ctx.OS.CreateDir(dir); err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"cp", "-R", staging + "/.", dir}}, nil, nil, nil)
}

func (h *Homebrew) InstallNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return false, err
	}
	wanted, _, err := ctx.Env.Version("version", true)
	if err != nil {
		return false, err
	}
	installed, err := brewLinkedVersion(ctx, name)
	if err != nil {
		return false, err
	}
	if installed == nil {
		return true, nil
	}
	cmp, err := version.Compare(*installed, wanted)
	if err != nil {
		return false, err
	}
	return cmp < 0, nil
}

func (*Homebrew) Install(ctx rt.Context) error {
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"brew", "link", name}}, nil, nil, nil)
}

func (h *Homebrew) UninstallNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return false, err
	}
	installed, err := brewLinkedVersion(ctx, name)
	if err != nil {
		return false, err
	}
	return installed != nil, nil
}

func (*Homebrew) Uninstall(ctx rt.Context) error {
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"brew", "unlink", name}}, nil, nil, nil)
}

// brewLinkedVersion checks whether name is present under the Cellar by
// probing the marker file a linked keg leaves behind, mirroring
// native/brew.go's reliance on a fixed Cellar path shape.
func brewLinkedVersion(ctx rt.Context, name string) (*version.Version, error) {
	cellar := "/usr/local/Cellar/" + name
	if !ctx.OS.FileExists(cellar) {
		return nil, nil
	}
	v, _, err := ctx.Env.Version("version", false)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
