package native

import (
	"bytes"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// NewYumRpm constructs the Red Hat/yum+rpm native adapter (spec §4.7).
func NewYumRpm(patterns ...string) *Adapter {
	if len(patterns) == 0 {
		patterns = []string{"%s"}
	}
	return &Adapter{
		ShortDistroName:  "RPM",
		NamePatterns:     patterns,
		VersionAvailable: yumVersionAvailable,
		VersionInstalled: rpmVersionInstalled,
		InstallFn:        yumInstall,
		UninstallFn:      yumUninstall,
	}
}

func yumVersionAvailable(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"yum", "info", name}}
	if err := osfacade.Run(ctx.OS, cmd, &out, nil, &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	ver, verOK := fieldValue(out.String(), "Version:")
	rel, relOK := fieldValue(out.String(), "Release:")
	if !relOK {
		rel = "1"
	}
	if !verOK {
		return nil, nil
	}
	v, err := version.FromRPM(version.RPM{Version: ver, Release: rel})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func rpmVersionInstalled(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"rpm", "--qf", "%{V}-%{R}", "-q", name}}
	if err := osfacade.Run(ctx.OS, cmd, &out, nil, &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	s := strings.TrimSpace(out.String())
	i := strings.LastIndexByte(s, '-')
	if i < 0 {
		return nil, nil
	}
	v, err := version.FromRPM(version.RPM{Version: s[:i], Release: s[i+1:]})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func yumInstall(ctx rt.Context, name string, v version.Version) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "yum", "install", "-y", name}}, nil, nil, nil)
}

func yumUninstall(ctx rt.Context, name string) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "yum", "remove", "-y", name}}, nil, nil, nil)
}
