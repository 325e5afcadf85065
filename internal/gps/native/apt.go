package native

import (
	"bytes"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// NewAptDpkg constructs the Debian/apt+dpkg native adapter (spec §4.7).
func NewAptDpkg(patterns ...string) *Adapter {
	if len(patterns) == 0 {
		patterns = []string{"%s"}
	}
	return &Adapter{
		ShortDistroName:  "Debian",
		NamePatterns:     patterns,
		VersionAvailable: aptVersionAvailable,
		VersionInstalled: dpkgVersionInstalled,
		InstallFn:        aptInstall,
		UninstallFn:      aptUninstall,
	}
}

func aptVersionAvailable(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"apt-cache", "show", "--no-all-versions", name}}
	if err := osfacade.Run(ctx.OS, cmd, &out, nil, &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, ok := fieldValue(out.String(), "Version:")
	if !ok {
		return nil, nil
	}
	v, _, err := version.FromDebian(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func dpkgVersionInstalled(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"dpkg-query", "-W", "-f", "${Status}\\n${Version}", name}}
	if err := osfacade.Run(ctx.OS, cmd, &out, nil, &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	lines := strings.SplitN(out.String(), "\n", 2)
	if len(lines) != 2 {
		return nil, errs.New(errs.SubprocessError, "unexpected `dpkg-query` output %q", out.String())
	}
	if strings.TrimSpace(lines[0]) != "install ok installed" {
		return nil, nil
	}
	v, _, err := version.FromDebian(strings.TrimSpace(lines[1]))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func aptInstall(ctx rt.Context, name string, v version.Version) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "apt-get", "install", "-y", name}}, nil, nil, nil)
}

func aptUninstall(ctx rt.Context, name string) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "apt-get", "remove", "-y", name}}, nil, nil, nil)
}

// fieldValue finds a "Key: value" line (by exact "Key:" prefix) in a
// multi-line block and returns its trimmed value.
func fieldValue(block, prefix string) (string, bool) {
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}
