package native

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// NewPacman constructs the Arch Linux native adapter (spec §4.7).
func NewPacman(patterns ...string) *Adapter {
	if len(patterns) == 0 {
		patterns = []string{"%s"}
	}
	return &Adapter{
		ShortDistroName:  "Arch",
		NamePatterns:     patterns,
		VersionAvailable: pacmanVersionAvailable,
		VersionInstalled: pacmanVersionInstalled,
		InstallFn:        pacmanInstall,
		UninstallFn:      pacmanUninstall,
	}
}

func pacmanVersionAvailable(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"pacman", "-Sdp", "--print-format", "%v", name}}
	if err := osfacade.Run(ctx.OS, cmd, &out, nil, &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	line := strings.TrimSpace(firstLine(out.String()))
	if line == "" {
		return nil, nil
	}
	return parsePacmanVersionString(line)
}

func pacmanVersionInstalled(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"pacman", "-Q", name}}
	if err := osfacade.Run(ctx.OS, cmd, &out, nil, &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	fields := strings.Fields(firstLine(out.String()))
	if len(fields) != 2 {
		return nil, errs.New(errs.SubprocessError, "unexpected `pacman -Q %s` output %q", name, out.String())
	}
	return parsePacmanVersionString(fields[1])
}

func pacmanInstall(ctx rt.Context, name string, v version.Version) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "pacman", "-S", "--noconfirm", name}}, nil, nil, nil)
}

func pacmanUninstall(ctx rt.Context, name string) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "pacman", "-R", "--noconfirm", name}}, nil, nil, nil)
}

// parsePacmanVersionString splits pacman's "version-pkgrel" convention
// and runs it through the §4.1 native converter.
func parsePacmanVersionString(s string) (*version.Version, error) {
	ver, rel := s, "1"
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		ver, rel = s[:i], s[i+1:]
	}
	v, err := version.FromPacman(version.Pacman{Version: ver, Release: rel})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func firstLine(s string) string {
	scanner := bufio.NewScanner(strings.NewReader(s))
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}
