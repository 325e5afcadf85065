package native

import (
	"bytes"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// NewBrew constructs the Homebrew native adapter (spec §4.7).
func NewBrew(patterns ...string) *Adapter {
	if len(patterns) == 0 {
		patterns = []string{"%s"}
	}
	return &Adapter{
		ShortDistroName:  "Homebrew",
		NamePatterns:     patterns,
		VersionAvailable: brewVersionAvailable,
		VersionInstalled: brewVersionInstalled,
		InstallFn:        brewInstall,
		UninstallFn:      brewUninstall,
	}
}

func brewInfo(ctx rt.Context, name string) (string, bool, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"brew", "info", name}}
	if err := osfacade.Run(ctx.OS, cmd, &out, nil, &ok); err != nil {
		return "", false, err
	}
	return out.String(), ok, nil
}

func brewVersionAvailable(ctx rt.Context, name string) (*version.Version, error) {
	out, ok, err := brewInfo(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	for _, line := range strings.Split(out, "\n") {
		prefix := name + ": stable "
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := strings.TrimPrefix(line, prefix)
		token := firstToken(rest)
		v, err := version.Parse(token)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, nil
}

func brewVersionInstalled(ctx rt.Context, name string) (*version.Version, error) {
	out, ok, err := brewInfo(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	prefix := "/usr/local/Cellar/" + name + "/"
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := strings.TrimPrefix(line, prefix)
		token := firstToken(rest)
		v, err := version.Parse(token)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, nil
}

func brewInstall(ctx rt.Context, name string, v version.Version) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"brew", "install", name}}, nil, nil, nil)
}

func brewUninstall(ctx rt.Context, name string) error {
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"brew", "uninstall", name}}, nil, nil, nil)
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	for i, c := range s {
		if c == ' ' || c == ',' || c == '(' || c == '/' {
			return s[:i]
		}
	}
	return s
}
