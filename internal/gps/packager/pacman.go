package packager

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// Pacman packages a built package as an Arch Linux PKGBUILD archive
// via `makepkg` (spec §4.9).
type Pacman struct{}

func (*Pacman) PackageNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	path, err := pacmanArtifactPath(ctx)
	if err != nil {
		return false, err
	}
	return !ctx.OS.FileExists(path), nil
}

func (*Pacman) Package(ctx rt.Context) error {
	staging, err := stagingDir(ctx)
	if err != nil {
		return err
	}
	buildDir := staging + "/.buzzy-pkg"
	if err := ctx.OS.CreateDir(buildDir); err != nil {
		return err
	}

	pkgbuild, err := renderPKGBUILD(ctx, staging)
	if err != nil {
		return err
	}
	if err := ctx.OS.CreateFile(buildDir+"/PKGBUILD", []byte(pkgbuild)); err != nil {
		return err
	}

	scripts, err := loadScripts(ctx)
	if err != nil {
		return err
	}
	if scripts.preInstall != nil || scripts.postInstall != nil || scripts.preRemove != nil || scripts.postRemove != nil {
		if err := ctx.OS.CreateFile(buildDir+"/buzzy.install", renderPacmanInstallHooks(scripts)); err != nil {
			return err
		}
	}

	outDir, err := outputDir(ctx)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"makepkg"}, Dir: buildDir, Extra: []string{"PKGDEST=" + outDir}}, nil, nil, nil)
}

func renderPKGBUILD(ctx rt.Context, staging string) (string, error) {
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return "", err
	}
	v, _, err := ctx.Env.Version("version", true)
	if err != nil {
		return "", err
	}
	lic, err := license(ctx)
	if err != nil {
		return "", err
	}
	arch, err := architecture(ctx)
	if err != nil {
		return "", err
	}
	pacmanVer := version.ToPacman(v)

	deps, err := translatedDependencies(ctx, "dependencies", "%s")
	if err != nil {
		return "", err
	}
	buildDeps, err := translatedDependencies(ctx, "build_dependencies", "%s")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "pkgname=%s\n", name)
	fmt.Fprintf(&b, "pkgver=%s\n", pacmanVer.Version)
	fmt.Fprintf(&b, "pkgrel=%s\n", pacmanVer.Release)
	fmt.Fprintf(&b, "arch=('%s')\n", arch)
	fmt.Fprintf(&b, "license=('%s')\n", lic)
	fmt.Fprintf(&b, "depends=(%s)\n", quotedPacmanDeps(deps))
	fmt.Fprintf(&b, "makedepends=(%s)\n", quotedPacmanDeps(buildDeps))
	fmt.Fprintf(&b, "package() {\n  cp -a %q/* \"$pkgdir\"\n}\n", staging)
	return b.String(), nil
}

func quotedPacmanDeps(deps []nativeDependency) string {
	entries := make([]string, 0, len(deps))
	for _, d := range deps {
		if min := d.dep.MinVersion(); min != nil {
			entries = append(entries, fmt.Sprintf("'%s>=%s'", d.nativeName, version.ToPacman(*min).Version))
		} else {
			entries = append(entries, fmt.Sprintf("'%s'", d.nativeName))
		}
	}
	return strings.Join(entries, " ")
}

func renderPacmanInstallHooks(s scriptSet) []byte {
	var b strings.Builder
	writeHook := func(fn string, content []byte) {
		if content == nil {
			return
		}
		fmt.Fprintf(&b, "%s() {\n%s\n}\n", fn, string(content))
	}
	writeHook("pre_install", s.preInstall)
	writeHook("post_install", s.postInstall)
	writeHook("pre_remove", s.preRemove)
	writeHook("post_remove", s.postRemove)
	return []byte(b.String())
}

func pacmanFilename(ctx rt.Context) (string, error) {
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return "", err
	}
	v, _, err := ctx.Env.Version("version", true)
	if err != nil {
		return "", err
	}
	arch, err := architecture(ctx)
	if err != nil {
		return "", err
	}
	pv := version.ToPacman(v)
	return fmt.Sprintf("%s-%s-%s-%s.pkg.tar.zst", name, pv.Version, pv.Release, arch), nil
}

func pacmanArtifactPath(ctx rt.Context) (string, error) {
	dir, err := outputDir(ctx)
	if err != nil {
		return "", err
	}
	filename, err := pacmanFilename(ctx)
	if err != nil {
		return "", err
	}
	return artifactPath(dir, filename), nil
}

func (*Pacman) InstallNeeded(ctx rt.Context) (bool, error) {
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
	installed, err := pacmanQueryInstalled(ctx, name)
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

func (*Pacman) Install(ctx rt.Context) error {
	artifact, err := pacmanArtifactPath(ctx)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "pacman", "-U", "--noconfirm", artifact}}, nil, nil, nil)
}

func (*Pacman) UninstallNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return false, err
	}
	installed, err := pacmanQueryInstalled(ctx, name)
	if err != nil {
		return false, err
	}
	return installed != nil, nil
}

func (*Pacman) Uninstall(ctx rt.Context) error {
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "pacman", "-R", "--noconfirm", name}}, nil, nil, nil)
}

// pacmanQueryInstalled mirrors native/pacman.go's pacmanVersionInstalled.
func pacmanQueryInstalled(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"pacman", "-Q", name}}
	if err := osfacade.GetOutput(ctx.OS, cmd, &out, &bytes.Buffer{}, &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	fields := strings.Fields(firstLineOf(out.String()))
	if len(fields) != 2 {
		return nil, errs.New(errs.SubprocessError, "unexpected `pacman -Q %s` output %q", name, out.String())
	}
	ver, rel := fields[1], "1"
	if i := strings.LastIndexByte(fields[1], '-'); i >= 0 {
		ver, rel = fields[1][:i], fields[1][i+1:]
	}
	v, err := version.FromPacman(version.Pacman{Version: ver, Release: rel})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func firstLineOf(s string) string {
	scanner := bufio.NewScanner(strings.NewReader(s))
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}
