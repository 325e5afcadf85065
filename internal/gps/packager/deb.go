package packager

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// Deb packages a built package as a Debian .deb archive (spec §4.9):
// it writes DEBIAN/control (plus pre/postinst, pre/postrm) directly
// into the staging tree and invokes `dpkg-deb -b`.
type Deb struct{}

// debDependencyPattern is the default native-name translation when no
// real PDB-backed resolver is wired: Debian library dependencies are
// conventionally split into a runtime and a "-dev" headers package, and
// a build-time dependency wants the latter (spec §8 scenario 5).
const debDependencyPattern = "%s-dev"

func (*Deb) PackageNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	path, err := debArtifactPath(ctx)
	if err != nil {
		return false, err
	}
	return !ctx.OS.FileExists(path), nil
}

func (*Deb) Package(ctx rt.Context) error {
	staging, err := stagingDir(ctx)
	if err != nil {
		return err
	}
	controlDir := staging + "/DEBIAN"
	if err := ctx.OS.CreateDir(controlDir); err != nil {
		return err
	}

	control, err := renderDebControl(ctx)
	if err != nil {
		return err
	}
	if err := ctx.OS.CreateFile(controlDir+"/control", []byte(control)); err != nil {
		return err
	}

	scripts, err := loadScripts(ctx)
	if err != nil {
		return err
	}
	if scripts.preInstall != nil {
		if err := ctx.OS.CreateFile(controlDir+"/preinst", scripts.preInstall); err != nil {
			return err
		}
	}
	if err := ctx.OS.CreateFile(controlDir+"/postinst", withLdconfig(scripts.postInstall)); err != nil {
		return err
	}
	if scripts.preRemove != nil {
		if err := ctx.OS.CreateFile(controlDir+"/prerm", scripts.preRemove); err != nil {
			return err
		}
	}
	if err := ctx.OS.CreateFile(controlDir+"/postrm", withLdconfig(scripts.postRemove)); err != nil {
		return err
	}

	artifact, err := debArtifactPath(ctx)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"dpkg-deb", "-b", staging, artifact}}, nil, nil, nil)
}

func renderDebControl(ctx rt.Context) (string, error) {
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
	lic, err := license(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Package: %s\n", name)
	fmt.Fprintf(&b, "Version: %s\n", version.ToDebian(v, "").Version)
	fmt.Fprintf(&b, "Architecture: %s\n", arch)
	fmt.Fprintf(&b, "Maintainer: buzzy <buzzy@localhost>\n")

	deps, err := translatedDependencies(ctx, "dependencies", debDependencyPattern)
	if err != nil {
		return "", err
	}
	if line := renderDebDependsLine(deps); line != "" {
		fmt.Fprintf(&b, "Depends: %s\n", line)
	}

	fmt.Fprintf(&b, "Description: %s (license: %s)\n", name, lic)
	return b.String(), nil
}

// renderDebDependsLine renders one comma-separated Depends: entry per
// dependency, each as "name" or "name (>= version)" with the version
// rendered in the Debian dialect (spec §4.1), matching §8 scenario 5.
func renderDebDependsLine(deps []nativeDependency) string {
	var entries []string
	for _, d := range deps {
		if min := d.dep.MinVersion(); min != nil {
			entries = append(entries, fmt.Sprintf("%s (>= %s)", d.nativeName, version.ToDebian(*min, "").Version))
		} else {
			entries = append(entries, d.nativeName)
		}
	}
	return strings.Join(entries, ", ")
}

func debFilename(ctx rt.Context) (string, error) {
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
	return fmt.Sprintf("%s_%s_%s.deb", name, version.ToDebian(v, "").Version, arch), nil
}

func debArtifactPath(ctx rt.Context) (string, error) {
	dir, err := outputDir(ctx)
	if err != nil {
		return "", err
	}
	filename, err := debFilename(ctx)
	if err != nil {
		return "", err
	}
	return artifactPath(dir, filename), nil
}

func (*Deb) InstallNeeded(ctx rt.Context) (bool, error) {
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
	installed, err := dpkgQueryInstalled(ctx, name)
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

func (*Deb) Install(ctx rt.Context) error {
	artifact, err := debArtifactPath(ctx)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "dpkg", "-i", artifact}}, nil, nil, nil)
}

func (*Deb) UninstallNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return false, err
	}
	installed, err := dpkgQueryInstalled(ctx, name)
	if err != nil {
		return false, err
	}
	return installed != nil, nil
}

func (*Deb) Uninstall(ctx rt.Context) error {
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "dpkg", "-r", name}}, nil, nil, nil)
}

// dpkgQueryInstalled mirrors native/apt.go's dpkgVersionInstalled,
// applied to the package's own name rather than a dependency's.
func dpkgQueryInstalled(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"dpkg-query", "-W", "-f", "${Status}\\n${Version}", name}}
	if err := osfacade.GetOutput(ctx.OS, cmd, &out, &bytes.Buffer{}, &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	lines := strings.SplitN(out.String(), "\n", 2)
	if len(lines) != 2 || strings.TrimSpace(lines[0]) != "install ok installed" {
		return nil, nil
	}
	v, _, err := version.FromDebian(strings.TrimSpace(lines[1]))
	if err != nil {
		return nil, err
	}
	return &v, nil
}
