package packager

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

// RPM packages a built package as an RPM via `rpmbuild -bb` (spec
// §4.9).
type RPM struct{}

func (*RPM) PackageNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	path, err := rpmArtifactPath(ctx)
	if err != nil {
		return false, err
	}
	return !ctx.OS.FileExists(path), nil
}

func (*RPM) Package(ctx rt.Context) error {
	staging, err := stagingDir(ctx)
	if err != nil {
		return err
	}
	specDir := staging + "/.buzzy-pkg"
	if err := ctx.OS.CreateDir(specDir); err != nil {
		return err
	}

	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return err
	}
	spec, err := renderSpec(ctx, staging)
	if err != nil {
		return err
	}
	specPath := specDir + "/" + name + ".spec"
	if err := ctx.OS.CreateFile(specPath, []byte(spec)); err != nil {
		return err
	}

	outDir, err := outputDir(ctx)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{
		Argv: []string{"rpmbuild", "-bb", "--define", "_rpmdir " + outDir, specPath},
	}, nil, nil, nil)
}

func renderSpec(ctx rt.Context, staging string) (string, error) {
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
	rpmVer := version.ToRPM(v)

	deps, err := translatedDependencies(ctx, "dependencies", "%s")
	if err != nil {
		return "", err
	}
	buildDeps, err := translatedDependencies(ctx, "build_dependencies", "%s")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Version: %s\n", rpmVer.Version)
	fmt.Fprintf(&b, "Release: %s\n", rpmVer.Release)
	fmt.Fprintf(&b, "License: %s\n", lic)
	fmt.Fprintf(&b, "BuildArch: %s\n", arch)
	fmt.Fprintf(&b, "Summary: %s\n", name)
	for _, d := range deps {
		b.WriteString(rpmRequiresLine("Requires", d))
	}
	for _, d := range buildDeps {
		b.WriteString(rpmRequiresLine("BuildRequires", d))
	}
	fmt.Fprintf(&b, "\n%%description\n%s\n", name)

	scripts, err := loadScripts(ctx)
	if err != nil {
		return "", err
	}
	if scripts.preInstall != nil {
		fmt.Fprintf(&b, "\n%%pre\n%s\n", string(scripts.preInstall))
	}
	fmt.Fprintf(&b, "\n%%post\n%s", string(withLdconfig(scripts.postInstall)))
	if scripts.preRemove != nil {
		fmt.Fprintf(&b, "\n%%preun\n%s\n", string(scripts.preRemove))
	}
	fmt.Fprintf(&b, "\n%%postun\n%s", string(withLdconfig(scripts.postRemove)))

	fmt.Fprintf(&b, "\n%%files\n%s/*\n", staging)
	return b.String(), nil
}

func rpmRequiresLine(field string, d nativeDependency) string {
	if min := d.dep.MinVersion(); min != nil {
		return fmt.Sprintf("%s: %s >= %s\n", field, d.nativeName, version.ToRPM(*min).Version)
	}
	return fmt.Sprintf("%s: %s\n", field, d.nativeName)
}

func rpmFilename(ctx rt.Context) (string, error) {
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
	rv := version.ToRPM(v)
	return fmt.Sprintf("%s-%s-%s.%s.rpm", name, rv.Version, rv.Release, arch), nil
}

func rpmArtifactPath(ctx rt.Context) (string, error) {
	dir, err := outputDir(ctx)
	if err != nil {
		return "", err
	}
	filename, err := rpmFilename(ctx)
	if err != nil {
		return "", err
	}
	return artifactPath(dir, filename), nil
}

func (*RPM) InstallNeeded(ctx rt.Context) (bool, error) {
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
	installed, err := rpmQueryInstalled(ctx, name)
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

func (*RPM) Install(ctx rt.Context) error {
	artifact, err := rpmArtifactPath(ctx)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "rpm", "-U", artifact}}, nil, nil, nil)
}

func (*RPM) UninstallNeeded(ctx rt.Context) (bool, error) {
	if f, err := force(ctx); err != nil || f {
		return f, err
	}
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return false, err
	}
	installed, err := rpmQueryInstalled(ctx, name)
	if err != nil {
		return false, err
	}
	return installed != nil, nil
}

func (*RPM) Uninstall(ctx rt.Context) error {
	name, _, err := ctx.Env.String("name", true)
	if err != nil {
		return err
	}
	return osfacade.Run(ctx.OS, osfacade.Cmd{Argv: []string{"sudo", "rpm", "-e", name}}, nil, nil, nil)
}

// rpmQueryInstalled mirrors native/yum.go's rpmVersionInstalled.
func rpmQueryInstalled(ctx rt.Context, name string) (*version.Version, error) {
	var out bytes.Buffer
	var ok bool
	cmd := osfacade.Cmd{Argv: []string{"rpm", "--qf", "%{V}-%{R}", "-q", name}}
	if err := osfacade.GetOutput(ctx.OS, cmd, &out, &bytes.Buffer{}, &ok); err != nil {
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
