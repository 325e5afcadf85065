// Command buzzy is a thin CLI wrapper around the engine in
// internal/gps, following golang-dep's cmd/dep command-interface
// pattern (the teacher uses the stdlib flag package plus a hand
// rolled command interface rather than a framework like cobra): a
// wiring-proof surface, not a full reimplementation of src/buzzy's
// menu (SPEC_FULL.md PACKAGE LAYOUT, "out of scope per §1 but kept
// thin to exercise the engine end to end").
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dcreager/buzzy-sub000/internal/gps/builder"
	"github.com/dcreager/buzzy-sub000/internal/gps/env"
	"github.com/dcreager/buzzy-sub000/internal/gps/log"
	"github.com/dcreager/buzzy-sub000/internal/gps/osfacade"
	"github.com/dcreager/buzzy-sub000/internal/gps/packager"
	"github.com/dcreager/buzzy-sub000/internal/gps/pdb"
	"github.com/dcreager/buzzy-sub000/internal/gps/pkgmodel"
	"github.com/dcreager/buzzy-sub000/internal/gps/repo"
	"github.com/dcreager/buzzy-sub000/internal/gps/rt"
	"github.com/dcreager/buzzy-sub000/internal/gps/value"
	"github.com/dcreager/buzzy-sub000/internal/gps/version"
)

type command interface {
	Name() string
	Args() string
	ShortHelp() string
	Register(*flag.FlagSet)
	Run(args []string) error
}

func main() {
	commands := []command{
		&buildCommand{},
		&installCommand{},
		&uninstallCommand{},
		&testCommand{},
		&updateCommand{},
		&vercmpCommand{},
		&docCommand{},
		&infoCommand{},
		&getCommand{},
		&rawBuildCommand{},
		&rawPkgCommand{},
	}

	if len(os.Args) < 2 {
		usage(commands)
		os.Exit(1)
	}

	for _, cmd := range commands {
		if cmd.Name() != os.Args[1] {
			continue
		}
		fs := flag.NewFlagSet(cmd.Name(), flag.ExitOnError)
		cmd.Register(fs)
		if err := fs.Parse(os.Args[2:]); err != nil {
			os.Exit(1)
		}
		if err := cmd.Run(fs.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "buzzy %s: %v\n", cmd.Name(), err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "buzzy: no such command %q\n", os.Args[1])
	usage(commands)
	os.Exit(1)
}

func usage(commands []command) {
	fmt.Fprintln(os.Stderr, "Usage: buzzy <command> [args]")
	fmt.Fprintln(os.Stderr, "\nCommands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-12s %-24s %s\n", cmd.Name(), cmd.Args(), cmd.ShortHelp())
	}
}

// newContext builds the rt.Context shared by every subcommand: a real
// OS façade, a logger writing to stderr, and the global PDB registry's
// EnsureInstalled/TranslateDependency closures, exactly the wiring
// rt.Context's doc comment describes as cmd/buzzy's job.
func newContext(verbose bool, e *env.Env) rt.Context {
	logger := log.New(os.Stderr, verbose)
	ctx := rt.Context{Env: e, OS: osfacade.NewReal(logger), Log: logger}
	ctx.EnsureInstalled = pdb.Global().EnsureInstalled(ctx)
	ctx.TranslateDependency = pdb.Global().TranslateDependency(ctx)
	return ctx
}

// cacheRoot is where cloned git repos are cached, per repo.NewGit's
// contract; the engine itself never hardcodes this (spec §4.10 treats
// the cache root as caller-supplied), so the CLI is the first layer
// that picks a concrete, machine-dependent default.
func cacheRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/buzzy"
	}
	return ".buzzy-cache"
}

// loadRepo resolves the repository rooted at (or above) the current
// working directory, registering its default package (if any) with
// the global PDB registry.
func loadRepo(ctx rt.Context) (*repo.Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	r, err := repo.Find(ctx, wd)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r, err = repo.NewFilesystem(ctx, wd)
		if err != nil {
			return nil, err
		}
	}
	repoCtx := ctx
	repoCtx.Env = r.Env
	if err := r.Load(repoCtx); err != nil {
		return nil, err
	}
	return r, nil
}

type buildCommand struct{ verbose bool }

func (*buildCommand) Name() string      { return "build" }
func (*buildCommand) Args() string      { return "" }
func (*buildCommand) ShortHelp() string { return "build the package in the current repository" }
func (c *buildCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
}
func (c *buildCommand) Run([]string) error {
	ctx := newContext(c.verbose, nil)
	r, err := loadRepo(ctx)
	if err != nil {
		return err
	}
	if r.DefaultPackage == nil {
		return fmt.Errorf("no package.toml found in this repository")
	}
	pkgCtx := ctx
	pkgCtx.Env = r.DefaultPackage.Env
	return r.DefaultPackage.Build(pkgCtx)
}

type installCommand struct{ verbose bool }

func (*installCommand) Name() string      { return "install" }
func (*installCommand) Args() string      { return "" }
func (*installCommand) ShortHelp() string { return "build and install the package in the current repository" }
func (c *installCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
}
func (c *installCommand) Run([]string) error {
	ctx := newContext(c.verbose, nil)
	r, err := loadRepo(ctx)
	if err != nil {
		return err
	}
	if r.DefaultPackage == nil {
		return fmt.Errorf("no package.toml found in this repository")
	}
	pkgCtx := ctx
	pkgCtx.Env = r.DefaultPackage.Env
	return r.DefaultPackage.Install(pkgCtx)
}

type uninstallCommand struct{ verbose bool }

func (*uninstallCommand) Name() string      { return "uninstall" }
func (*uninstallCommand) Args() string      { return "" }
func (*uninstallCommand) ShortHelp() string { return "uninstall the package in the current repository" }
func (c *uninstallCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
}
func (c *uninstallCommand) Run([]string) error {
	ctx := newContext(c.verbose, nil)
	r, err := loadRepo(ctx)
	if err != nil {
		return err
	}
	if r.DefaultPackage == nil {
		return fmt.Errorf("no package.toml found in this repository")
	}
	pkgCtx := ctx
	pkgCtx.Env = r.DefaultPackage.Env
	return r.DefaultPackage.Uninstall(pkgCtx)
}

type testCommand struct{ verbose bool }

func (*testCommand) Name() string      { return "test" }
func (*testCommand) Args() string      { return "" }
func (*testCommand) ShortHelp() string { return "build and run the package's test suite" }
func (c *testCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
}
func (c *testCommand) Run([]string) error {
	ctx := newContext(c.verbose, nil)
	r, err := loadRepo(ctx)
	if err != nil {
		return err
	}
	if r.DefaultPackage == nil {
		return fmt.Errorf("no package.toml found in this repository")
	}
	pkgCtx := ctx
	pkgCtx.Env = r.DefaultPackage.Env
	return r.DefaultPackage.Test(pkgCtx)
}

type updateCommand struct{ verbose bool }

func (*updateCommand) Name() string      { return "update" }
func (*updateCommand) Args() string      { return "" }
func (*updateCommand) ShortHelp() string { return "re-fetch the current repository's upstream" }
func (c *updateCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
}
func (c *updateCommand) Run([]string) error {
	ctx := newContext(c.verbose, nil)
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	r, err := repo.Find(ctx, wd)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("no .buzzy repository found above %s", wd)
	}
	repoCtx := ctx
	repoCtx.Env = r.Env
	return r.Update(repoCtx)
}

type vercmpCommand struct {
	semver bool
}

func (*vercmpCommand) Name() string      { return "vercmp" }
func (*vercmpCommand) Args() string      { return "<v1> <v2>" }
func (*vercmpCommand) ShortHelp() string { return "compare two versions, printing -1/0/1" }
func (c *vercmpCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.semver, "semver", false, "compare as dotted major.minor.patch semver instead of Buzzy's native grammar")
}
func (c *vercmpCommand) Run(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected exactly two versions")
	}
	if c.semver {
		cmp, err := version.CompareSemver(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(cmp)
		return nil
	}
	a, err := version.Parse(args[0])
	if err != nil {
		return err
	}
	b, err := version.Parse(args[1])
	if err != nil {
		return err
	}
	cmp, err := version.Compare(a, b)
	if err != nil {
		return err
	}
	switch {
	case cmp < 0:
		fmt.Println(-1)
	case cmp > 0:
		fmt.Println(1)
	default:
		fmt.Println(0)
	}
	return nil
}

type docCommand struct{}

func (*docCommand) Name() string      { return "doc" }
func (*docCommand) Args() string      { return "[name]" }
func (*docCommand) ShortHelp() string { return "describe registered global default variables" }
func (*docCommand) Register(*flag.FlagSet) {}
func (*docCommand) Run(args []string) error {
	for _, d := range env.Describe() {
		if len(args) == 1 && d.Name != args[0] {
			continue
		}
		fmt.Printf("%s (default: %s)\n", d.Name, d.Default)
		if d.Short != "" {
			fmt.Printf("    %s\n", d.Short)
		}
	}
	return nil
}

type infoCommand struct{}

func (*infoCommand) Name() string      { return "info" }
func (*infoCommand) Args() string      { return "<name>" }
func (*infoCommand) ShortHelp() string { return "print the current repository's value for a variable" }
func (*infoCommand) Register(*flag.FlagSet) {}
func (*infoCommand) Run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one variable name")
	}
	ctx := newContext(false, nil)
	r, err := loadRepo(ctx)
	if err != nil {
		return err
	}
	e := r.Env
	if r.DefaultPackage != nil {
		e = r.DefaultPackage.Env
	}
	v, ok, err := e.String(args[0], false)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%q is not set", args[0])
	}
	fmt.Println(v)
	return nil
}

// getCommand fetches (or re-uses) the repository at a URL (spec §6's
// `get` subcommand). Per §4.10's URL-scheme dispatch, an untagged
// "git://"/"git+" URL is always checked out at "master"; an explicit
// commit/tag requires the `!git`-shaped link form (ResolveLink), which
// only a repository's own link list can express, not a bare CLI URL.
type getCommand struct{}

func (*getCommand) Name() string            { return "get" }
func (*getCommand) Args() string            { return "<url>" }
func (*getCommand) ShortHelp() string       { return "fetch (or re-use) the repository at a URL" }
func (*getCommand) Register(*flag.FlagSet) {}
func (c *getCommand) Run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one URL argument")
	}
	ctx := newContext(false, nil)
	r, err := repo.ResolveURL(ctx, cacheRoot(), args[0])
	if err != nil {
		return err
	}
	repoCtx := ctx
	repoCtx.Env = r.Env
	if err := r.Load(repoCtx); err != nil {
		return err
	}
	baseDir, _, err := r.Env.String("repo.base_dir", false)
	if err != nil {
		return err
	}
	fmt.Println(baseDir)
	return nil
}

type rawBuildCommand struct {
	verbose  bool
	name     string
	versionS string
	builder  string
	packager string
}

func (*rawBuildCommand) Name() string { return "raw-build" }
func (*rawBuildCommand) Args() string { return "<dir>" }
func (*rawBuildCommand) ShortHelp() string {
	return "build a working directory without a .buzzy repository"
}
func (c *rawBuildCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
	fs.StringVar(&c.name, "name", "", "package name")
	fs.StringVar(&c.versionS, "version", "", "package version")
	fs.StringVar(&c.builder, "builder", "", "builder strategy (autotools, cmake); auto-detected if empty")
	fs.StringVar(&c.packager, "packager", "noop", "packager strategy")
}
func (c *rawBuildCommand) Run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one directory argument")
	}
	overrides := value.NewMap()
	if c.name != "" {
		if err := overrides.Add("name", value.NewString(c.name), true); err != nil {
			return err
		}
	}
	if c.versionS != "" {
		if err := overrides.Add("version", value.NewString(c.versionS), true); err != nil {
			return err
		}
	}
	if c.builder != "" {
		if err := overrides.Add("builder", value.NewString(c.builder), true); err != nil {
			return err
		}
	}
	if c.packager != "" {
		if err := overrides.Add("packager", value.NewString(c.packager), true); err != nil {
			return err
		}
	}

	e := repo.NewRawEnv(args[0], overrides)
	ctx := newContext(c.verbose, e)

	pkg, err := rawPackage(e)
	if err != nil {
		return err
	}
	return pkg.Build(ctx)
}

type rawPkgCommand struct {
	verbose  bool
	name     string
	versionS string
	builder  string
	packager string
}

func (*rawPkgCommand) Name() string { return "raw-pkg" }
func (*rawPkgCommand) Args() string { return "<dir>" }
func (*rawPkgCommand) ShortHelp() string {
	return "build and package a working directory without a .buzzy repository"
}
func (c *rawPkgCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
	fs.StringVar(&c.name, "name", "", "package name")
	fs.StringVar(&c.versionS, "version", "", "package version")
	fs.StringVar(&c.builder, "builder", "", "builder strategy (autotools, cmake); auto-detected if empty")
	fs.StringVar(&c.packager, "packager", "", "packager strategy; auto-detected if empty")
}
func (c *rawPkgCommand) Run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one directory argument")
	}
	overrides := value.NewMap()
	if c.name != "" {
		if err := overrides.Add("name", value.NewString(c.name), true); err != nil {
			return err
		}
	}
	if c.versionS != "" {
		if err := overrides.Add("version", value.NewString(c.versionS), true); err != nil {
			return err
		}
	}
	if c.builder != "" {
		if err := overrides.Add("builder", value.NewString(c.builder), true); err != nil {
			return err
		}
	}
	if c.packager != "" {
		if err := overrides.Add("packager", value.NewString(c.packager), true); err != nil {
			return err
		}
	}

	e := repo.NewRawEnv(args[0], overrides)
	ctx := newContext(c.verbose, e)

	pkg, err := rawPackage(e)
	if err != nil {
		return err
	}
	if err := pkg.Build(ctx); err != nil {
		return err
	}
	return pkg.Install(ctx)
}

// rawPackage builds a *pkgmodel.Package straight from a raw env: name
// and version come from the overrides the caller supplied (no
// package.toml backing it), and Builder/Packager are resolved lazily
// from the env exactly the way repo.buildDefaultPackage resolves them
// for a repository-backed package.
func rawPackage(e *env.Env) (*pkgmodel.Package, error) {
	name, _, err := e.String("name", true)
	if err != nil {
		return nil, err
	}
	v, _, err := e.Version("version", true)
	if err != nil {
		return nil, err
	}

	bf := func(ctx rt.Context) (pkgmodel.Builder, error) {
		strategyName, _, err := ctx.Env.String("builder", false)
		if err != nil {
			return nil, err
		}
		if strategyName == "" {
			strategyName, err = builder.Detect(ctx)
			if err != nil {
				return nil, err
			}
		}
		strategy, err := builder.ForName(strategyName)
		if err != nil {
			return nil, err
		}
		return builder.New(strategy), nil
	}
	pf := func(ctx rt.Context) (pkgmodel.Packager, error) {
		strategyName, _, err := ctx.Env.String("packager", false)
		if err != nil {
			return nil, err
		}
		if strategyName == "" {
			strategyName, err = packager.Detect(ctx)
			if err != nil {
				return nil, err
			}
		}
		strategy, err := packager.ForName(strategyName)
		if err != nil {
			return nil, err
		}
		return packager.New(strategy), nil
	}

	return pkgmodel.NewBuilt(name, v, e, bf, pf), nil
}
