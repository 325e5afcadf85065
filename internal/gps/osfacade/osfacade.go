// Package osfacade implements Buzzy's single point of contact with
// the operating system (spec §4.4): every subprocess invocation,
// filesystem mutation, and directory walk the engine performs goes
// through a VTable, so the entire core can be driven by a Mock in
// tests.
package osfacade

import (
	"bytes"
	"io"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
)

// DirEntry is one entry yielded by WalkDirectory.
type DirEntry struct {
	Path  string
	IsDir bool
}

// Cmd is one subprocess invocation. Dir, when set, is the working
// directory the child runs in (builders invoke `configure`/`make` from
// a package's build_dir); Extra holds additional "KEY=value" entries
// appended to the child's environment (the autotools builder uses this
// for PKG_CONFIG_PATH). Mock expectations are still keyed purely by
// the space-joined Argv, matching spec §4.4.
type Cmd struct {
	Argv  []string
	Dir   string
	Extra []string
}

// VTable is the complete surface the core uses to touch the outside
// world (spec §4.4). A real implementation (Real) calls the OS; Mock
// records invocations against canned responses for tests.
type VTable interface {
	// Exec runs cmd, streaming stdout/err to the given sinks (either
	// may be io.Discard), and blocks until the child exits.
	Exec(cmd Cmd, stdout, stderr io.Writer) (exitCode int, err error)
	CreateDir(path string) error
	CreateFile(path string, contents []byte) error
	CopyFile(src, dst string) error
	FileExists(path string) bool
	LoadFile(path string) ([]byte, error)
	PrintAction(format string, args ...interface{})
	WalkDirectory(root string, fn func(DirEntry) error) error
}

// Run is the `run(verbose, successful_out?)` convenience of spec §4.4:
// it execs cmd. A non-zero exit is a SubprocessError unless
// successfulOut is non-nil, in which case *successfulOut receives
// whether the exit was zero and no error is raised.
func Run(v VTable, cmd Cmd, stdout, stderr io.Writer, successfulOut *bool) error {
	code, err := v.Exec(cmd, stdout, stderr)
	if err != nil {
		return err
	}
	if successfulOut != nil {
		*successfulOut = code == 0
		return nil
	}
	if code != 0 {
		return errs.SubprocessFailure(cmd.Argv[0], code, "", "")
	}
	return nil
}

// GetOutput is the `get_output(out_buf, err_buf, successful_out?)`
// convenience of spec §4.4: like Run, but captures stdout/stderr into
// the supplied buffers and includes them in the SubprocessError.
func GetOutput(v VTable, cmd Cmd, outBuf, errBuf *bytes.Buffer, successfulOut *bool) error {
	code, err := v.Exec(cmd, outBuf, errBuf)
	if err != nil {
		return err
	}
	if successfulOut != nil {
		*successfulOut = code == 0
		return nil
	}
	if code != 0 {
		return errs.SubprocessFailure(cmd.Argv[0], code, outBuf.String(), errBuf.String())
	}
	return nil
}
