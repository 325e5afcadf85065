package osfacade

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/dcreager/buzzy-sub000/internal/gps/log"
	"github.com/karrick/godirwalk"
	shutil "github.com/termie/go-shutil"
)

// Real is the VTable implementation that actually touches the host:
// it forks subprocesses, writes files, and walks directories, the way
// the original engine's non-test build does.
type Real struct {
	logger *log.Logger
}

// NewReal constructs a Real vtable that reports actions through
// logger. A nil logger discards action messages.
func NewReal(logger *log.Logger) *Real {
	return &Real{logger: logger}
}

func (r *Real) Exec(cmd Cmd, stdout, stderr io.Writer) (int, error) {
	if len(cmd.Argv) == 0 {
		return -1, fmt.Errorf("osfacade: empty command")
	}
	c := exec.Command(cmd.Argv[0], cmd.Argv[1:]...)
	c.Stdout = stdout
	c.Stderr = stderr
	c.Dir = cmd.Dir
	if len(cmd.Extra) > 0 {
		c.Env = append(os.Environ(), cmd.Extra...)
	}
	err := c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (r *Real) CreateDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (r *Real) CreateFile(path string, contents []byte) error {
	return os.WriteFile(path, contents, 0o644)
}

func (r *Real) CopyFile(src, dst string) error {
	_, err := shutil.Copy(src, dst, true)
	return err
}

func (r *Real) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (r *Real) LoadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (r *Real) PrintAction(format string, args ...interface{}) {
	if r.logger == nil {
		return
	}
	r.logger.Action(format, args...)
}

func (r *Real) WalkDirectory(root string, fn func(DirEntry) error) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == root {
				return nil
			}
			return fn(DirEntry{Path: osPathname, IsDir: de.IsDir()})
		},
		Unsorted: false,
	})
}
