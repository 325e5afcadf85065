package osfacade

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dcreager/buzzy-sub000/internal/gps/errs"
)

// MockResponse is a canned response for one expected command, keyed by
// the space-joined argv (spec §4.4).
type MockResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Mock is the OS façade used by tests (spec §4.4): it never touches
// the real filesystem or forks real processes. Every Exec is looked up
// in Responses by the space-joined argv; an unrecognized command
// returns a SystemError rather than silently succeeding. FileExists
// uses a registered synthetic "[ -f PATH ]" response if there is one
// and otherwise reports whether PATH is in Files.
type Mock struct {
	Responses map[string]MockResponse
	Commands  []string
	Actions   []string
	Files     map[string][]byte
	Dirs      map[string]bool

	walkEntries map[string][]DirEntry
}

// NewMock constructs an empty Mock.
func NewMock() *Mock {
	return &Mock{
		Responses: map[string]MockResponse{},
		Files:     map[string][]byte{},
		Dirs:      map[string]bool{},
	}
}

// Expect registers the response for an exact command line.
func (m *Mock) Expect(cmd string, resp MockResponse) {
	m.Responses[cmd] = resp
}

// ExpectFileExists registers the synthetic "[ -f PATH ]" command used
// by FileExists, per spec §4.4.
func (m *Mock) ExpectFileExists(path string, exists bool) {
	code := 1
	if exists {
		code = 0
	}
	m.Expect(fileExistsCmd(path), MockResponse{ExitCode: code})
}

func fileExistsCmd(path string) string {
	return "[ -f " + path + " ]"
}

func (m *Mock) Exec(cmd Cmd, stdout, stderr io.Writer) (int, error) {
	key := strings.Join(cmd.Argv, " ")
	m.Commands = append(m.Commands, key)
	resp, ok := m.Responses[key]
	if !ok {
		return -1, errs.New(errs.SystemError, "mock osfacade: unexpected command %q", key)
	}
	if stdout != nil {
		io.WriteString(stdout, resp.Stdout)
	}
	if stderr != nil {
		io.WriteString(stderr, resp.Stderr)
	}
	return resp.ExitCode, nil
}

func (m *Mock) CreateDir(path string) error {
	m.Dirs[path] = true
	if _, ok := m.Files[path]; !ok {
		m.Files[path] = nil
	}
	return nil
}

func (m *Mock) CreateFile(path string, contents []byte) error {
	m.Files[path] = contents
	return nil
}

func (m *Mock) CopyFile(src, dst string) error {
	contents, ok := m.Files[src]
	if !ok {
		return errs.New(errs.SystemError, "mock osfacade: copy source %q does not exist", src)
	}
	m.Files[dst] = contents
	return nil
}

func (m *Mock) FileExists(path string) bool {
	key := fileExistsCmd(path)
	resp, ok := m.Responses[key]
	m.Commands = append(m.Commands, key)
	if ok {
		return resp.ExitCode == 0
	}
	_, inFiles := m.Files[path]
	return inFiles
}

func (m *Mock) LoadFile(path string) ([]byte, error) {
	contents, ok := m.Files[path]
	if !ok {
		return nil, errs.New(errs.SystemError, "mock osfacade: no such file %q", path)
	}
	return contents, nil
}

func (m *Mock) PrintAction(format string, args ...interface{}) {
	m.Actions = append(m.Actions, fmt.Sprintf(format, args...))
}

// SetWalkResult configures what WalkDirectory(root, ...) yields; tests
// populate this directly since the mock never touches a real
// filesystem tree.
func (m *Mock) SetWalkResult(root string, entries []DirEntry) {
	if m.walkEntries == nil {
		m.walkEntries = map[string][]DirEntry{}
	}
	m.walkEntries[root] = entries
}

func (m *Mock) WalkDirectory(root string, fn func(DirEntry) error) error {
	entries := m.walkEntries[root]
	sorted := make([]DirEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	for _, e := range sorted {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
