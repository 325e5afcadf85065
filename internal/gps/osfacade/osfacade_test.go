package osfacade

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockExecRoutesByJoinedArgv(t *testing.T) {
	m := NewMock()
	m.Expect("pacman -Sdp --print-format %v jansson", MockResponse{Stdout: "2.4\n", ExitCode: 0})

	var out bytes.Buffer
	code, err := m.Exec(Cmd{Argv: []string{"pacman", "-Sdp", "--print-format", "%v", "jansson"}}, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "2.4\n", out.String())
	assert.Contains(t, m.Commands, "pacman -Sdp --print-format %v jansson")
}

func TestMockExecUnexpectedCommandErrors(t *testing.T) {
	m := NewMock()
	_, err := m.Exec(Cmd{Argv: []string{"echo", "hi"}}, nil, nil)
	require.Error(t, err)
}

func TestMockFileExistsSyntheticCommand(t *testing.T) {
	m := NewMock()
	m.ExpectFileExists("/tmp/configure", true)
	assert.True(t, m.FileExists("/tmp/configure"))
	assert.Contains(t, m.Commands, "[ -f /tmp/configure ]")

	m.ExpectFileExists("/tmp/missing", false)
	assert.False(t, m.FileExists("/tmp/missing"))
}

func TestMockCreateAndLoadFile(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.CreateFile("/tmp/x", []byte("hello")))
	got, err := m.LoadFile("/tmp/x")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestMockCopyFile(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.CreateFile("/src", []byte("data")))
	require.NoError(t, m.CopyFile("/src", "/dst"))
	got, err := m.LoadFile("/dst")
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestMockCopyFileMissingSourceErrors(t *testing.T) {
	m := NewMock()
	err := m.CopyFile("/does-not-exist", "/dst")
	require.Error(t, err)
}

func TestMockPrintAction(t *testing.T) {
	m := NewMock()
	m.PrintAction("Install native %s package %s %s", "Arch", "jansson", "2.4")
	require.Len(t, m.Actions, 1)
	assert.Equal(t, "Install native Arch package jansson 2.4", m.Actions[0])
}

func TestMockWalkDirectory(t *testing.T) {
	m := NewMock()
	m.SetWalkResult("/root", []DirEntry{
		{Path: "/root/b.txt", IsDir: false},
		{Path: "/root/a", IsDir: true},
	})
	var seen []string
	err := m.WalkDirectory("/root", func(e DirEntry) error {
		seen = append(seen, e.Path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/root/a", "/root/b.txt"}, seen)
}

func TestRunSuccessfulOutCapturesStatusWithoutError(t *testing.T) {
	m := NewMock()
	m.Expect("false", MockResponse{ExitCode: 1})
	var ok bool
	err := Run(m, Cmd{Argv: []string{"false"}}, nil, nil, &ok)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunNonZeroWithoutSuccessfulOutIsSubprocessError(t *testing.T) {
	m := NewMock()
	m.Expect("false", MockResponse{ExitCode: 1})
	err := Run(m, Cmd{Argv: []string{"false"}}, nil, nil, nil)
	require.Error(t, err)
}

func TestGetOutputCapturesBuffers(t *testing.T) {
	m := NewMock()
	m.Expect("cmd", MockResponse{Stdout: "out", Stderr: "err", ExitCode: 0})
	var outBuf, errBuf bytes.Buffer
	err := GetOutput(m, Cmd{Argv: []string{"cmd"}}, &outBuf, &errBuf, nil)
	require.NoError(t, err)
	assert.Equal(t, "out", outBuf.String())
	assert.Equal(t, "err", errBuf.String())
}
