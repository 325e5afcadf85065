// Package errs defines the error taxonomy shared by every layer of the
// engine: version/dependency parsing, the env/value store, the PDB
// stack, and the builder/packager pipeline.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an engine error so that callers (chiefly the CLI, out
// of scope here) can decide how to report it without string-matching
// messages.
type Kind int

const (
	// InvalidVersion marks a malformed version literal, or an attempt to
	// compare two version parts whose kinds are incompatible.
	InvalidVersion Kind = iota
	// InvalidDependency marks a malformed dependency literal.
	InvalidDependency
	// BadConfig marks a missing required env variable, a value of the
	// wrong kind, an unknown builder/packager name, or a missing
	// staging directory.
	BadConfig
	// CannotSatisfy marks a dependency that no registered PDB could
	// resolve.
	CannotSatisfy
	// SubprocessError marks a non-zero exit from a child process.
	SubprocessError
	// SystemError marks an OS-level file or directory failure.
	SystemError
)

func (k Kind) String() string {
	switch k {
	case InvalidVersion:
		return "InvalidVersion"
	case InvalidDependency:
		return "InvalidDependency"
	case BadConfig:
		return "BadConfig"
	case CannotSatisfy:
		return "CannotSatisfy"
	case SubprocessError:
		return "SubprocessError"
	case SystemError:
		return "SystemError"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error type returned by every fallible call in
// the engine. It carries a Kind so callers can dispatch on the failure
// category, and wraps an underlying cause via github.com/pkg/errors so
// that %+v prints a full chain.
type Error struct {
	kind  Kind
	cause error
}

// New builds an Error of the given kind from a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap builds an Error of the given kind, wrapping an existing error
// with additional context. Returns nil if err is nil.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, cause: errors.Wrapf(err, format, args...)}
}

func (e *Error) Error() string {
	return e.cause.Error()
}

// Kind reports the error's category.
func (e *Error) Kind() Kind {
	return e.kind
}

// Cause returns the wrapped error, per the github.com/pkg/errors causer
// convention.
func (e *Error) Cause() error {
	return e.cause
}

// Is reports whether err (or any error it wraps) is a *Error of the
// given kind. It lets callers write errs.Is(err, errs.BadConfig)
// instead of type-asserting.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.kind == kind {
			return true
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = cause.Cause()
	}
	return false
}

// SubprocessFailure formats a SubprocessError embedding the program
// name and, when captured, the stdout/stderr prefixes, mirroring the
// message shape demanded by spec §7.
func SubprocessFailure(program string, exitCode int, stdout, stderr string) *Error {
	msg := fmt.Sprintf("%s exited with status %d", program, exitCode)
	if stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", stdout)
	}
	if stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", stderr)
	}
	return &Error{kind: SubprocessError, cause: errors.New(msg)}
}
