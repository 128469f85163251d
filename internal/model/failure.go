package model

import (
	"errors"
	"fmt"
)

// Class is a stable failure category. Every error surfaced by the harness maps
// to exactly one Class, which decides whether the run continues and which exit
// status the process ends with.
type Class string

// Failure classes.
const (
	ClassConfiguration   Class = "configuration-error"
	ClassSuiteParse      Class = "suite-parse-error"
	ClassWorkerGone      Class = "worker-unavailable"
	ClassProtocol        Class = "protocol-failure"
	ClassProtocolDesync  Class = "protocol-desync"
	ClassMismatch        Class = "structural-mismatch"
	ClassArtifactParse   Class = "artifact-parse-failure"
	ClassExpectedMissing Class = "expected-missing"
	ClassSanitization    Class = "sanitization-failure"
	ClassToolUnavailable Class = "tool-unavailable"
	ClassTestFailures    Class = "test-failures"
)

// Exit statuses.
const (
	ExitOK          = 0
	ExitTestsFailed = 1
	ExitFatal       = 2
	// ExitSkipped is the status test drivers such as meson treat as "skipped".
	ExitSkipped = 77
)

// Fatal reports whether errors of this class abort the whole run.
func (c Class) Fatal() bool {
	switch c {
	case ClassConfiguration, ClassSuiteParse, ClassWorkerGone, ClassProtocolDesync, ClassToolUnavailable:
		return true
	default:
		return false
	}
}

// ExitCode returns the process exit status for this class.
func (c Class) ExitCode() int {
	switch c {
	case "":
		return ExitOK
	case ClassToolUnavailable:
		return ExitSkipped
	case ClassConfiguration, ClassSuiteParse, ClassWorkerGone, ClassProtocolDesync:
		return ExitFatal
	default:
		return ExitTestsFailed
	}
}

// Error is the structured error type used across the harness.
type Error struct {
	Class   Class
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with the given class and message.
func NewError(class Class, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error wrapping cause.
func WrapError(class Class, cause error, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ClassOf returns the Class of the first *Error in err's chain, or "" if none.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}

	return ""
}

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	return ClassOf(err).Fatal()
}

// ExitCode maps err to a process exit status. Unclassified errors exit 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	class := ClassOf(err)
	if class == "" {
		return ExitTestsFailed
	}

	return class.ExitCode()
}
