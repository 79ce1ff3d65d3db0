package gpt

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the ways an operation on a GPT disk can fail.
type Kind int

const (
	// BadPartitionTable covers structural invalidity: bad magic, CRC
	// mismatch, out-of-range sizes, or a layout check failure.
	BadPartitionTable Kind = iota + 1
	// OutOfRange means the backup GPT's location could not be determined
	// or falls outside the disk.
	OutOfRange
	// OutOfMemory means an allocation for an entries buffer failed.
	OutOfMemory
	// Bug means a precondition the caller was responsible for was
	// violated, or a value this package itself produced failed
	// revalidation.
	Bug
	// NotImplemented means the request is outside what this engine
	// supports, e.g. a sector-size mismatch between state and disk, or a
	// non-native header size on the write path.
	NotImplemented
	// BadArgument means the caller passed something that isn't a GPT
	// partition where one was required.
	BadArgument
)

func (k Kind) String() string {
	switch k {
	case BadPartitionTable:
		return "BadPartitionTable"
	case OutOfRange:
		return "OutOfRange"
	case OutOfMemory:
		return "OutOfMemory"
	case Bug:
		return "Bug"
	case NotImplemented:
		return "NotImplemented"
	case BadArgument:
		return "BadArgument"
	default:
		return "Unknown"
	}
}

// Error is the error type every exported operation in this package returns
// on failure. Callers that need to branch on failure class should use
// errors.As and inspect Kind, rather than string-matching Error().
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...interface{}) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// IsKind reports whether err is a *Error (directly or via wrapping) of the
// given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
