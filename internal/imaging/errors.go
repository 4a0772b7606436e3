package imaging

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed transformation.
type ErrorKind int

const (
	// KindUnsupportedFormat means a source or watermark file is missing or
	// cannot be decoded as GIF, JPEG or PNG.
	KindUnsupportedFormat ErrorKind = iota + 1

	// KindOutOfRange means a requested rectangle or size does not fit the
	// source image.
	KindOutOfRange

	// KindWriteFailure means the result could not be encoded, written, or
	// confirmed present at its destination.
	KindWriteFailure
)

// String returns the stable name used in logs and tool responses.
func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindOutOfRange:
		return "out_of_range"
	case KindWriteFailure:
		return "write_failure"
	default:
		return "unknown"
	}
}

// Role identifies which input an error refers to.
type Role string

const (
	RoleSource    Role = "source"
	RoleWatermark Role = "watermark"
)

// Error is the single failure type returned by every operation.
//
// Kind is always set. Role and Path are set when the failure concerns a
// specific input or output file. Err holds the underlying cause, if any.
type Error struct {
	Kind    ErrorKind
	Role    Role
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Role != "" {
		msg = string(e.Role) + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target with an
// empty Role matches any role.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Role == "" || t.Role == e.Role
}

// Sentinels for errors.Is.
var (
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrOutOfRange        = &Error{Kind: KindOutOfRange}
	ErrWriteFailure      = &Error{Kind: KindWriteFailure}
)

// KindOf returns the ErrorKind carried by err, or 0 if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func unsupported(role Role, path string, err error) *Error {
	msg := "file not exist or unsupported image format"
	if role == RoleWatermark {
		msg = "watermark " + msg
	}
	return &Error{Kind: KindUnsupportedFormat, Role: role, Path: path, Message: msg, Err: err}
}

// NewError creates an *Error of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func outOfRange(format string, args ...any) *Error {
	return NewError(KindOutOfRange, format, args...)
}

func writeFailure(path string, err error) *Error {
	return &Error{Kind: KindWriteFailure, Path: path, Message: "file save failed", Err: err}
}
