// Package dataerr defines the error class for structurally or semantically
// invalid input data. A data error is fatal for the single record being
// processed but never for the whole batch; callers classify it with errors.As
// and decide whether to skip the record or abort the run.
package dataerr

import "fmt"

// Error marks a record-level input data problem.
type Error struct {
	msg  string
	base *Error
}

// New creates a base condition that other errors can wrap, e.g.
//
//	var ErrMalformedDate = dataerr.New("malformed date")
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Newf derives a detailed error from a base condition. The result matches the
// base with errors.Is.
func Newf(base *Error, format string, args ...any) *Error {
	return &Error{
		msg:  fmt.Sprintf(format, args...),
		base: base,
	}
}

func (e *Error) Error() string {
	return e.msg
}

// Is reports whether target is this error or the base condition it was
// derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || e.base == t
}
