package ir

import (
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

type (
	// InternalError is a broken invariant of the IR.
	// It is raised with panic: the compilation attempt cannot continue.
	InternalError struct {
		Err error
		PC  loc.PC
	}
)

var (
	ErrBadType       = errors.New("bad operand type")
	ErrTraceOverflow = errors.New("trace too long")
	ErrConstOverflow = errors.New("too many constants")
	ErrGuardFail     = errors.New("guard would always fail")
	ErrInternal      = errors.New("internal error")
)

func Fatalf(format string, args ...any) {
	e := InternalError{
		Err: errors.New(format, args...),
		PC:  loc.Caller(1),
	}

	tlog.Printw("ir: internal error", "err", e.Err, "from", e.PC)

	panic(e)
}

func (e InternalError) Error() string {
	return ErrInternal.Error() + ": " + e.Err.Error()
}

func (e InternalError) Unwrap() []error {
	return []error{ErrInternal, e.Err}
}
