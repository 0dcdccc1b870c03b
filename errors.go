package reactive

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports a value the engine cannot wrap, index or write,
	// and misuse of the template capture.
	ErrInvalidArgument = errors.New("reactive: invalid argument")
	// ErrIllegalCapture reports a capture invoked with something that is not a
	// recorded path.
	ErrIllegalCapture = errors.New("reactive: illegal capture")
	// ErrIllegalInvocation reports an operation the pointer kind does not
	// support, or a pointer identity unknown to the runtime.
	ErrIllegalInvocation = errors.New("reactive: illegal invocation")
)

// PointerError attaches the failing operation and pointer identity to an
// engine error.
type PointerError struct {
	Op      string
	Pointer PointerID
	Err     error
}

func (e *PointerError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Pointer == 0 {
		return fmt.Sprintf("reactive: %s: %v", e.Op, trimPrefix(e.Err))
	}
	return fmt.Sprintf("reactive: %s pointer=%d: %v", e.Op, e.Pointer, trimPrefix(e.Err))
}

func (e *PointerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapPointerError(op string, id PointerID, err error) error {
	if err == nil {
		return nil
	}
	var ptrErr *PointerError
	if errors.As(err, &ptrErr) {
		if ptrErr.Pointer == 0 {
			ptrErr.Pointer = id
		}
		return err
	}
	return &PointerError{Op: op, Pointer: id, Err: err}
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func illegalInvocation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalInvocation, fmt.Sprintf(format, args...))
}

func illegalCapture(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalCapture, fmt.Sprintf(format, args...))
}

func trimPrefix(err error) string {
	if err == nil {
		return "<nil>"
	}
	return strings.TrimPrefix(err.Error(), "reactive: ")
}
