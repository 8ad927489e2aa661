package lifecycle

import (
	"errors"
	"fmt"
)

// ErrAlreadyStarted is returned by a second call to Coordinator.Run.
var ErrAlreadyStarted = errors.New("lifecycle coordinator already started")

// FatalError is a startup step failure. The process exits with status 1
// and the store is not closed.
type FatalError struct {
	Step string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("startup failed during %s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// FaultError is an unhandled fault. The process exits with status 1
// without closing the store.
type FaultError struct {
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("unhandled fault: %v", e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ExitCode maps the result of Run to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
