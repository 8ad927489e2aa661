package lifecycle

import (
	"runtime/debug"
)

// Faults collects unhandled failures from background goroutines. The first
// report wins; later reports are dropped since the process is already
// terminating.
type Faults struct {
	ch chan error
}

func newFaults() *Faults {
	return &Faults{ch: make(chan error, 1)}
}

// Report submits err as a fault. It never blocks.
func (f *Faults) Report(err error) {
	if err == nil {
		return
	}
	select {
	case f.ch <- err:
	default:
	}
}

// Guard runs fn and reports a panic as a *PanicError instead of crashing.
func (f *Faults) Guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			f.Report(&PanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	fn()
}

// Go runs fn on a new goroutine under Guard.
func (f *Faults) Go(fn func()) {
	go f.Guard(fn)
}

// C returns the channel faults are delivered on.
func (f *Faults) C() <-chan error {
	return f.ch
}
