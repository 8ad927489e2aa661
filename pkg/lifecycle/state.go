// Package lifecycle coordinates service startup and shutdown.
//
// Startup runs in dependency order: verify the store, reconcile its schema
// in development, bind the listener. Termination signals lead to a graceful
// shutdown that closes the store exactly once; faults terminate immediately
// without touching the store. Every state change goes through Transition,
// a pure function over (State, Event), so the protocol can be tested
// without any I/O.
package lifecycle

import (
	"errors"
	"fmt"
)

// State is a lifecycle phase. States only ever advance.
type State int

const (
	Initializing State = iota
	Verifying
	Syncing
	Listening
	ShuttingDown
	Terminated
)

var stateNames = [...]string{
	Initializing: "Initializing",
	Verifying:    "Verifying",
	Syncing:      "Syncing",
	Listening:    "Listening",
	ShuttingDown: "ShuttingDown",
	Terminated:   "Terminated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == Terminated
}

// States returns every state in order.
func States() []State {
	return []State{Initializing, Verifying, Syncing, Listening, ShuttingDown, Terminated}
}

// StateNames returns the names of every state in order.
func StateNames() []string {
	out := make([]string, 0, len(stateNames))
	for _, s := range States() {
		out = append(out, s.String())
	}
	return out
}

// Event drives a transition.
type Event int

const (
	VerifyStarted Event = iota
	SyncStarted
	ListenerBound
	StartupFailed
	SignalReceived
	FaultReported
	CloseAttempted
)

var eventNames = [...]string{
	VerifyStarted:  "VerifyStarted",
	SyncStarted:    "SyncStarted",
	ListenerBound:  "ListenerBound",
	StartupFailed:  "StartupFailed",
	SignalReceived: "SignalReceived",
	FaultReported:  "FaultReported",
	CloseAttempted: "CloseAttempted",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// ErrInvalidTransition is returned by Transition for events that are not
// accepted in the current state.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Transition returns the state that follows from on ev.
//
//	Initializing --VerifyStarted--> Verifying
//	Verifying    --SyncStarted----> Syncing
//	Verifying    --ListenerBound--> Listening
//	Syncing      --ListenerBound--> Listening
//	Verifying    --StartupFailed--> Terminated
//	Syncing      --StartupFailed--> Terminated
//	any but ShuttingDown/Terminated --SignalReceived--> ShuttingDown
//	any but Terminated              --FaultReported---> Terminated
//	ShuttingDown --CloseAttempted-> Terminated
func Transition(from State, ev Event) (State, error) {
	switch {
	case from == Initializing && ev == VerifyStarted:
		return Verifying, nil
	case from == Verifying && ev == SyncStarted:
		return Syncing, nil
	case (from == Verifying || from == Syncing) && ev == ListenerBound:
		return Listening, nil
	case (from == Verifying || from == Syncing) && ev == StartupFailed:
		return Terminated, nil
	case ev == SignalReceived && from < ShuttingDown:
		return ShuttingDown, nil
	case ev == FaultReported && from != Terminated:
		return Terminated, nil
	case from == ShuttingDown && ev == CloseAttempted:
		return Terminated, nil
	}
	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, ev)
}
