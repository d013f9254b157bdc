package eventbus

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrNilReceiver is returned when a nil receiver is subscribed.
	ErrNilReceiver = errors.New("receiver cannot be nil")

	// ErrUncomparableReceiver is returned when a receiver cannot be compared by identity.
	ErrUncomparableReceiver = errors.New("receiver must be comparable")

	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrReentrantDispatch is returned when ProcessNext or DrainAll is called
	// while the bus is already dispatching.
	ErrReentrantDispatch = errors.New("dispatch already in progress")

	// ErrDrainLimit is returned when DrainAll exceeds its configured event budget.
	ErrDrainLimit = errors.New("drain limit exceeded")
)

// Phase identifies where in a delivery a handler failed.
type Phase int

const (
	// PhaseInstance is an instance handler of the receiver.
	PhaseInstance Phase = iota
	// PhaseType is a type-level handler shared by the receiver's type.
	PhaseType
	// PhaseDispatch is a receiver that is not a Listener and failed in Dispatch.
	PhaseDispatch
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInstance:
		return "instance"
	case PhaseType:
		return "type"
	case PhaseDispatch:
		return "dispatch"
	default:
		return "unknown"
	}
}

// HandlerError wraps an error returned by a handler during delivery.
type HandlerError struct {
	// Event is the name of the event being delivered.
	Event string

	// Receiver is the receiver whose handler failed.
	Receiver Receiver

	// Phase is the handler group that failed.
	Phase Phase

	// Index is the position of the failed handler within its group.
	Index int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler %d for %q on %s: %v", e.Phase, e.Index, e.Event, describe(e.Receiver), e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// describe returns a short label for a receiver in logs and errors.
func describe(r Receiver) string {
	if r == nil {
		return "<nil>"
	}
	if s, ok := r.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", r)
}
