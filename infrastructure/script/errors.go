package script

import (
	"errors"
	"fmt"
)

// Common errors for script execution.
var (
	ErrRuntimeClosed = errors.New("lua runtime is closed")
	ErrTimeout       = errors.New("lua script timed out")
	ErrCallLimit     = errors.New("lua script exceeded its bus call limit")
)

// Error wraps a compile or runtime failure of one script.
type Error struct {
	// Event is the name of the event the script ran for
	Event string
	// Stage is "compile" or "run"
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lua %s error on %s: %v", e.Stage, e.Event, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
