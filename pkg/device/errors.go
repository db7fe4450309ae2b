package device

import (
	"errors"
	"fmt"
)

// ErrUnsupportedTransition reports a target tier the device cannot be
// asked to enter. The engine downgrades it to a shallower tier instead
// of surfacing it.
var ErrUnsupportedTransition = errors.New("unsupported power transition")

// CommandFailedError reports a raw I/O or tool invocation that failed
// while driving a device. It carries the device and the attempted
// command so the failure can be logged and the device skipped for the
// cycle.
type CommandFailedError struct {
	Device  string
	Command string
	Err     error
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("device command failed on %s (%s): %v", e.Device, e.Command, e.Err)
}

func (e *CommandFailedError) Unwrap() error {
	return e.Err
}

func commandFailed(device, command string, err error) *CommandFailedError {
	return &CommandFailedError{Device: device, Command: command, Err: err}
}
