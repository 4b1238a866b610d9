// Package command runs external tools as subprocesses with bounded lifetimes.
package command

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when the executable is not on PATH.
	ErrNotFound = errors.New("executable not found")

	// ErrExitStatus is returned when the process exits non-zero.
	ErrExitStatus = errors.New("non-zero exit status")

	// ErrTimeout is returned when the process outlives its timeout.
	ErrTimeout = errors.New("command timed out")
)

// CommandError wraps a failed invocation with its exit details.
type CommandError struct {
	Name     string // Executable name
	ExitCode int    // -1 when the process did not exit normally
	Stderr   string // Truncated stderr output
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
