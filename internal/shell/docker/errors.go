package docker

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Registry errors
	ErrAuthFailed = errors.New("registry authentication failed")
	ErrPushFailed = errors.New("image push failed")

	// Build errors
	ErrBuildFailed     = errors.New("image build failed")
	ErrTemplateMissing = errors.New("build template not found")

	// Connection errors
	ErrConnectionFailed = errors.New("docker connection failed")
)

// DockerError wraps errors with additional context.
type DockerError struct {
	Op      string // Operation that failed
	Entity  string // Entity type (image, registry, template)
	ID      string // Entity ID if applicable
	Message string
	Err     error // Sentinel
	Cause   error // Underlying error, may be nil
}

func (e *DockerError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.ID, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *DockerError) Unwrap() []error {
	errs := []error{e.Err}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewDockerError creates a new DockerError.
func NewDockerError(op, entity, id, message string, err error) *DockerError {
	return &DockerError{
		Op:      op,
		Entity:  entity,
		ID:      id,
		Message: message,
		Err:     err,
	}
}

// withCause attaches the underlying error to a DockerError.
func withCause(e *DockerError, cause error) *DockerError {
	e.Cause = cause
	return e
}
